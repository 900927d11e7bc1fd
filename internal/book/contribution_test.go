package book

import "testing"

func TestContributionSigns(t *testing.T) {
	cases := []struct {
		kind     Kind
		customer int64
		safe     int64
	}{
		{KindSales, 1, 0},
		{KindPurchase, -1, 0},
		{KindCashIn, -1, 1},
		{KindCashOut, 1, -1},
	}
	for _, c := range cases {
		if got := c.kind.CustomerSign(); got != c.customer {
			t.Errorf("%s customer sign: got %d, want %d", c.kind, got, c.customer)
		}
		if got := c.kind.SafeSign(); got != c.safe {
			t.Errorf("%s safe sign: got %d, want %d", c.kind, got, c.safe)
		}
	}
}

func TestDeltas(t *testing.T) {
	if got := CustomerDelta(KindSales, 100000); got != 100000 {
		t.Fatalf("sales customer delta: got %d", got)
	}
	if got := CustomerDelta(KindCashIn, 40000); got != -40000 {
		t.Fatalf("cash_in customer delta: got %d", got)
	}
	if got := SafeDelta(KindCashIn, 40000); got != 40000 {
		t.Fatalf("cash_in safe delta: got %d", got)
	}
	if got := SafeDelta(KindSales, 100000); got != 0 {
		t.Fatalf("sales must not touch safes, got %d", got)
	}
}
