package book

import (
	"testing"

	"github.com/govalues/decimal"
)

func TestNewBalancesHasAllCurrencies(t *testing.T) {
	b := NewBalances()
	if len(b) != 3 {
		t.Fatalf("expected 3 currency keys, got %d", len(b))
	}
	for _, c := range Currencies {
		if v, ok := b[c]; !ok || v != 0 {
			t.Fatalf("currency %s: ok=%v v=%d", c, ok, v)
		}
	}
}

func TestBalancesCloneIsIndependent(t *testing.T) {
	b := NewBalances()
	b.Add(CurrencyTL, 500)
	c := b.Clone()
	c.Add(CurrencyTL, 100)
	if b[CurrencyTL] != 500 {
		t.Fatalf("clone mutated original: %d", b[CurrencyTL])
	}
	if c[CurrencyTL] != 600 {
		t.Fatalf("clone balance: %d", c[CurrencyTL])
	}
}

func TestItemComputeTotal(t *testing.T) {
	cases := []struct {
		qty   string
		price int64
		want  int64
	}{
		{"1", 1000, 1000},
		{"3", 250, 750},
		{"2.5", 1050, 2625},
		{"0.5", 333, 167}, // rounded to currency scale
	}
	for _, c := range cases {
		it := Item{Name: "x", Qty: decimal.MustParse(c.qty), Unit: "kg", PriceMinor: c.price}
		got, err := it.ComputeTotal(CurrencyTL)
		if err != nil {
			t.Fatalf("qty=%s price=%d: %v", c.qty, c.price, err)
		}
		if got != c.want {
			t.Errorf("qty=%s price=%d: got %d, want %d", c.qty, c.price, got, c.want)
		}
	}
}

func TestDirectionKind(t *testing.T) {
	if k, err := DirectionIn.Kind(); err != nil || k != KindCashIn {
		t.Fatalf("in: %v %v", k, err)
	}
	if k, err := DirectionOut.Kind(); err != nil || k != KindCashOut {
		t.Fatalf("out: %v %v", k, err)
	}
	if _, err := Direction("sideways").Kind(); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestCurrencyISO(t *testing.T) {
	if CurrencyTL.ISO() != "TRY" || CurrencyUSD.ISO() != "USD" || CurrencyEUR.ISO() != "EUR" {
		t.Fatal("iso mapping broken")
	}
}

func TestSnapshotMaxID(t *testing.T) {
	s := Snapshot{
		Customers:    []Customer{{ID: 3}},
		Safes:        []Safe{{ID: 9}},
		Transactions: []Transaction{{ID: 7}},
	}
	if got := s.MaxID(); got != 9 {
		t.Fatalf("max id: got %d, want 9", got)
	}
}
