package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/govalues/decimal"

	"github.com/okalkan/defter/internal/book"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected absent key")
	}
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "two" {
		t.Fatalf("expected latest value, got %q", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := book.Snapshot{
		Customers: []book.Customer{{ID: 1, Name: "Aslan Market", Type: book.CustomerTypeBuyer, Balances: book.NewBalances()}},
		Safes:     []book.Safe{{ID: 2, Name: "Main Safe", Balances: book.NewBalances()}},
		Products:  []book.Product{{ID: 3, Name: "Flour", Type: book.ProductTypeSold, Currency: book.CurrencyTL, PriceMinor: 1050}},
		Transactions: []book.Transaction{{
			ID: 4, Date: "2025-03-02", Kind: book.KindSales, AccID: 1,
			Currency: book.CurrencyTL, TotalMinor: 2100,
			Items: []book.Item{{Name: "Flour", Qty: decimal.MustParse("2"), PriceMinor: 1050, TotalMinor: 2100}},
		}},
	}
	snap.Customers[0].Balances[book.CurrencyTL] = 2100

	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	got, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(got.Customers) != 1 || got.Customers[0].Balances[book.CurrencyTL] != 2100 {
		t.Fatalf("customers not restored: %+v", got.Customers)
	}
	if len(got.Transactions) != 1 || len(got.Transactions[0].Items) != 1 {
		t.Fatalf("transactions not restored: %+v", got.Transactions)
	}
	if got.Transactions[0].Items[0].TotalMinor != 2100 {
		t.Fatalf("item total = %d, want 2100", got.Transactions[0].Items[0].TotalMinor)
	}
	if got.MaxID() != 4 {
		t.Fatalf("max id = %d, want 4", got.MaxID())
	}
}

func TestLoadSnapshotFreshFile(t *testing.T) {
	s := openTestStore(t)
	snap, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Customers) != 0 || len(snap.Transactions) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
