package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/errs"
	"github.com/okalkan/defter/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func setup(t *testing.T) (*memory.Store, Service) {
	t.Helper()
	store := memory.New()
	return store, New(store, store, nil, testLogger())
}

func TestCreateCustomerZeroBalances(t *testing.T) {
	_, svc := setup(t)
	c, err := svc.CreateCustomer(context.Background(), book.Customer{Name: "Aksoy Gida", Type: book.CustomerTypeBuyer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if len(c.Balances) != 3 {
		t.Fatalf("expected all currency keys, got %v", c.Balances)
	}
	for cur, v := range c.Balances {
		if v != 0 {
			t.Fatalf("currency %s not zero: %d", cur, v)
		}
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	_, svc := setup(t)
	if _, err := svc.CreateCustomer(context.Background(), book.Customer{Type: book.CustomerTypeBuyer}); !errors.Is(err, errs.ErrUnprocessable) {
		t.Fatalf("missing name: %v", err)
	}
	if _, err := svc.CreateCustomer(context.Background(), book.Customer{Name: "x", Type: "reseller"}); !errors.Is(err, errs.ErrUnprocessable) {
		t.Fatalf("bad type: %v", err)
	}
}

func TestUpdateCustomerPreservesBalances(t *testing.T) {
	store, svc := setup(t)
	c, err := svc.CreateCustomer(context.Background(), book.Customer{Name: "Aksoy Gida", Type: book.CustomerTypeBuyer})
	if err != nil {
		t.Fatal(err)
	}
	// Simulate an engine-applied balance.
	c.Balances[book.CurrencyTL] = 5000
	if _, err := store.SaveCustomer(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	edit := c
	edit.Name = "Aksoy Gida A.S."
	edit.Balances = book.Balances{book.CurrencyTL: 999999} // must be ignored
	saved, err := svc.UpdateCustomer(context.Background(), edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Name != "Aksoy Gida A.S." {
		t.Fatalf("name not updated: %q", saved.Name)
	}
	if saved.Balances[book.CurrencyTL] != 5000 {
		t.Fatalf("balances must come from the stored record, got %d", saved.Balances[book.CurrencyTL])
	}
}

func TestDeleteCustomerLeavesTransactions(t *testing.T) {
	store, svc := setup(t)
	c, err := svc.CreateCustomer(context.Background(), book.Customer{Name: "Aksoy Gida", Type: book.CustomerTypeBuyer})
	if err != nil {
		t.Fatal(err)
	}
	trx := book.Transaction{ID: 77, Date: "2025-03-01", Kind: book.KindSales, AccID: c.ID, AccName: c.Name, Currency: book.CurrencyTL, TotalMinor: 100}
	if _, err := store.SaveTransaction(context.Background(), trx, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteCustomer(context.Background(), c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteCustomer(context.Background(), c.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	got, err := store.TransactionByID(context.Background(), trx.ID)
	if err != nil {
		t.Fatalf("transaction must remain: %v", err)
	}
	if got.AccName != "Aksoy Gida" {
		t.Fatalf("denormalized name must survive, got %q", got.AccName)
	}
}

func TestEnsureDefaultSafes(t *testing.T) {
	_, svc := setup(t)
	if err := svc.EnsureDefaultSafes(context.Background()); err != nil {
		t.Fatal(err)
	}
	safes, err := svc.ListSafes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(safes) != 2 {
		t.Fatalf("expected 2 default safes, got %d", len(safes))
	}
	if safes[0].Name != "Main Safe" || safes[1].Name != "Central Safe" {
		t.Fatalf("unexpected safe names: %q, %q", safes[0].Name, safes[1].Name)
	}
	for _, sf := range safes {
		if len(sf.Balances) != 3 {
			t.Fatalf("safe %q missing currency keys: %v", sf.Name, sf.Balances)
		}
	}
	// Idempotent: a second call must not add more.
	if err := svc.EnsureDefaultSafes(context.Background()); err != nil {
		t.Fatal(err)
	}
	safes, _ = svc.ListSafes(context.Background())
	if len(safes) != 2 {
		t.Fatalf("seeding must be idempotent, got %d safes", len(safes))
	}
}

func TestProductCRUD(t *testing.T) {
	_, svc := setup(t)
	p, err := svc.CreateProduct(context.Background(), book.Product{
		Name: "Sunflower Oil", Type: book.ProductTypeSold, Unit: "lt",
		Category: "grocery", PriceMinor: 4500, Currency: book.CurrencyTL,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p.PriceMinor = 4800
	if _, err := svc.UpdateProduct(context.Background(), p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PriceMinor != 4800 {
		t.Fatalf("price: got %d, want 4800", got.PriceMinor)
	}
	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetProduct(context.Background(), p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	_, svc := setup(t)
	bad := []book.Product{
		{Type: book.ProductTypeSold, Currency: book.CurrencyTL},
		{Name: "x", Type: "rented", Currency: book.CurrencyTL},
		{Name: "x", Type: book.ProductTypeSold, Currency: "GBP"},
		{Name: "x", Type: book.ProductTypeSold, Currency: book.CurrencyTL, PriceMinor: -1},
	}
	for i, p := range bad {
		if _, err := svc.CreateProduct(context.Background(), p); !errors.Is(err, errs.ErrUnprocessable) {
			t.Errorf("case %d: expected unprocessable, got %v", i, err)
		}
	}
}
