// Package memory provides a simple in-memory implementation used for
// development and tests, and as the authoritative store when no database is
// configured. It keeps code paths easy to follow while allowing a real DB to
// be plugged in.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/errs"
)

// trxKey tracks ledger ordering: sorted asc by (Date, ID).
type trxKey struct {
	Date string
	ID   int64
}

// Store is an in-memory implementation of the repository and writer
// interfaces used by the services. It is guarded by an RWMutex; each write
// method applies all of its records under one lock hold, which is what keeps
// a cash movement's customer-side and safe-side updates atomic.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	customers    map[int64]book.Customer
	safes        map[int64]book.Safe
	products     map[int64]book.Product
	transactions map[int64]book.Transaction
	trxKeys      []trxKey
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		customers:    make(map[int64]book.Customer),
		safes:        make(map[int64]book.Safe),
		products:     make(map[int64]book.Product),
		transactions: make(map[int64]book.Transaction),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedCustomer(c book.Customer) {
	s.mu.Lock()
	s.customers[c.ID] = c
	s.bumpSeqLocked(c.ID)
	s.mu.Unlock()
}

func (s *Store) SeedSafe(sf book.Safe) {
	s.mu.Lock()
	s.safes[sf.ID] = sf
	s.bumpSeqLocked(sf.ID)
	s.mu.Unlock()
}

func (s *Store) SeedProduct(p book.Product) {
	s.mu.Lock()
	s.products[p.ID] = p
	s.bumpSeqLocked(p.ID)
	s.mu.Unlock()
}

// Reset clears all collections.
func (s *Store) Reset() {
	s.mu.Lock()
	s.seq = 0
	s.customers = map[int64]book.Customer{}
	s.safes = map[int64]book.Safe{}
	s.products = map[int64]book.Product{}
	s.transactions = map[int64]book.Transaction{}
	s.trxKeys = nil
	s.mu.Unlock()
}

// NextID returns a fresh record id, unique across all collections.
func (s *Store) NextID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

// --- Customer ---

func (s *Store) CustomerByID(_ context.Context, id int64) (book.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return book.Customer{}, errs.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]book.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveCustomer(_ context.Context, c book.Customer) (book.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	s.bumpSeqLocked(c.ID)
	return c, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

// --- Safe ---

func (s *Store) SafeByID(_ context.Context, id int64) (book.Safe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sf, ok := s.safes[id]
	if !ok {
		return book.Safe{}, errs.ErrNotFound
	}
	return sf, nil
}

func (s *Store) ListSafes(_ context.Context) ([]book.Safe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Safe, 0, len(s.safes))
	for _, sf := range s.safes {
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveSafe(_ context.Context, sf book.Safe) (book.Safe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safes[sf.ID] = sf
	s.bumpSeqLocked(sf.ID)
	return sf, nil
}

func (s *Store) DeleteSafe(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.safes[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.safes, id)
	return nil
}

// --- Product ---

func (s *Store) ProductByID(_ context.Context, id int64) (book.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return book.Product{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]book.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveProduct(_ context.Context, p book.Product) (book.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.bumpSeqLocked(p.ID)
	return p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// --- Transactions ---

func (s *Store) TransactionByID(_ context.Context, id int64) (book.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return book.Transaction{}, errs.ErrNotFound
	}
	return t, nil
}

// ListTransactions returns the ledger ordered asc by (Date, ID).
func (s *Store) ListTransactions(_ context.Context) ([]book.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Transaction, 0, len(s.trxKeys))
	for _, k := range s.trxKeys {
		if t, ok := s.transactions[k.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// SaveTransaction stores (or replaces) the transaction and the updated
// balance holders in one lock hold.
func (s *Store) SaveTransaction(_ context.Context, trx book.Transaction, customers []book.Customer, safes []book.Safe) (book.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.transactions[trx.ID]; ok {
		s.removeTrxKeyLocked(trxKey{Date: old.Date, ID: old.ID})
	}
	s.transactions[trx.ID] = trx
	s.insertTrxKeyLocked(trxKey{Date: trx.Date, ID: trx.ID})
	s.bumpSeqLocked(trx.ID)
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	for _, sf := range safes {
		s.safes[sf.ID] = sf
	}
	return trx, nil
}

// RemoveTransaction deletes the transaction and applies the updated balance
// holders in one lock hold. Removing an absent id is not an error.
func (s *Store) RemoveTransaction(_ context.Context, id int64, customers []book.Customer, safes []book.Safe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.transactions[id]; ok {
		s.removeTrxKeyLocked(trxKey{Date: old.Date, ID: old.ID})
		delete(s.transactions, id)
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	for _, sf := range safes {
		s.safes[sf.ID] = sf
	}
	return nil
}

// --- Snapshot ---

// Snapshot copies the four collections in id order.
func (s *Store) Snapshot(ctx context.Context) (book.Snapshot, error) {
	customers, _ := s.ListCustomers(ctx)
	products, _ := s.ListProducts(ctx)
	safes, _ := s.ListSafes(ctx)
	transactions, _ := s.ListTransactions(ctx)
	return book.Snapshot{
		Customers:    customers,
		Products:     products,
		Safes:        safes,
		Transactions: transactions,
	}, nil
}

// Restore replaces all collections with the snapshot contents and advances
// the id sequence past the largest restored id.
func (s *Store) Restore(_ context.Context, snap book.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = make(map[int64]book.Customer, len(snap.Customers))
	for _, c := range snap.Customers {
		if c.Balances == nil {
			c.Balances = book.NewBalances()
		}
		s.customers[c.ID] = c
	}
	s.safes = make(map[int64]book.Safe, len(snap.Safes))
	for _, sf := range snap.Safes {
		if sf.Balances == nil {
			sf.Balances = book.NewBalances()
		}
		s.safes[sf.ID] = sf
	}
	s.products = make(map[int64]book.Product, len(snap.Products))
	for _, p := range snap.Products {
		s.products[p.ID] = p
	}
	s.transactions = make(map[int64]book.Transaction, len(snap.Transactions))
	s.trxKeys = nil
	for _, t := range snap.Transactions {
		s.transactions[t.ID] = t
		s.insertTrxKeyLocked(trxKey{Date: t.Date, ID: t.ID})
	}
	s.bumpSeqLocked(snap.MaxID())
	return nil
}

// bumpSeqLocked keeps the sequence ahead of externally assigned ids.
// Caller must hold s.mu.
func (s *Store) bumpSeqLocked(id int64) {
	if id > s.seq {
		s.seq = id
	}
}

// insertTrxKeyLocked inserts k keeping order asc by (Date, ID).
// Caller must hold s.mu (write lock).
func (s *Store) insertTrxKeyLocked(k trxKey) {
	keys := s.trxKeys
	i := sort.Search(len(keys), func(i int) bool {
		if keys[i].Date > k.Date {
			return true
		}
		if keys[i].Date == k.Date {
			return keys[i].ID > k.ID
		}
		return false
	})
	if i == len(keys) {
		s.trxKeys = append(keys, k)
		return
	}
	keys = append(keys, trxKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.trxKeys = keys
}

// removeTrxKeyLocked drops k from the sorted index. Caller must hold s.mu.
func (s *Store) removeTrxKeyLocked(k trxKey) {
	for i, cur := range s.trxKeys {
		if cur.ID == k.ID {
			s.trxKeys = append(s.trxKeys[:i], s.trxKeys[i+1:]...)
			return
		}
	}
}
