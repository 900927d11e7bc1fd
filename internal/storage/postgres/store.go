// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. Every ledger mutation runs as one SQL
// transaction covering the transaction row and every touched balance row, so
// local state never exposes a half-applied cash movement.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// NextID draws the next record id from the shared sequence.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `select nextval('record_ids')`).Scan(&id)
	return id, err
}

func marshalBalances(b book.Balances) []byte {
	if b == nil {
		b = book.NewBalances()
	}
	out, _ := json.Marshal(b)
	return out
}

func unmarshalBalances(raw []byte) book.Balances {
	b := book.NewBalances()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

// --- Customers ---

func (s *Store) CustomerByID(ctx context.Context, id int64) (book.Customer, error) {
	var c book.Customer
	var balances []byte
	err := s.pool.QueryRow(ctx, `
		select id, name, type, phone, address, balances
		from customers
		where id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Type, &c.Phone, &c.Address, &balances)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Customer{}, errs.ErrNotFound
	}
	if err != nil {
		return book.Customer{}, err
	}
	c.Balances = unmarshalBalances(balances)
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]book.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		select id, name, type, phone, address, balances
		from customers
		order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]book.Customer, 0)
	for rows.Next() {
		var c book.Customer
		var balances []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Phone, &c.Address, &balances); err != nil {
			return nil, err
		}
		c.Balances = unmarshalBalances(balances)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveCustomer(ctx context.Context, c book.Customer) (book.Customer, error) {
	_, err := s.pool.Exec(ctx, `
		insert into customers (id, name, type, phone, address, balances)
		values ($1,$2,$3,$4,$5,$6)
		on conflict (id) do update
		set name=excluded.name, type=excluded.type, phone=excluded.phone,
			address=excluded.address, balances=excluded.balances
	`, c.ID, c.Name, c.Type, c.Phone, c.Address, marshalBalances(c.Balances))
	if err != nil {
		return book.Customer{}, err
	}
	return c, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, `delete from customers where id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Safes ---

func (s *Store) SafeByID(ctx context.Context, id int64) (book.Safe, error) {
	var sf book.Safe
	var balances []byte
	err := s.pool.QueryRow(ctx, `
		select id, name, balances from safes where id = $1
	`, id).Scan(&sf.ID, &sf.Name, &balances)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Safe{}, errs.ErrNotFound
	}
	if err != nil {
		return book.Safe{}, err
	}
	sf.Balances = unmarshalBalances(balances)
	return sf, nil
}

func (s *Store) ListSafes(ctx context.Context) ([]book.Safe, error) {
	rows, err := s.pool.Query(ctx, `select id, name, balances from safes order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]book.Safe, 0)
	for rows.Next() {
		var sf book.Safe
		var balances []byte
		if err := rows.Scan(&sf.ID, &sf.Name, &balances); err != nil {
			return nil, err
		}
		sf.Balances = unmarshalBalances(balances)
		out = append(out, sf)
	}
	return out, rows.Err()
}

func (s *Store) SaveSafe(ctx context.Context, sf book.Safe) (book.Safe, error) {
	_, err := s.pool.Exec(ctx, `
		insert into safes (id, name, balances)
		values ($1,$2,$3)
		on conflict (id) do update set name=excluded.name, balances=excluded.balances
	`, sf.ID, sf.Name, marshalBalances(sf.Balances))
	if err != nil {
		return book.Safe{}, err
	}
	return sf, nil
}

func (s *Store) DeleteSafe(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, `delete from safes where id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Products ---

func (s *Store) ProductByID(ctx context.Context, id int64) (book.Product, error) {
	var p book.Product
	err := s.pool.QueryRow(ctx, `
		select id, name, type, unit, category, price_minor, purchase_price_minor, currency
		from products
		where id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Type, &p.Unit, &p.Category, &p.PriceMinor, &p.PurchasePriceMinor, &p.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Product{}, errs.ErrNotFound
	}
	if err != nil {
		return book.Product{}, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]book.Product, error) {
	rows, err := s.pool.Query(ctx, `
		select id, name, type, unit, category, price_minor, purchase_price_minor, currency
		from products
		order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]book.Product, 0)
	for rows.Next() {
		var p book.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Unit, &p.Category, &p.PriceMinor, &p.PurchasePriceMinor, &p.Currency); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SaveProduct(ctx context.Context, p book.Product) (book.Product, error) {
	_, err := s.pool.Exec(ctx, `
		insert into products (id, name, type, unit, category, price_minor, purchase_price_minor, currency)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		on conflict (id) do update
		set name=excluded.name, type=excluded.type, unit=excluded.unit,
			category=excluded.category, price_minor=excluded.price_minor,
			purchase_price_minor=excluded.purchase_price_minor, currency=excluded.currency
	`, p.ID, p.Name, p.Type, p.Unit, p.Category, p.PriceMinor, p.PurchasePriceMinor, p.Currency)
	if err != nil {
		return book.Product{}, err
	}
	return p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- Transactions ---

func (s *Store) TransactionByID(ctx context.Context, id int64) (book.Transaction, error) {
	var t book.Transaction
	var items []byte
	err := s.pool.QueryRow(ctx, `
		select id, date, kind, acc_id, acc_name, safe_id, currency, total_minor, items, descr, method
		from transactions
		where id = $1
	`, id).Scan(&t.ID, &t.Date, &t.Kind, &t.AccID, &t.AccName, &t.SafeID, &t.Currency, &t.TotalMinor, &items, &t.Desc, &t.Method)
	if errors.Is(err, pgx.ErrNoRows) {
		return book.Transaction{}, errs.ErrNotFound
	}
	if err != nil {
		return book.Transaction{}, err
	}
	if len(items) > 0 {
		_ = json.Unmarshal(items, &t.Items)
	}
	return t, nil
}

// ListTransactions returns the ledger ordered asc by (date, id).
func (s *Store) ListTransactions(ctx context.Context) ([]book.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select id, date, kind, acc_id, acc_name, safe_id, currency, total_minor, items, descr, method
		from transactions
		order by date asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]book.Transaction, 0)
	for rows.Next() {
		var t book.Transaction
		var items []byte
		if err := rows.Scan(&t.ID, &t.Date, &t.Kind, &t.AccID, &t.AccName, &t.SafeID, &t.Currency, &t.TotalMinor, &items, &t.Desc, &t.Method); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			_ = json.Unmarshal(items, &t.Items)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveTransaction upserts the transaction row and every touched balance row
// within one SQL transaction.
func (s *Store) SaveTransaction(ctx context.Context, trx book.Transaction, customers []book.Customer, safes []book.Safe) (book.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return book.Transaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var items []byte
	if len(trx.Items) > 0 {
		items, err = json.Marshal(trx.Items)
		if err != nil {
			return book.Transaction{}, err
		}
	}
	if _, err := tx.Exec(ctx, `
		insert into transactions (id, date, kind, acc_id, acc_name, safe_id, currency, total_minor, items, descr, method)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		on conflict (id) do update
		set date=excluded.date, kind=excluded.kind, acc_id=excluded.acc_id,
			acc_name=excluded.acc_name, safe_id=excluded.safe_id,
			currency=excluded.currency, total_minor=excluded.total_minor,
			items=excluded.items, descr=excluded.descr, method=excluded.method
	`, trx.ID, trx.Date, trx.Kind, trx.AccID, trx.AccName, trx.SafeID, trx.Currency, trx.TotalMinor, items, trx.Desc, trx.Method); err != nil {
		return book.Transaction{}, err
	}
	if err := updateBalances(ctx, tx, customers, safes); err != nil {
		return book.Transaction{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return book.Transaction{}, err
	}
	return trx, nil
}

// RemoveTransaction deletes the row and applies the reverted balances within
// one SQL transaction. Removing an absent id is not an error.
func (s *Store) RemoveTransaction(ctx context.Context, id int64, customers []book.Customer, safes []book.Safe) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `delete from transactions where id = $1`, id); err != nil {
		return err
	}
	if err := updateBalances(ctx, tx, customers, safes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func updateBalances(ctx context.Context, tx pgx.Tx, customers []book.Customer, safes []book.Safe) error {
	for _, c := range customers {
		if _, err := tx.Exec(ctx, `
			update customers set balances = $1 where id = $2
		`, marshalBalances(c.Balances), c.ID); err != nil {
			return err
		}
	}
	for _, sf := range safes {
		if _, err := tx.Exec(ctx, `
			update safes set balances = $1 where id = $2
		`, marshalBalances(sf.Balances), sf.ID); err != nil {
			return err
		}
	}
	return nil
}

// --- Snapshot ---

// Snapshot copies the four collections in id order.
func (s *Store) Snapshot(ctx context.Context) (book.Snapshot, error) {
	customers, err := s.ListCustomers(ctx)
	if err != nil {
		return book.Snapshot{}, err
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return book.Snapshot{}, err
	}
	safes, err := s.ListSafes(ctx)
	if err != nil {
		return book.Snapshot{}, err
	}
	transactions, err := s.ListTransactions(ctx)
	if err != nil {
		return book.Snapshot{}, err
	}
	return book.Snapshot{Customers: customers, Products: products, Safes: safes, Transactions: transactions}, nil
}
