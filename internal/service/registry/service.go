// Package registry implements customer, safe, and product maintenance:
// creation with zero balances, descriptive-field updates, and deletes.
// Balances are owned by the ledger engine and are never writable here.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/errs"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListCustomers(ctx context.Context) ([]book.Customer, error)
	CustomerByID(ctx context.Context, id int64) (book.Customer, error)
	ListSafes(ctx context.Context) ([]book.Safe, error)
	SafeByID(ctx context.Context, id int64) (book.Safe, error)
	ListProducts(ctx context.Context) ([]book.Product, error)
	ProductByID(ctx context.Context, id int64) (book.Product, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	NextID(ctx context.Context) (int64, error)
	SaveCustomer(ctx context.Context, c book.Customer) (book.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	SaveSafe(ctx context.Context, sf book.Safe) (book.Safe, error)
	DeleteSafe(ctx context.Context, id int64) error
	SaveProduct(ctx context.Context, p book.Product) (book.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Syncer mirrors committed changes to the remote store, fire-and-forget.
type Syncer interface {
	Create(collection string, record any)
	Update(collection string, record any)
	Delete(collection string, id int64)
}

// Service exposes registry maintenance operations.
type Service interface {
	CreateCustomer(ctx context.Context, c book.Customer) (book.Customer, error)
	UpdateCustomer(ctx context.Context, c book.Customer) (book.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context) ([]book.Customer, error)
	GetCustomer(ctx context.Context, id int64) (book.Customer, error)

	CreateSafe(ctx context.Context, sf book.Safe) (book.Safe, error)
	DeleteSafe(ctx context.Context, id int64) error
	ListSafes(ctx context.Context) ([]book.Safe, error)
	GetSafe(ctx context.Context, id int64) (book.Safe, error)
	EnsureDefaultSafes(ctx context.Context) error

	CreateProduct(ctx context.Context, p book.Product) (book.Product, error)
	UpdateProduct(ctx context.Context, p book.Product) (book.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]book.Product, error)
	GetProduct(ctx context.Context, id int64) (book.Product, error)
}

type service struct {
	repo   Repo
	writer Writer
	sync   Syncer
	log    *slog.Logger
}

// New constructs the registry service. sync may be nil.
func New(repo Repo, writer Writer, sync Syncer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, writer: writer, sync: sync, log: logger}
}

// defaultSafeNames are seeded when the safe collection is empty.
var defaultSafeNames = []string{"Main Safe", "Central Safe"}

func validateCustomer(c book.Customer) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrUnprocessable)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: type must be buyer, supplier, or both", errs.ErrUnprocessable)
	}
	return nil
}

// CreateCustomer assigns an id and zero balances in every currency.
func (s *service) CreateCustomer(ctx context.Context, c book.Customer) (book.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return book.Customer{}, err
	}
	id, err := s.writer.NextID(ctx)
	if err != nil {
		return book.Customer{}, err
	}
	c.ID = id
	c.Balances = book.NewBalances()
	saved, err := s.writer.SaveCustomer(ctx, c)
	if err != nil {
		return book.Customer{}, err
	}
	if s.sync != nil {
		s.sync.Create(book.CollectionCustomers, saved)
	}
	return saved, nil
}

// UpdateCustomer changes descriptive fields only; balances are carried over
// from the stored record regardless of what the caller supplied.
func (s *service) UpdateCustomer(ctx context.Context, c book.Customer) (book.Customer, error) {
	if c.ID == 0 {
		return book.Customer{}, errs.ErrInvalid
	}
	if err := validateCustomer(c); err != nil {
		return book.Customer{}, err
	}
	current, err := s.repo.CustomerByID(ctx, c.ID)
	if err != nil {
		return book.Customer{}, err
	}
	c.Balances = current.Balances
	saved, err := s.writer.SaveCustomer(ctx, c)
	if err != nil {
		return book.Customer{}, err
	}
	if s.sync != nil {
		s.sync.Update(book.CollectionCustomers, saved)
	}
	return saved, nil
}

// DeleteCustomer removes the customer record. Transactions referencing it are
// left in the ledger; the engine skips the missing side on later reverts.
func (s *service) DeleteCustomer(ctx context.Context, id int64) error {
	if _, err := s.repo.CustomerByID(ctx, id); err != nil {
		return err
	}
	if err := s.writer.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.log.Info("customer deleted, transactions orphaned", "customer_id", id)
	if s.sync != nil {
		s.sync.Delete(book.CollectionCustomers, id)
	}
	return nil
}

func (s *service) ListCustomers(ctx context.Context) ([]book.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *service) GetCustomer(ctx context.Context, id int64) (book.Customer, error) {
	return s.repo.CustomerByID(ctx, id)
}

// CreateSafe assigns an id and zero balances in every currency.
func (s *service) CreateSafe(ctx context.Context, sf book.Safe) (book.Safe, error) {
	if sf.Name == "" {
		return book.Safe{}, fmt.Errorf("%w: name is required", errs.ErrUnprocessable)
	}
	id, err := s.writer.NextID(ctx)
	if err != nil {
		return book.Safe{}, err
	}
	sf.ID = id
	sf.Balances = book.NewBalances()
	saved, err := s.writer.SaveSafe(ctx, sf)
	if err != nil {
		return book.Safe{}, err
	}
	if s.sync != nil {
		s.sync.Create(book.CollectionSafes, saved)
	}
	return saved, nil
}

func (s *service) DeleteSafe(ctx context.Context, id int64) error {
	if _, err := s.repo.SafeByID(ctx, id); err != nil {
		return err
	}
	if err := s.writer.DeleteSafe(ctx, id); err != nil {
		return err
	}
	if s.sync != nil {
		s.sync.Delete(book.CollectionSafes, id)
	}
	return nil
}

func (s *service) ListSafes(ctx context.Context) ([]book.Safe, error) {
	return s.repo.ListSafes(ctx)
}

func (s *service) GetSafe(ctx context.Context, id int64) (book.Safe, error) {
	return s.repo.SafeByID(ctx, id)
}

// EnsureDefaultSafes seeds the bootstrap safes when none exist yet.
func (s *service) EnsureDefaultSafes(ctx context.Context) error {
	existing, err := s.repo.ListSafes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, name := range defaultSafeNames {
		if _, err := s.CreateSafe(ctx, book.Safe{Name: name}); err != nil {
			return err
		}
	}
	s.log.Info("seeded default safes", "count", len(defaultSafeNames))
	return nil
}

func validateProduct(p book.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrUnprocessable)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: type must be sold, purchased, or both", errs.ErrUnprocessable)
	}
	if !p.Currency.Valid() {
		return fmt.Errorf("%w: unknown currency %q", errs.ErrUnprocessable, p.Currency)
	}
	if p.PriceMinor < 0 || p.PurchasePriceMinor < 0 {
		return fmt.Errorf("%w: price must be >= 0", errs.ErrUnprocessable)
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, p book.Product) (book.Product, error) {
	if err := validateProduct(p); err != nil {
		return book.Product{}, err
	}
	id, err := s.writer.NextID(ctx)
	if err != nil {
		return book.Product{}, err
	}
	p.ID = id
	saved, err := s.writer.SaveProduct(ctx, p)
	if err != nil {
		return book.Product{}, err
	}
	if s.sync != nil {
		s.sync.Create(book.CollectionProducts, saved)
	}
	return saved, nil
}

func (s *service) UpdateProduct(ctx context.Context, p book.Product) (book.Product, error) {
	if p.ID == 0 {
		return book.Product{}, errs.ErrInvalid
	}
	if err := validateProduct(p); err != nil {
		return book.Product{}, err
	}
	if _, err := s.repo.ProductByID(ctx, p.ID); err != nil {
		return book.Product{}, err
	}
	saved, err := s.writer.SaveProduct(ctx, p)
	if err != nil {
		return book.Product{}, err
	}
	if s.sync != nil {
		s.sync.Update(book.CollectionProducts, saved)
	}
	return saved, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.repo.ProductByID(ctx, id); err != nil {
		return err
	}
	if err := s.writer.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if s.sync != nil {
		s.sync.Delete(book.CollectionProducts, id)
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context) ([]book.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *service) GetProduct(ctx context.Context, id int64) (book.Product, error) {
	return s.repo.ProductByID(ctx, id)
}
