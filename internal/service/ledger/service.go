// Package ledger implements the balance-reconciliation engine: creating,
// editing, and deleting transactions while keeping customer and safe balances
// equal to the signed sum of the active ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/errs"
)

// Repo defines read operations needed by the engine.
type Repo interface {
	CustomerByID(ctx context.Context, id int64) (book.Customer, error)
	SafeByID(ctx context.Context, id int64) (book.Safe, error)
	TransactionByID(ctx context.Context, id int64) (book.Transaction, error)
	ListTransactions(ctx context.Context) ([]book.Transaction, error)
}

// Writer defines write operations needed by the engine. SaveTransaction and
// RemoveTransaction persist the transaction together with every touched
// balance holder in one step, so the customer side and safe side of a cash
// movement are never observably separated.
type Writer interface {
	NextID(ctx context.Context) (int64, error)
	SaveTransaction(ctx context.Context, trx book.Transaction, customers []book.Customer, safes []book.Safe) (book.Transaction, error)
	RemoveTransaction(ctx context.Context, id int64, customers []book.Customer, safes []book.Safe) error
}

// Syncer mirrors committed changes to the remote store. Calls are
// fire-and-forget: the engine never waits on them and never rolls back local
// state when a push fails.
type Syncer interface {
	Create(collection string, record any)
	Update(collection string, record any)
	Delete(collection string, id int64)
}

// InvoiceInput carries the fields needed to create a sales or purchase invoice.
type InvoiceInput struct {
	CustomerID int64
	Date       string
	Kind       book.Kind
	Currency   book.Currency
	Items      []book.Item
}

// CashMovementInput carries the fields needed to record a cash movement
// between a customer and a safe.
type CashMovementInput struct {
	CustomerID  int64
	SafeID      int64
	Date        string
	AmountMinor int64
	Direction   book.Direction
	Currency    book.Currency
	Method      book.Method
	Desc        string
}

// Service exposes the ledger engine operations.
type Service interface {
	CreateInvoice(ctx context.Context, in InvoiceInput) (book.Transaction, error)
	RecordCashMovement(ctx context.Context, in CashMovementInput) (book.Transaction, error)
	EditTransaction(ctx context.Context, updated book.Transaction) (book.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (book.Transaction, error)
	ListTransactions(ctx context.Context) ([]book.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
	sync   Syncer
	log    *slog.Logger
}

// New constructs the engine. sync may be nil when remote mirroring is disabled.
func New(repo Repo, writer Writer, sync Syncer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, writer: writer, sync: sync, log: logger}
}

// CreateInvoice appends a sales or purchase transaction and applies its
// customer contribution. Item totals and the transaction total are recomputed
// from qty and price; caller-supplied totals are ignored.
func (s *service) CreateInvoice(ctx context.Context, in InvoiceInput) (book.Transaction, error) {
	if !in.Kind.IsInvoice() {
		return book.Transaction{}, fmt.Errorf("%w: kind must be sales or purchase", errs.ErrUnprocessable)
	}
	if !in.Currency.Valid() {
		return book.Transaction{}, fmt.Errorf("%w: unknown currency %q", errs.ErrUnprocessable, in.Currency)
	}
	if !book.ValidDate(in.Date) {
		return book.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD", errs.ErrUnprocessable)
	}
	if len(in.Items) == 0 {
		return book.Transaction{}, fmt.Errorf("%w: items must not be empty", errs.ErrUnprocessable)
	}
	items := make([]book.Item, len(in.Items))
	var total int64
	for i, it := range in.Items {
		if it.Name == "" {
			return book.Transaction{}, fmt.Errorf("%w: item[%d]: name is required", errs.ErrUnprocessable, i)
		}
		if !it.Qty.IsPos() {
			return book.Transaction{}, fmt.Errorf("%w: item[%d]: qty must be > 0", errs.ErrUnprocessable, i)
		}
		if it.PriceMinor < 0 {
			return book.Transaction{}, fmt.Errorf("%w: item[%d]: price must be >= 0", errs.ErrUnprocessable, i)
		}
		lineTotal, err := it.ComputeTotal(in.Currency)
		if err != nil {
			return book.Transaction{}, fmt.Errorf("%w: item[%d]: %v", errs.ErrUnprocessable, i, err)
		}
		it.TotalMinor = lineTotal
		items[i] = it
		total += lineTotal
	}

	cust, err := s.repo.CustomerByID(ctx, in.CustomerID)
	if err != nil {
		return book.Transaction{}, fmt.Errorf("customer %d: %w", in.CustomerID, err)
	}

	id, err := s.writer.NextID(ctx)
	if err != nil {
		return book.Transaction{}, err
	}
	trx := book.Transaction{
		ID:         id,
		Date:       in.Date,
		Kind:       in.Kind,
		AccID:      cust.ID,
		AccName:    cust.Name,
		Currency:   in.Currency,
		TotalMinor: total,
		Items:      items,
	}

	cust.Balances = cust.Balances.Clone()
	cust.Balances.Add(trx.Currency, book.CustomerDelta(trx.Kind, trx.TotalMinor))

	saved, err := s.writer.SaveTransaction(ctx, trx, []book.Customer{cust}, nil)
	if err != nil {
		return book.Transaction{}, err
	}
	if s.sync != nil {
		s.sync.Create(book.CollectionTransactions, saved)
		s.sync.Update(book.CollectionCustomers, cust)
	}
	return saved, nil
}

// RecordCashMovement appends a cash_in or cash_out transaction, applying the
// customer contribution and the safe contribution from the same record.
func (s *service) RecordCashMovement(ctx context.Context, in CashMovementInput) (book.Transaction, error) {
	kind, err := in.Direction.Kind()
	if err != nil {
		return book.Transaction{}, fmt.Errorf("%w: %v", errs.ErrUnprocessable, err)
	}
	if in.AmountMinor <= 0 {
		return book.Transaction{}, fmt.Errorf("%w: amount must be > 0", errs.ErrUnprocessable)
	}
	if !in.Currency.Valid() {
		return book.Transaction{}, fmt.Errorf("%w: unknown currency %q", errs.ErrUnprocessable, in.Currency)
	}
	if !in.Method.Valid() {
		return book.Transaction{}, fmt.Errorf("%w: unknown method %q", errs.ErrUnprocessable, in.Method)
	}
	if !book.ValidDate(in.Date) {
		return book.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD", errs.ErrUnprocessable)
	}

	cust, err := s.repo.CustomerByID(ctx, in.CustomerID)
	if err != nil {
		return book.Transaction{}, fmt.Errorf("customer %d: %w", in.CustomerID, err)
	}
	safe, err := s.repo.SafeByID(ctx, in.SafeID)
	if err != nil {
		return book.Transaction{}, fmt.Errorf("safe %d: %w", in.SafeID, err)
	}

	id, err := s.writer.NextID(ctx)
	if err != nil {
		return book.Transaction{}, err
	}
	trx := book.Transaction{
		ID:         id,
		Date:       in.Date,
		Kind:       kind,
		AccID:      cust.ID,
		AccName:    cust.Name,
		SafeID:     safe.ID,
		Currency:   in.Currency,
		TotalMinor: in.AmountMinor,
		Desc:       in.Desc,
		Method:     in.Method,
	}

	cust.Balances = cust.Balances.Clone()
	cust.Balances.Add(trx.Currency, book.CustomerDelta(trx.Kind, trx.TotalMinor))
	safe.Balances = safe.Balances.Clone()
	safe.Balances.Add(trx.Currency, book.SafeDelta(trx.Kind, trx.TotalMinor))

	saved, err := s.writer.SaveTransaction(ctx, trx, []book.Customer{cust}, []book.Safe{safe})
	if err != nil {
		return book.Transaction{}, err
	}
	if s.sync != nil {
		s.sync.Create(book.CollectionTransactions, saved)
		s.sync.Update(book.CollectionCustomers, cust)
		s.sync.Update(book.CollectionSafes, safe)
	}
	return saved, nil
}

// EditTransaction replaces a stored transaction: the prior version's
// contribution is fully reverted, then the new version's contribution is
// fully applied. Revert completes before reapply begins, so the algorithm
// stays correct when kind, currency, customer, or safe changes between
// versions. A missing prior id mutates nothing and reports ErrNotFound.
func (s *service) EditTransaction(ctx context.Context, updated book.Transaction) (book.Transaction, error) {
	prior, err := s.repo.TransactionByID(ctx, updated.ID)
	if err != nil {
		return book.Transaction{}, err
	}
	if err := s.normalize(&updated); err != nil {
		return book.Transaction{}, err
	}

	// Touched balance holders, keyed by id so revert and reapply compose when
	// they hit the same entity.
	customers := make(map[int64]book.Customer)
	safes := make(map[int64]book.Safe)

	loadCustomer := func(id int64) (book.Customer, bool, error) {
		if c, ok := customers[id]; ok {
			return c, true, nil
		}
		c, err := s.repo.CustomerByID(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return book.Customer{}, false, nil
		}
		if err != nil {
			return book.Customer{}, false, err
		}
		c.Balances = c.Balances.Clone()
		return c, true, nil
	}
	loadSafe := func(id int64) (book.Safe, bool, error) {
		if sf, ok := safes[id]; ok {
			return sf, true, nil
		}
		sf, err := s.repo.SafeByID(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			return book.Safe{}, false, nil
		}
		if err != nil {
			return book.Safe{}, false, err
		}
		sf.Balances = sf.Balances.Clone()
		return sf, true, nil
	}

	// The new version's references must resolve before anything mutates.
	newCust, ok, err := loadCustomer(updated.AccID)
	if err != nil {
		return book.Transaction{}, err
	}
	if !ok {
		return book.Transaction{}, fmt.Errorf("customer %d: %w", updated.AccID, errs.ErrNotFound)
	}
	customers[newCust.ID] = newCust
	var newSafeID int64
	if updated.Kind.IsCash() {
		sf, ok, err := loadSafe(updated.SafeID)
		if err != nil {
			return book.Transaction{}, err
		}
		if !ok {
			return book.Transaction{}, fmt.Errorf("safe %d: %w", updated.SafeID, errs.ErrNotFound)
		}
		safes[sf.ID] = sf
		newSafeID = sf.ID
	} else {
		updated.SafeID = 0
	}

	// Revert the prior version completely.
	if c, ok, err := loadCustomer(prior.AccID); err != nil {
		return book.Transaction{}, err
	} else if ok {
		c.Balances.Add(prior.Currency, -book.CustomerDelta(prior.Kind, prior.TotalMinor))
		customers[c.ID] = c
	} else {
		s.log.Warn("edit: prior customer missing, skipping revert", "transaction_id", prior.ID, "customer_id", prior.AccID)
	}
	if prior.Kind.IsCash() && prior.SafeID != 0 {
		if sf, ok, err := loadSafe(prior.SafeID); err != nil {
			return book.Transaction{}, err
		} else if ok {
			sf.Balances.Add(prior.Currency, -book.SafeDelta(prior.Kind, prior.TotalMinor))
			safes[sf.ID] = sf
		} else {
			s.log.Warn("edit: prior safe missing, skipping revert", "transaction_id", prior.ID, "safe_id", prior.SafeID)
		}
	}

	// Reapply the new version.
	c := customers[updated.AccID]
	c.Balances.Add(updated.Currency, book.CustomerDelta(updated.Kind, updated.TotalMinor))
	customers[c.ID] = c
	if updated.Kind.IsCash() {
		sf := safes[newSafeID]
		sf.Balances.Add(updated.Currency, book.SafeDelta(updated.Kind, updated.TotalMinor))
		safes[sf.ID] = sf
	}

	// Denormalized name: refresh only when the reference moved.
	if updated.AccID != prior.AccID {
		updated.AccName = newCust.Name
	} else if updated.AccName == "" {
		updated.AccName = prior.AccName
	}

	saved, err := s.writer.SaveTransaction(ctx, updated, customerValues(customers), safeValues(safes))
	if err != nil {
		return book.Transaction{}, err
	}
	if s.sync != nil {
		s.sync.Update(book.CollectionTransactions, saved)
		for _, c := range customers {
			s.sync.Update(book.CollectionCustomers, c)
		}
		for _, sf := range safes {
			s.sync.Update(book.CollectionSafes, sf)
		}
	}
	return saved, nil
}

// DeleteTransaction reverts a transaction's contribution and removes it from
// the ledger. A missing id is a no-op; a missing customer or safe side is
// skipped with a log so stale records referencing deleted entities can still
// be removed.
func (s *service) DeleteTransaction(ctx context.Context, id int64) error {
	prior, err := s.repo.TransactionByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var customers []book.Customer
	var safes []book.Safe

	cust, err := s.repo.CustomerByID(ctx, prior.AccID)
	switch {
	case err == nil:
		cust.Balances = cust.Balances.Clone()
		cust.Balances.Add(prior.Currency, -book.CustomerDelta(prior.Kind, prior.TotalMinor))
		customers = append(customers, cust)
	case errors.Is(err, errs.ErrNotFound):
		s.log.Warn("delete: customer missing, skipping revert", "transaction_id", prior.ID, "customer_id", prior.AccID)
	default:
		return err
	}

	if prior.Kind.IsCash() && prior.SafeID != 0 {
		safe, err := s.repo.SafeByID(ctx, prior.SafeID)
		switch {
		case err == nil:
			safe.Balances = safe.Balances.Clone()
			safe.Balances.Add(prior.Currency, -book.SafeDelta(prior.Kind, prior.TotalMinor))
			safes = append(safes, safe)
		case errors.Is(err, errs.ErrNotFound):
			s.log.Warn("delete: safe missing, skipping revert", "transaction_id", prior.ID, "safe_id", prior.SafeID)
		default:
			return err
		}
	}

	if err := s.writer.RemoveTransaction(ctx, id, customers, safes); err != nil {
		return err
	}
	if s.sync != nil {
		s.sync.Delete(book.CollectionTransactions, id)
		for _, c := range customers {
			s.sync.Update(book.CollectionCustomers, c)
		}
		for _, sf := range safes {
			s.sync.Update(book.CollectionSafes, sf)
		}
	}
	return nil
}

func (s *service) GetTransaction(ctx context.Context, id int64) (book.Transaction, error) {
	return s.repo.TransactionByID(ctx, id)
}

func (s *service) ListTransactions(ctx context.Context) ([]book.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// normalize validates an edited transaction and recomputes derived totals.
func (s *service) normalize(trx *book.Transaction) error {
	if !trx.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", errs.ErrUnprocessable, trx.Kind)
	}
	if !trx.Currency.Valid() {
		return fmt.Errorf("%w: unknown currency %q", errs.ErrUnprocessable, trx.Currency)
	}
	if !book.ValidDate(trx.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", errs.ErrUnprocessable)
	}
	if trx.AccID == 0 {
		return fmt.Errorf("%w: customer is required", errs.ErrUnprocessable)
	}
	if trx.Kind.IsCash() && trx.SafeID == 0 {
		return fmt.Errorf("%w: safe is required", errs.ErrUnprocessable)
	}
	if trx.Kind.IsInvoice() {
		if len(trx.Items) == 0 {
			return fmt.Errorf("%w: items must not be empty", errs.ErrUnprocessable)
		}
		var total int64
		for i := range trx.Items {
			it := &trx.Items[i]
			if it.Name == "" {
				return fmt.Errorf("%w: item[%d]: name is required", errs.ErrUnprocessable, i)
			}
			if !it.Qty.IsPos() {
				return fmt.Errorf("%w: item[%d]: qty must be > 0", errs.ErrUnprocessable, i)
			}
			if it.PriceMinor < 0 {
				return fmt.Errorf("%w: item[%d]: price must be >= 0", errs.ErrUnprocessable, i)
			}
			lineTotal, err := it.ComputeTotal(trx.Currency)
			if err != nil {
				return fmt.Errorf("%w: item[%d]: %v", errs.ErrUnprocessable, i, err)
			}
			it.TotalMinor = lineTotal
			total += lineTotal
		}
		trx.TotalMinor = total
		trx.Desc = ""
		trx.Method = ""
		return nil
	}
	if trx.TotalMinor <= 0 {
		return fmt.Errorf("%w: amount must be > 0", errs.ErrUnprocessable)
	}
	if !trx.Method.Valid() {
		return fmt.Errorf("%w: unknown method %q", errs.ErrUnprocessable, trx.Method)
	}
	trx.Items = nil
	return nil
}

func customerValues(m map[int64]book.Customer) []book.Customer {
	out := make([]book.Customer, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func safeValues(m map[int64]book.Safe) []book.Safe {
	out := make([]book.Safe, 0, len(m))
	for _, sf := range m {
		out = append(out, sf)
	}
	return out
}
