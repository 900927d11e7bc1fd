package book

import (
	"errors"
	"time"

	"github.com/govalues/decimal"
	"github.com/govalues/money"
)

// Currency enumerates the three currencies the ledger tracks. Each currency
// is an independent running total; there is no conversion between them.
type Currency string

const (
	CurrencyTL  Currency = "TL"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Currencies lists every tracked currency in display order.
var Currencies = []Currency{CurrencyTL, CurrencyUSD, CurrencyEUR}

// Valid reports whether c is one of the tracked currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyTL, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// ISO returns the ISO 4217 code used for amount arithmetic and formatting.
// TL is the colloquial code for the Turkish lira.
func (c Currency) ISO() string {
	if c == CurrencyTL {
		return "TRY"
	}
	return string(c)
}

// Kind enumerates the four directional transaction kinds.
type Kind string

const (
	// KindSales is a sales invoice; the customer owes the business more.
	KindSales Kind = "sales"
	// KindPurchase is a purchase invoice; the business owes the customer more.
	KindPurchase Kind = "purchase"
	// KindCashIn records the customer paying the business into a safe.
	KindCashIn Kind = "cash_in"
	// KindCashOut records the business paying the customer out of a safe.
	KindCashOut Kind = "cash_out"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSales, KindPurchase, KindCashIn, KindCashOut:
		return true
	}
	return false
}

// IsInvoice reports whether k carries an item list.
func (k Kind) IsInvoice() bool { return k == KindSales || k == KindPurchase }

// IsCash reports whether k moves cash through a safe.
func (k Kind) IsCash() bool { return k == KindCashIn || k == KindCashOut }

// Direction is the caller-facing orientation of a cash movement.
type Direction string

const (
	// DirectionIn means the customer pays the business.
	DirectionIn Direction = "in"
	// DirectionOut means the business pays the customer.
	DirectionOut Direction = "out"
)

// Kind maps a direction onto the corresponding cash transaction kind.
func (d Direction) Kind() (Kind, error) {
	switch d {
	case DirectionIn:
		return KindCashIn, nil
	case DirectionOut:
		return KindCashOut, nil
	}
	return "", errors.New("direction must be in or out")
}

// Method enumerates payment instruments for cash movements.
type Method string

const (
	MethodCash             Method = "cash"
	MethodWire             Method = "wire"
	MethodCheck            Method = "check"
	MethodCard             Method = "card"
	MethodInternalTransfer Method = "internal-transfer"
)

// Valid reports whether m is a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodWire, MethodCheck, MethodCard, MethodInternalTransfer:
		return true
	}
	return false
}

// CustomerType classifies a customer's trading relationship with the business.
type CustomerType string

const (
	CustomerTypeBuyer    CustomerType = "buyer"
	CustomerTypeSupplier CustomerType = "supplier"
	CustomerTypeBoth     CustomerType = "both"
)

// Valid reports whether t is a known customer type.
func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeBuyer, CustomerTypeSupplier, CustomerTypeBoth:
		return true
	}
	return false
}

// ProductType classifies whether a product is sold, purchased, or both.
type ProductType string

const (
	ProductTypeSold      ProductType = "sold"
	ProductTypePurchased ProductType = "purchased"
	ProductTypeBoth      ProductType = "both"
)

// Valid reports whether t is a known product type.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeSold, ProductTypePurchased, ProductTypeBoth:
		return true
	}
	return false
}

// Balances maps each currency to a signed amount in minor units.
// A well-formed Balances always carries all three currency keys.
type Balances map[Currency]int64

// NewBalances returns a zero balance map with every currency key present.
func NewBalances() Balances {
	b := make(Balances, len(Currencies))
	for _, c := range Currencies {
		b[c] = 0
	}
	return b
}

// Clone returns an independent copy with every currency key present.
func (b Balances) Clone() Balances {
	out := NewBalances()
	for c, v := range b {
		out[c] = v
	}
	return out
}

// Add shifts the balance for currency c by delta minor units.
func (b Balances) Add(c Currency, delta int64) { b[c] += delta }

// Customer is a buyer, supplier, or both. The signed balance per currency is
// the net receivable from the customer: positive means the customer owes the
// business, negative means the business owes the customer.
type Customer struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Type     CustomerType `json:"type"`
	Phone    string       `json:"phone,omitempty"`
	Address  string       `json:"address,omitempty"`
	Balances Balances     `json:"balances"`
}

// Safe is a named cash register tracking literal cash on hand per currency.
// Balances are not clamped; a cash_out may drive a safe negative.
type Safe struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Balances Balances `json:"balances"`
}

// Product is catalog data consumed by invoice construction. It does not
// participate in balance accounting directly.
type Product struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               ProductType `json:"type"`
	Unit               string      `json:"unit"`
	Category           string      `json:"category,omitempty"`
	PriceMinor         int64       `json:"price_minor"`
	PurchasePriceMinor int64       `json:"purchase_price_minor,omitempty"`
	Currency           Currency    `json:"currency"`
}

// Item is a single invoice line. TotalMinor is derived from Qty and
// PriceMinor on every write; it is never independently stored truth.
type Item struct {
	Name       string          `json:"name"`
	Qty        decimal.Decimal `json:"qty"`
	Unit       string          `json:"unit"`
	PriceMinor int64           `json:"price_minor"`
	TotalMinor int64           `json:"total_minor"`
}

// ComputeTotal derives qty * price in minor units, rounded to the currency scale.
func (it Item) ComputeTotal(c Currency) (int64, error) {
	price, err := money.NewAmountFromMinorUnits(c.ISO(), it.PriceMinor)
	if err != nil {
		return 0, err
	}
	total, err := price.Mul(it.Qty)
	if err != nil {
		return 0, err
	}
	units, ok := total.RoundToCurr().MinorUnits()
	if !ok {
		return 0, errors.New("item total does not fit minor units")
	}
	return units, nil
}

// DateLayout is the ISO calendar date format for transaction dates.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is an ISO calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Transaction is the ledger record. TotalMinor is always stored positive;
// direction is implied by Kind. AccName is a copy of the customer name taken
// when the record is written and is never re-derived from the live customer.
type Transaction struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	Kind     Kind     `json:"kind"`
	AccID    int64    `json:"acc_id"`
	AccName  string   `json:"acc_name"`
	SafeID   int64    `json:"safe_id,omitempty"`
	Currency Currency `json:"currency"`
	// TotalMinor is the magnitude in minor units of the transaction currency.
	TotalMinor int64  `json:"total_minor"`
	Items      []Item `json:"items,omitempty"`
	Desc       string `json:"desc,omitempty"`
	Method     Method `json:"method,omitempty"`
}

// FormatMinor renders a minor-unit amount in the given currency, e.g. "TRY 10.00".
func FormatMinor(c Currency, minor int64) string {
	a, err := money.NewAmountFromMinorUnits(c.ISO(), minor)
	if err != nil {
		return ""
	}
	return a.String()
}
