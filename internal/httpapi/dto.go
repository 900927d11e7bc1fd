package httpapi

import (
	"fmt"

	"github.com/govalues/decimal"

	"github.com/okalkan/defter/internal/book"
)

// --- Requests ---

type invoiceItemRequest struct {
	Name       string `json:"name"`
	Qty        string `json:"qty"`
	Unit       string `json:"unit,omitempty"`
	PriceMinor int64  `json:"price_minor"`
}

type createInvoiceRequest struct {
	CustomerID int64                `json:"customer_id"`
	Date       string               `json:"date"`
	Kind       string               `json:"kind"`
	Currency   string               `json:"currency"`
	Items      []invoiceItemRequest `json:"items"`
}

type cashMovementRequest struct {
	CustomerID  int64  `json:"customer_id"`
	SafeID      int64  `json:"safe_id"`
	Date        string `json:"date"`
	Direction   string `json:"direction"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Desc        string `json:"desc,omitempty"`
}

type editTransactionRequest struct {
	Date       string               `json:"date"`
	Kind       string               `json:"kind"`
	AccID      int64                `json:"acc_id"`
	SafeID     int64                `json:"safe_id,omitempty"`
	Currency   string               `json:"currency"`
	TotalMinor int64                `json:"total_minor,omitempty"`
	Items      []invoiceItemRequest `json:"items,omitempty"`
	Desc       string               `json:"desc,omitempty"`
	Method     string               `json:"method,omitempty"`
}

type customerRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type safeRequest struct {
	Name string `json:"name"`
}

type productRequest struct {
	Name               string `json:"name"`
	Type               string `json:"type"`
	Unit               string `json:"unit,omitempty"`
	Category           string `json:"category,omitempty"`
	PriceMinor         int64  `json:"price_minor"`
	PurchasePriceMinor int64  `json:"purchase_price_minor,omitempty"`
	Currency           string `json:"currency"`
}

// --- Responses ---

type balanceResponse struct {
	Minor     int64  `json:"minor"`
	Formatted string `json:"formatted"`
}

type itemResponse struct {
	Name       string `json:"name"`
	Qty        string `json:"qty"`
	Unit       string `json:"unit,omitempty"`
	PriceMinor int64  `json:"price_minor"`
	TotalMinor int64  `json:"total_minor"`
}

type transactionResponse struct {
	ID         int64          `json:"id"`
	Date       string         `json:"date"`
	Kind       string         `json:"kind"`
	AccID      int64          `json:"acc_id"`
	AccName    string         `json:"acc_name"`
	SafeID     int64          `json:"safe_id,omitempty"`
	Currency   string         `json:"currency"`
	TotalMinor int64          `json:"total_minor"`
	Total      string         `json:"total"`
	Items      []itemResponse `json:"items,omitempty"`
	Desc       string         `json:"desc,omitempty"`
	Method     string         `json:"method,omitempty"`
}

type customerResponse struct {
	ID       int64                      `json:"id"`
	Name     string                     `json:"name"`
	Type     string                     `json:"type"`
	Phone    string                     `json:"phone,omitempty"`
	Address  string                     `json:"address,omitempty"`
	Balances map[string]balanceResponse `json:"balances"`
}

type safeResponse struct {
	ID       int64                      `json:"id"`
	Name     string                     `json:"name"`
	Balances map[string]balanceResponse `json:"balances"`
}

type productResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Unit               string `json:"unit,omitempty"`
	Category           string `json:"category,omitempty"`
	PriceMinor         int64  `json:"price_minor"`
	Price              string `json:"price"`
	PurchasePriceMinor int64  `json:"purchase_price_minor,omitempty"`
	Currency           string `json:"currency"`
}

// --- Conversions ---

func toItemsDomain(items []invoiceItemRequest) ([]book.Item, error) {
	out := make([]book.Item, 0, len(items))
	for i, it := range items {
		qty, err := decimal.Parse(it.Qty)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: invalid qty %q", i, it.Qty)
		}
		out = append(out, book.Item{
			Name:       it.Name,
			Qty:        qty,
			Unit:       it.Unit,
			PriceMinor: it.PriceMinor,
		})
	}
	return out, nil
}

func toTransactionDomain(id int64, req editTransactionRequest) (book.Transaction, error) {
	items, err := toItemsDomain(req.Items)
	if err != nil {
		return book.Transaction{}, err
	}
	return book.Transaction{
		ID:         id,
		Date:       req.Date,
		Kind:       book.Kind(req.Kind),
		AccID:      req.AccID,
		SafeID:     req.SafeID,
		Currency:   book.Currency(req.Currency),
		TotalMinor: req.TotalMinor,
		Items:      items,
		Desc:       req.Desc,
		Method:     book.Method(req.Method),
	}, nil
}

func balancesOut(b book.Balances) map[string]balanceResponse {
	out := make(map[string]balanceResponse, len(b))
	for c, minor := range b {
		out[string(c)] = balanceResponse{Minor: minor, Formatted: book.FormatMinor(c, minor)}
	}
	return out
}

func toTransactionResponse(t book.Transaction) transactionResponse {
	items := make([]itemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, itemResponse{
			Name:       it.Name,
			Qty:        it.Qty.String(),
			Unit:       it.Unit,
			PriceMinor: it.PriceMinor,
			TotalMinor: it.TotalMinor,
		})
	}
	if len(items) == 0 {
		items = nil
	}
	return transactionResponse{
		ID:         t.ID,
		Date:       t.Date,
		Kind:       string(t.Kind),
		AccID:      t.AccID,
		AccName:    t.AccName,
		SafeID:     t.SafeID,
		Currency:   string(t.Currency),
		TotalMinor: t.TotalMinor,
		Total:      book.FormatMinor(t.Currency, t.TotalMinor),
		Items:      items,
		Desc:       t.Desc,
		Method:     string(t.Method),
	}
}

func toCustomerResponse(c book.Customer) customerResponse {
	return customerResponse{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		Phone:    c.Phone,
		Address:  c.Address,
		Balances: balancesOut(c.Balances),
	}
}

func toSafeResponse(sf book.Safe) safeResponse {
	return safeResponse{ID: sf.ID, Name: sf.Name, Balances: balancesOut(sf.Balances)}
}

func toProductResponse(p book.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Type:               string(p.Type),
		Unit:               p.Unit,
		Category:           p.Category,
		PriceMinor:         p.PriceMinor,
		Price:              book.FormatMinor(p.Currency, p.PriceMinor),
		PurchasePriceMinor: p.PurchasePriceMinor,
		Currency:           string(p.Currency),
	}
}
