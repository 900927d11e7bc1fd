// Package remote talks to the mirror endpoints that keep a best-effort remote
// copy of the book. Pushes are fire-and-forget from the caller's perspective;
// local state stays authoritative when the remote is unreachable.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okalkan/defter/internal/book"
)

// Mode selects which remote endpoint a client mirrors to.
type Mode string

const (
	ModeAccounting Mode = "accounting"
	ModeStore      Mode = "store"
)

// Client is a synchronous HTTP client for one remote endpoint. Wrap it in
// Async to get the fire-and-forget behaviour the services expect.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient builds a client for the endpoint base URL.
func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: timeout},
	}
}

// wireRecord is the transport shape of a remote record. Identity may arrive
// as a number or a numeric string, and the nested balances/items fields may
// have been flattened to JSON text for transport.
type wireRecord struct {
	ID       json.Number     `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Phone    string          `json:"phone"`
	Address  string          `json:"address"`
	Unit     string          `json:"unit"`
	Category string          `json:"category"`
	Balances json.RawMessage `json:"balances"`

	PriceMinor         int64  `json:"price_minor"`
	PurchasePriceMinor int64  `json:"purchase_price_minor"`
	Currency           string `json:"currency"`

	Date       string          `json:"date"`
	Kind       string          `json:"kind"`
	AccID      json.Number     `json:"acc_id"`
	AccName    string          `json:"acc_name"`
	SafeID     json.Number     `json:"safe_id"`
	TotalMinor int64           `json:"total_minor"`
	Items      json.RawMessage `json:"items"`
	Desc       string          `json:"desc"`
	Method     string          `json:"method"`
}

type wirePayload struct {
	Customers    []wireRecord `json:"customers"`
	Products     []wireRecord `json:"products"`
	Safes        []wireRecord `json:"safes"`
	Transactions []wireRecord `json:"transactions"`
}

// FetchAll downloads the four collections from the remote. Records with a
// non-numeric, zero, or missing identity, or a missing name, are dropped as
// invalid rather than failing the whole fetch.
func (c *Client) FetchAll(ctx context.Context) (book.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/all", nil)
	if err != nil {
		return book.Snapshot{}, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return book.Snapshot{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return book.Snapshot{}, fmt.Errorf("remote fetch: unexpected status %d", resp.StatusCode)
	}
	var payload wirePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return book.Snapshot{}, fmt.Errorf("remote fetch: decode: %w", err)
	}

	var snap book.Snapshot
	for _, w := range payload.Customers {
		id, ok := recordIdentity(w.ID)
		if !ok || w.Name == "" {
			continue
		}
		cust := book.Customer{
			ID:      id,
			Name:    w.Name,
			Type:    book.CustomerType(w.Type),
			Phone:   w.Phone,
			Address: w.Address,
		}
		cust.Balances = parseBalances(w.Balances)
		snap.Customers = append(snap.Customers, cust)
	}
	for _, w := range payload.Products {
		id, ok := recordIdentity(w.ID)
		if !ok || w.Name == "" {
			continue
		}
		snap.Products = append(snap.Products, book.Product{
			ID:                 id,
			Name:               w.Name,
			Type:               book.ProductType(w.Type),
			Unit:               w.Unit,
			Category:           w.Category,
			PriceMinor:         w.PriceMinor,
			PurchasePriceMinor: w.PurchasePriceMinor,
			Currency:           book.Currency(w.Currency),
		})
	}
	for _, w := range payload.Safes {
		id, ok := recordIdentity(w.ID)
		if !ok || w.Name == "" {
			continue
		}
		sf := book.Safe{ID: id, Name: w.Name}
		sf.Balances = parseBalances(w.Balances)
		snap.Safes = append(snap.Safes, sf)
	}
	for _, w := range payload.Transactions {
		id, ok := recordIdentity(w.ID)
		if !ok {
			continue
		}
		accID, _ := recordIdentity(w.AccID)
		safeID, _ := recordIdentity(w.SafeID)
		trx := book.Transaction{
			ID:         id,
			Date:       w.Date,
			Kind:       book.Kind(w.Kind),
			AccID:      accID,
			AccName:    w.AccName,
			SafeID:     safeID,
			Currency:   book.Currency(w.Currency),
			TotalMinor: w.TotalMinor,
			Desc:       w.Desc,
			Method:     book.Method(w.Method),
		}
		if raw := unflatten(w.Items); len(raw) > 0 {
			_ = json.Unmarshal(raw, &trx.Items)
		}
		snap.Transactions = append(snap.Transactions, trx)
	}
	return snap, nil
}

// Create pushes a new record to the remote collection.
func (c *Client) Create(ctx context.Context, collection string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, fmt.Sprintf("%s/%s", c.base, collection), body)
}

// Update replaces the remote record identified by the record's own id.
func (c *Client) Update(ctx context.Context, collection string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}
	id, err := idFromBody(body)
	if err != nil {
		return fmt.Errorf("remote update %s: %w", collection, err)
	}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("%s/%s/%d", c.base, collection, id), body)
}

// Delete removes the remote record by id.
func (c *Client) Delete(ctx context.Context, collection string, id int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("%s/%s/%d", c.base, collection, id), nil)
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote %s %s: unexpected status %d", method, url, resp.StatusCode)
	}
	return nil
}

// recordIdentity reports the numeric identity of a wire id. Zero, missing,
// and non-numeric ids are invalid.
func recordIdentity(n json.Number) (int64, bool) {
	if n.String() == "" {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// unflatten undoes transport flattening: when the field arrived as a JSON
// string containing JSON, the inner document is returned.
func unflatten(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		if inner == "" {
			return nil
		}
		return json.RawMessage(inner)
	}
	return raw
}

func parseBalances(raw json.RawMessage) book.Balances {
	b := book.NewBalances()
	if inner := unflatten(raw); len(inner) > 0 {
		_ = json.Unmarshal(inner, &b)
	}
	return b
}

func idFromBody(body []byte) (int64, error) {
	var probe struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return 0, err
	}
	id, ok := recordIdentity(probe.ID)
	if !ok {
		return 0, fmt.Errorf("record has no usable id")
	}
	return id, nil
}
