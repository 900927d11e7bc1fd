package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type trxResp struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	AccID      int64  `json:"acc_id"`
	AccName    string `json:"acc_name"`
	SafeID     int64  `json:"safe_id"`
	Currency   string `json:"currency"`
	TotalMinor int64  `json:"total_minor"`
	Total      string `json:"total"`
	Items      []struct {
		Name       string `json:"name"`
		Qty        string `json:"qty"`
		PriceMinor int64  `json:"price_minor"`
		TotalMinor int64  `json:"total_minor"`
	} `json:"items"`
}

type custResp struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balances map[string]struct {
		Minor     int64  `json:"minor"`
		Formatted string `json:"formatted"`
	} `json:"balances"`
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, http.Handler, book.Customer, book.Safe) {
	t.Helper()
	store := memory.New()
	cust := book.Customer{ID: 1, Name: "Aslan Market", Type: book.CustomerTypeBuyer, Balances: book.NewBalances()}
	safe := book.Safe{ID: 2, Name: "Main Safe", Balances: book.NewBalances()}
	store.SeedCustomer(cust)
	store.SeedSafe(safe)
	h := New(store, nil, testLogger()).Handler()
	return store, h, cust, safe
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return v
}

func TestPostInvoice_ValidAndInvalid(t *testing.T) {
	_, h, cust, _ := setup(t)

	body := map[string]any{
		"customer_id": cust.ID,
		"date":        "2025-03-02",
		"kind":        "sales",
		"currency":    "TL",
		"items": []map[string]any{
			{"name": "Flour", "qty": "2.5", "price_minor": 1050},
			{"name": "Sugar", "qty": "1", "price_minor": 2000},
		},
	}
	rec := doJSON(t, h, http.MethodPost, "/v1/invoices", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	trx := decode[trxResp](t, rec)
	if trx.TotalMinor != 2625+2000 {
		t.Errorf("total_minor = %d, want 4625", trx.TotalMinor)
	}
	if trx.AccName != cust.Name {
		t.Errorf("acc_name = %q, want %q", trx.AccName, cust.Name)
	}
	if len(trx.Items) != 2 || trx.Items[0].TotalMinor != 2625 {
		t.Errorf("items = %+v", trx.Items)
	}

	// balance reflects the invoice
	rec = doJSON(t, h, http.MethodGet, "/v1/customers/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get customer status = %d", rec.Code)
	}
	got := decode[custResp](t, rec)
	if got.Balances["TL"].Minor != 4625 {
		t.Errorf("TL balance = %d, want 4625", got.Balances["TL"].Minor)
	}

	// unknown customer aborts with 404 before mutating
	body["customer_id"] = 99
	rec = doJSON(t, h, http.MethodPost, "/v1/invoices", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing customer status = %d, want 404", rec.Code)
	}

	// empty items rejected
	body["customer_id"] = cust.ID
	body["items"] = []map[string]any{}
	rec = doJSON(t, h, http.MethodPost, "/v1/invoices", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty items status = %d, want 422", rec.Code)
	}
	er := decode[errResp](t, rec)
	if er.Code != "validation_error" {
		t.Errorf("error code = %q", er.Code)
	}
}

func TestCashMovementLifecycle(t *testing.T) {
	_, h, cust, safe := setup(t)

	// sales invoice puts the customer at 1000 TL
	inv := map[string]any{
		"customer_id": cust.ID,
		"date":        "2025-03-02",
		"kind":        "sales",
		"currency":    "TL",
		"items":       []map[string]any{{"name": "Bread", "qty": "1", "price_minor": 1000}},
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/invoices", inv); rec.Code != http.StatusCreated {
		t.Fatalf("invoice: %d %s", rec.Code, rec.Body.String())
	}

	// cash in 400 TL
	cash := map[string]any{
		"customer_id":  cust.ID,
		"safe_id":      safe.ID,
		"date":         "2025-03-03",
		"direction":    "in",
		"amount_minor": 400,
		"currency":     "TL",
		"method":       "cash",
	}
	rec := doJSON(t, h, http.MethodPost, "/v1/cash-movements", cash)
	if rec.Code != http.StatusCreated {
		t.Fatalf("cash movement: %d %s", rec.Code, rec.Body.String())
	}
	movement := decode[trxResp](t, rec)
	if movement.Kind != "cash_in" || movement.SafeID != safe.ID {
		t.Errorf("movement = %+v", movement)
	}

	got := decode[custResp](t, doJSON(t, h, http.MethodGet, "/v1/customers/1", nil))
	if got.Balances["TL"].Minor != 600 {
		t.Errorf("customer TL = %d, want 600", got.Balances["TL"].Minor)
	}
	sf := decode[custResp](t, doJSON(t, h, http.MethodGet, "/v1/safes/2", nil))
	if sf.Balances["TL"].Minor != 400 {
		t.Errorf("safe TL = %d, want 400", sf.Balances["TL"].Minor)
	}

	// delete reverts both sides
	rec = doJSON(t, h, http.MethodDelete, "/v1/transactions/"+itoa(movement.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	got = decode[custResp](t, doJSON(t, h, http.MethodGet, "/v1/customers/1", nil))
	if got.Balances["TL"].Minor != 1000 {
		t.Errorf("customer TL after delete = %d, want 1000", got.Balances["TL"].Minor)
	}
	sf = decode[custResp](t, doJSON(t, h, http.MethodGet, "/v1/safes/2", nil))
	if sf.Balances["TL"].Minor != 0 {
		t.Errorf("safe TL after delete = %d, want 0", sf.Balances["TL"].Minor)
	}

	// second delete is a no-op
	rec = doJSON(t, h, http.MethodDelete, "/v1/transactions/"+itoa(movement.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("second delete: %d, want 204", rec.Code)
	}
}

func TestPutTransactionEditsTotal(t *testing.T) {
	_, h, cust, _ := setup(t)

	inv := map[string]any{
		"customer_id": cust.ID,
		"date":        "2025-03-02",
		"kind":        "sales",
		"currency":    "TL",
		"items":       []map[string]any{{"name": "Bread", "qty": "1", "price_minor": 1000}},
	}
	created := decode[trxResp](t, doJSON(t, h, http.MethodPost, "/v1/invoices", inv))

	edit := map[string]any{
		"date":     created.Date,
		"kind":     created.Kind,
		"acc_id":   created.AccID,
		"currency": created.Currency,
		"items":    []map[string]any{{"name": "Bread", "qty": "1", "price_minor": 1500}},
	}
	rec := doJSON(t, h, http.MethodPut, "/v1/transactions/"+itoa(created.ID), edit)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[trxResp](t, rec)
	if updated.TotalMinor != 1500 {
		t.Errorf("total after edit = %d, want 1500", updated.TotalMinor)
	}

	got := decode[custResp](t, doJSON(t, h, http.MethodGet, "/v1/customers/1", nil))
	if got.Balances["TL"].Minor != 1500 {
		t.Errorf("balance after edit = %d, want 1500", got.Balances["TL"].Minor)
	}

	// editing an absent transaction is 404
	rec = doJSON(t, h, http.MethodPut, "/v1/transactions/777", edit)
	if rec.Code != http.StatusNotFound {
		t.Errorf("edit missing: %d, want 404", rec.Code)
	}
}

func TestListTransactionsOrdered(t *testing.T) {
	_, h, cust, _ := setup(t)

	for _, date := range []string{"2025-03-05", "2025-03-01"} {
		inv := map[string]any{
			"customer_id": cust.ID,
			"date":        date,
			"kind":        "sales",
			"currency":    "TL",
			"items":       []map[string]any{{"name": "Bread", "qty": "1", "price_minor": 100}},
		}
		if rec := doJSON(t, h, http.MethodPost, "/v1/invoices", inv); rec.Code != http.StatusCreated {
			t.Fatalf("invoice: %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/transactions", nil)
	list := decode[[]trxResp](t, rec)
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Date != "2025-03-01" || list[1].Date != "2025-03-05" {
		t.Errorf("order = %s, %s", list[0].Date, list[1].Date)
	}
}

func TestCustomerCRUD(t *testing.T) {
	_, h, _, _ := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/customers", map[string]any{"name": "Yilmaz Tekstil", "type": "supplier"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[custResp](t, rec)
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.Balances["TL"].Minor != 0 || created.Balances["USD"].Minor != 0 {
		t.Errorf("expected zero balances, got %+v", created.Balances)
	}

	// missing name rejected
	rec = doJSON(t, h, http.MethodPost, "/v1/customers", map[string]any{"type": "buyer"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing name: %d, want 422", rec.Code)
	}

	// update keeps stored balances
	rec = doJSON(t, h, http.MethodPatch, "/v1/customers/"+itoa(created.ID), map[string]any{"name": "Yilmaz Tekstil A.S.", "type": "supplier"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[custResp](t, rec)
	if updated.Name != "Yilmaz Tekstil A.S." {
		t.Errorf("name = %q", updated.Name)
	}

	rec = doJSON(t, h, http.MethodDelete, "/v1/customers/"+itoa(created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/customers/"+itoa(created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: %d, want 404", rec.Code)
	}
}

func TestProductCRUD(t *testing.T) {
	_, h, _, _ := setup(t)

	body := map[string]any{"name": "Flour", "type": "sold", "unit": "kg", "price_minor": 1050, "currency": "TL"}
	rec := doJSON(t, h, http.MethodPost, "/v1/products", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		ID    int64  `json:"id"`
		Price string `json:"price"`
	}](t, rec)
	if created.ID == 0 || created.Price == "" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/products", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}

	body["price_minor"] = 1200
	rec = doJSON(t, h, http.MethodPatch, "/v1/products/"+itoa(created.ID), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[struct {
		PriceMinor int64 `json:"price_minor"`
	}](t, rec)
	if updated.PriceMinor != 1200 {
		t.Errorf("price after patch = %d, want 1200", updated.PriceMinor)
	}
}

func TestBadRequests(t *testing.T) {
	_, h, cust, _ := setup(t)

	// non-numeric id
	rec := doJSON(t, h, http.MethodGet, "/v1/transactions/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: %d, want 400", rec.Code)
	}

	// malformed qty
	inv := map[string]any{
		"customer_id": cust.ID,
		"date":        "2025-03-02",
		"kind":        "sales",
		"currency":    "TL",
		"items":       []map[string]any{{"name": "Bread", "qty": "one", "price_minor": 100}},
	}
	rec = doJSON(t, h, http.MethodPost, "/v1/invoices", inv)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad qty: %d, want 400", rec.Code)
	}

	// unknown fields rejected
	rec = doJSON(t, h, http.MethodPost, "/v1/customers", map[string]any{"name": "X", "type": "buyer", "bogus": true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field: %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, h, _, _ := setup(t)
	if rec := doJSON(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz: %d", rec.Code)
	}
}

func TestAuthGate(t *testing.T) {
	t.Setenv("SESSION_TOKEN", "sekrit")
	store := memory.New()
	h := New(store, nil, testLogger()).Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/transactions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with token: %d, want 200", rr.Code)
	}

	// health stays open
	if rec := doJSON(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz gated: %d", rec.Code)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
