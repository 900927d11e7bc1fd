package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/service/ledger"
)

type ctxKey string

const ctxKeyInvoice ctxKey = "validatedInvoice"
const ctxKeyCashMovement ctxKey = "validatedCashMovement"
const ctxKeyEditTransaction ctxKey = "validatedEditTransaction"
const ctxKeyCustomer ctxKey = "validatedCustomer"
const ctxKeySafe ctxKey = "validatedSafe"
const ctxKeyProduct ctxKey = "validatedProduct"

// validateCreateInvoice parses the POST /invoices body and stores the
// converted service input in the request context for the handler to use.
// Business validation stays in the service layer.
func (s *Server) validateCreateInvoice() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req createInvoiceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.CustomerID == 0 {
				badRequest(w, "customer_id is required")
				return
			}
			items, err := toItemsDomain(req.Items)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			in := ledger.InvoiceInput{
				CustomerID: req.CustomerID,
				Date:       req.Date,
				Kind:       book.Kind(req.Kind),
				Currency:   book.Currency(req.Currency),
				Items:      items,
			}
			ctx := context.WithValue(r.Context(), ctxKeyInvoice, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateCashMovement parses the POST /cash-movements body.
func (s *Server) validateCashMovement() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req cashMovementRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.CustomerID == 0 || req.SafeID == 0 {
				badRequest(w, "customer_id and safe_id are required")
				return
			}
			in := ledger.CashMovementInput{
				CustomerID:  req.CustomerID,
				SafeID:      req.SafeID,
				Date:        req.Date,
				AmountMinor: req.AmountMinor,
				Direction:   book.Direction(req.Direction),
				Currency:    book.Currency(req.Currency),
				Method:      book.Method(req.Method),
				Desc:        req.Desc,
			}
			ctx := context.WithValue(r.Context(), ctxKeyCashMovement, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateEditTransaction parses the PUT /transactions/{id} body into the
// full replacement transaction.
func (s *Server) validateEditTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			id, ok := idFromURL(w, r)
			if !ok {
				return
			}
			var req editTransactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			trx, err := toTransactionDomain(id, req)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyEditTransaction, trx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateCustomer parses a customer body for POST and PUT.
func (s *Server) validateCustomer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req customerRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			c := book.Customer{
				Name:    req.Name,
				Type:    book.CustomerType(req.Type),
				Phone:   req.Phone,
				Address: req.Address,
			}
			ctx := context.WithValue(r.Context(), ctxKeyCustomer, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateSafe parses a safe body for POST.
func (s *Server) validateSafe() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req safeRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySafe, book.Safe{Name: req.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateProduct parses a product body for POST and PUT.
func (s *Server) validateProduct() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req productRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			p := book.Product{
				Name:               req.Name,
				Type:               book.ProductType(req.Type),
				Unit:               req.Unit,
				Category:           req.Category,
				PriceMinor:         req.PriceMinor,
				PurchasePriceMinor: req.PurchasePriceMinor,
				Currency:           book.Currency(req.Currency),
			}
			ctx := context.WithValue(r.Context(), ctxKeyProduct, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
