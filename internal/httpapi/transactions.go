package httpapi

import (
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"github.com/okalkan/defter/internal/book"
	"github.com/okalkan/defter/internal/service/ledger"
)

// idFromURL parses the {id} route parameter. Writes a 400 and returns false
// when the value is not a positive integer.
func idFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) postInvoice(w http.ResponseWriter, r *http.Request) {
	in := r.Context().Value(ctxKeyInvoice).(ledger.InvoiceInput)
	trx, err := s.ledgerSvc.CreateInvoice(r.Context(), in)
	countLedgerOp("create_invoice", err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toTransactionResponse(trx))
}

func (s *Server) postCashMovement(w http.ResponseWriter, r *http.Request) {
	in := r.Context().Value(ctxKeyCashMovement).(ledger.CashMovementInput)
	trx, err := s.ledgerSvc.RecordCashMovement(r.Context(), in)
	countLedgerOp("record_cash_movement", err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toTransactionResponse(trx))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	trxs, err := s.ledgerSvc.ListTransactions(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(trxs))
	for _, t := range trxs {
		out = append(out, toTransactionResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	trx, err := s.ledgerSvc.GetTransaction(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(trx))
}

func (s *Server) putTransaction(w http.ResponseWriter, r *http.Request) {
	trx := r.Context().Value(ctxKeyEditTransaction).(book.Transaction)
	saved, err := s.ledgerSvc.EditTransaction(r.Context(), trx)
	countLedgerOp("edit_transaction", err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(saved))
}

// deleteTransaction is idempotent: deleting an absent id succeeds.
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	err := s.ledgerSvc.DeleteTransaction(r.Context(), id)
	countLedgerOp("delete_transaction", err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
