package httpapi

import (
	"net/http"

	"github.com/okalkan/defter/internal/book"
)

func (s *Server) postCustomer(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(ctxKeyCustomer).(book.Customer)
	saved, err := s.registrySvc.CreateCustomer(r.Context(), c)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCustomerResponse(saved))
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.registrySvc.ListCustomers(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	c, err := s.registrySvc.GetCustomer(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (s *Server) getCustomerBalances(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	c, err := s.registrySvc.GetCustomer(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, balancesOut(c.Balances))
}

func (s *Server) patchCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	c := r.Context().Value(ctxKeyCustomer).(book.Customer)
	c.ID = id
	saved, err := s.registrySvc.UpdateCustomer(r.Context(), c)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(saved))
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	if err := s.registrySvc.DeleteCustomer(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
