package httpapi

import (
	"net/http"

	"github.com/okalkan/defter/internal/book"
)

func (s *Server) postSafe(w http.ResponseWriter, r *http.Request) {
	sf := r.Context().Value(ctxKeySafe).(book.Safe)
	saved, err := s.registrySvc.CreateSafe(r.Context(), sf)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toSafeResponse(saved))
}

func (s *Server) listSafes(w http.ResponseWriter, r *http.Request) {
	safes, err := s.registrySvc.ListSafes(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]safeResponse, 0, len(safes))
	for _, sf := range safes {
		out = append(out, toSafeResponse(sf))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getSafe(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	sf, err := s.registrySvc.GetSafe(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSafeResponse(sf))
}

func (s *Server) getSafeBalances(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	sf, err := s.registrySvc.GetSafe(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, balancesOut(sf.Balances))
}

func (s *Server) deleteSafe(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	if err := s.registrySvc.DeleteSafe(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
