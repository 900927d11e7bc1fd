package httpapi

import (
	"net/http"

	"github.com/okalkan/defter/internal/book"
)

func (s *Server) postProduct(w http.ResponseWriter, r *http.Request) {
	p := r.Context().Value(ctxKeyProduct).(book.Product)
	saved, err := s.registrySvc.CreateProduct(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toProductResponse(saved))
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.registrySvc.ListProducts(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	p, err := s.registrySvc.GetProduct(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toProductResponse(p))
}

func (s *Server) patchProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	p := r.Context().Value(ctxKeyProduct).(book.Product)
	p.ID = id
	saved, err := s.registrySvc.UpdateProduct(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toProductResponse(saved))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r)
	if !ok {
		return
	}
	if err := s.registrySvc.DeleteProduct(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
