package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/quoteengine/internal/catalog"
	"github.com/Simplici0/quoteengine/internal/catalog/store"
	"github.com/Simplici0/quoteengine/internal/pricing"
	"github.com/Simplici0/quoteengine/internal/quote"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type calculateRequest struct {
	Configuration catalog.Configuration `json:"configuration"`
	Quantity      *float64              `json:"quantity"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	valid, err := s.auth.validateCredentials(r.Context(), email, req.Password)
	if err != nil {
		s.internalError(w, r, "authentication error", err)
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas. Intenta de nuevo.")
		return
	}

	u, _, err := s.auth.lookupUser(r.Context(), email)
	if err != nil {
		s.internalError(w, r, "authentication error", err)
		return
	}

	s.auth.setSessionCookie(w, email)
	writeData(w, http.StatusOK, u)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context(), store.ListFilter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		s.internalError(w, r, "failed to load products", err)
		return
	}
	writeData(w, http.StatusOK, products)
}

func (s *server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "failed to load product", err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = ""

	if err := s.products.Create(r.Context(), &p); err != nil {
		s.writeServiceError(w, r, "failed to create product", err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (s *server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")

	if err := s.products.Update(r.Context(), &p); err != nil {
		s.writeServiceError(w, r, "failed to update product", err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, "failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCalculate prices one configuration of a product. Pricing warnings are
// returned inside the result, never as an HTTP error.
func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "failed to load product", err)
		return
	}

	writeData(w, http.StatusOK, pricing.Calculate(p, req.Configuration, quantity))
}

// parseQuantity defaults a missing quantity to one.
func parseQuantity(raw *float64) (float64, error) {
	if raw == nil {
		return 1, nil
	}
	if *raw < 0 {
		return 0, fmt.Errorf("quantity must be >= 0")
	}
	return *raw, nil
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, r, "failed to load quotes", err)
		return
	}
	writeData(w, http.StatusOK, quotes)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var in quote.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := s.quotes.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, "failed to create quote", err)
		return
	}
	writeData(w, http.StatusCreated, q)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "failed to load quote", err)
		return
	}
	writeData(w, http.StatusOK, q)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, "failed to load quote", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quote.Text(q)))
}
