package handler

import (
	"net/http"
	"strings"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/store"
)

// Quotes serves the read-only quote collection.
type Quotes struct {
	col *store.Collection[domain.Quote]
}

// NewQuotes returns handlers over col.
func NewQuotes(col *store.Collection[domain.Quote]) *Quotes {
	return &Quotes{col: col}
}

// Register adds the quote routes to mux.
func (q *Quotes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /quotes", q.List)
	mux.HandleFunc("GET /quotes/random", q.Random)
	mux.HandleFunc("GET /quotes/search", q.Search)
	mux.HandleFunc("GET /quote", q.Random)
}

// List returns every quote.
func (q *Quotes) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, q.col.List())
}

// Random returns one quote picked uniformly at random.
func (q *Quotes) Random(w http.ResponseWriter, r *http.Request) {
	quote, ok := q.col.Random()
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "No quotes available")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// Search returns the quotes whose text or author contains ?term=,
// ignoring case.
func (q *Quotes) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if strings.TrimSpace(term) == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Query parameter 'term' is required")
		return
	}
	writeJSON(w, http.StatusOK, q.col.Filter(func(quote domain.Quote) bool {
		return quote.MatchesTerm(term)
	}))
}
