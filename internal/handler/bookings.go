package handler

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/store"
)

// Bookings serves the hotel booking collection.
type Bookings struct {
	col     *store.Collection[domain.Booking]
	maxBody int64
	log     *zap.Logger
}

// NewBookings returns handlers over col.
func NewBookings(col *store.Collection[domain.Booking], maxBody int64, log *zap.Logger) *Bookings {
	return &Bookings{col: col, maxBody: maxBody, log: log.With(zap.String("resource", "bookings"))}
}

// Register adds the booking routes to mux.
func (b *Bookings) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /bookings", b.List)
	mux.HandleFunc("GET /bookings/search", b.Search)
	mux.HandleFunc("GET /bookings/{id}", b.Get)
	mux.HandleFunc("POST /bookings", b.Create)
	mux.HandleFunc("DELETE /bookings/{id}", b.Delete)
}

// List returns every booking.
func (b *Bookings) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.col.List())
}

// Get returns one booking by id.
func (b *Bookings) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		var booking domain.Booking
		if booking, err = b.col.Get(id); err == nil {
			writeJSON(w, http.StatusOK, booking)
			return
		}
	}
	writeError(w, b.log, err, "Booking not found", "Failed to read booking")
}

// Create validates and stores a new booking. Any id in the body is
// ignored.
func (b *Bookings) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Booking
	if err := decodeJSON(w, r, b.maxBody, &in); err != nil {
		writeError(w, b.log, err, "", "Failed to save booking")
		return
	}
	booking, err := b.col.Create(in)
	if err != nil {
		writeError(w, b.log, err, "", "Failed to save booking")
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// Delete removes a booking and returns it.
func (b *Bookings) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		var booking domain.Booking
		if booking, err = b.col.Delete(id); err == nil {
			writeJSON(w, http.StatusOK, booking)
			return
		}
	}
	writeError(w, b.log, err, "Booking not found", "Failed to delete booking")
}

// Search filters by ?term= (email, first name or surname) and/or ?date=
// (a day within the stay). At least one is required; both must match when
// both are given.
func (b *Bookings) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("term"))
	rawDate := strings.TrimSpace(q.Get("date"))
	if term == "" && rawDate == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Query parameter 'term' or 'date' is required")
		return
	}

	var day time.Time
	if rawDate != "" {
		var err error
		if day, err = domain.ParseDate(rawDate); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "Query parameter 'date' must be in YYYY-MM-DD format")
			return
		}
	}

	writeJSON(w, http.StatusOK, b.col.Filter(func(bk domain.Booking) bool {
		if term != "" && !bk.MatchesTerm(term) {
			return false
		}
		return rawDate == "" || bk.Covers(day)
	}))
}
