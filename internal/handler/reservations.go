package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
)

// ReservationLister is the read side of the relational reservation store.
type ReservationLister interface {
	List(ctx context.Context, customer string) ([]domain.Reservation, error)
	Get(ctx context.Context, id int) (domain.Reservation, error)
}

// Reservations serves the relational customers/reservations listing.
type Reservations struct {
	store ReservationLister
	log   *zap.Logger
}

// NewReservations returns handlers over s.
func NewReservations(s ReservationLister, log *zap.Logger) *Reservations {
	return &Reservations{store: s, log: log.With(zap.String("resource", "reservations"))}
}

// Register adds the reservation routes to mux.
func (h *Reservations) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /reservations", h.List)
	mux.HandleFunc("GET /reservations/{id}", h.Get)
}

// List returns reservations, optionally filtered by ?customer=.
func (h *Reservations) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), r.URL.Query().Get("customer"))
	if err != nil {
		writeError(w, h.log, err, "", "Failed to list reservations")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get returns one reservation.
func (h *Reservations) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		var res domain.Reservation
		if res, err = h.store.Get(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}
	writeError(w, h.log, err, "Reservation not found", "Failed to read reservation")
}
