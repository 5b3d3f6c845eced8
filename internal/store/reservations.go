package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devaloi/collections/internal/domain"
)

const reservationColumns = `
	SELECT r.id, c.name, c.email, r.room_no, r.checkin_date, r.checkout_date, r.no_guests
	FROM reservations r
	JOIN customers c ON c.id = r.cust_id`

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ReservationStore reads reservations joined with their customers.
type ReservationStore struct {
	db     *sql.DB
	driver string
}

// NewReservationStore returns a read-only reservation store.
func NewReservationStore(db *sql.DB, driver string) *ReservationStore {
	return &ReservationStore{db: db, driver: driver}
}

// List returns reservations ordered by id. A non-empty customer keeps only
// reservations whose customer name contains it, ignoring case.
func (s *ReservationStore) List(ctx context.Context, customer string) ([]domain.Reservation, error) {
	query := reservationColumns
	var args []any
	if customer = strings.TrimSpace(customer); customer != "" {
		query += ` WHERE LOWER(c.name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(customer))+"%")
	}
	query += " ORDER BY r.id"

	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// Get returns one reservation or domain.ErrNotFound.
func (s *ReservationStore) Get(ctx context.Context, id int) (domain.Reservation, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, reservationColumns+" WHERE r.id = ?"), id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		r       domain.Reservation
		in, out dateValue
	)
	err := s.Scan(&r.ID, &r.CustomerName, &r.Email, &r.RoomNo, &in, &out, &r.Guests)
	r.CheckInDate = string(in)
	r.CheckOutDate = string(out)
	return r, err
}

// dateValue scans DATE columns (time.Time from PostgreSQL) and TEXT
// columns (SQLite) into YYYY-MM-DD form.
type dateValue string

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = dateValue(v.Format(domain.DateLayout))
	case string:
		*d = dateValue(v)
	case []byte:
		*d = dateValue(v)
	case nil:
		*d = ""
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}
