package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/devaloi/collections/internal/domain"
)

// TableStore persists a collection as JSON documents in the records table,
// one row per record, keyed by collection name.
type TableStore[T domain.Record[T]] struct {
	db         *sql.DB
	driver     string
	collection string
}

// NewTableStore returns a TableStore for collection. The records table must
// already exist (see Open).
func NewTableStore[T domain.Record[T]](db *sql.DB, driver, collection string) *TableStore[T] {
	return &TableStore[T]{db: db, driver: driver, collection: collection}
}

// Load returns the collection's records in saved order.
func (s *TableStore[T]) Load() ([]T, error) {
	rows, err := s.db.Query(
		rebind(s.driver, "SELECT body FROM records WHERE collection = ? ORDER BY position"),
		s.collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", s.collection, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Save replaces every row of the collection inside one transaction.
func (s *TableStore[T]) Save(records []T) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(rebind(s.driver, "DELETE FROM records WHERE collection = ?"), s.collection); err != nil {
		return err
	}
	stmt, err := tx.Prepare(rebind(s.driver,
		"INSERT INTO records (collection, position, id, body) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(s.collection, i, rec.GetID(), string(body)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
