package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database named by driver and creates the tables the
// stores need if they do not exist yet.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// OpenSQLite opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, err
	}
	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects to PostgreSQL. Only the records table is created;
// customers and reservations are expected to exist.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(recordsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return db, nil
}

const recordsTable = `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		position INTEGER NOT NULL,
		id INTEGER NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	)`

func createSQLiteTables(db *sql.DB) error {
	if _, err := db.Exec(recordsTable); err != nil {
		return err
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cust_id INTEGER NOT NULL REFERENCES customers(id),
			room_no INTEGER NOT NULL,
			checkin_date TEXT NOT NULL,
			checkout_date TEXT NOT NULL,
			no_guests INTEGER NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_reservations_cust ON reservations(cust_id);
	`)
	return err
}

// rebind rewrites "?" placeholders into the numbered form PostgreSQL uses.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
