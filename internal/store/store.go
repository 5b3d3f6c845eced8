package store

// Persister defines the durable backend behind a Collection.
type Persister[T any] interface {
	// Load returns the persisted records in order. An empty backend
	// returns no records and no error.
	Load() ([]T, error)
	// Save replaces the persisted records with records.
	Save(records []T) error
}

// Nop is a Persister that keeps nothing.
type Nop[T any] struct{}

// Load always returns no records.
func (Nop[T]) Load() ([]T, error) { return nil, nil }

// Save discards records.
func (Nop[T]) Save([]T) error { return nil }
