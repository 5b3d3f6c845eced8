package store

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
)

// Observer is notified after a create or delete has been applied and
// persisted. event is domain.EventCreated or domain.EventDeleted.
type Observer[T any] func(event string, rec T)

// Collection is an ordered, id-addressable set of records of one type.
// Create and Delete hold the write lock across both the in-memory change
// and the write to the Persister.
type Collection[T domain.Record[T]] struct {
	name      string
	mu        sync.RWMutex
	items     []T
	highWater int
	persist   Persister[T]
	observers []Observer[T]
	log       *zap.Logger
}

// NewCollection loads the collection from p. When p holds no records the
// seed records are used instead; they are not written back until the
// first mutation. A nil p behaves like Nop.
//
// The high-water id is not persisted: it restarts from the largest loaded
// id, so an id deleted from the top before a restart can be assigned again.
func NewCollection[T domain.Record[T]](name string, p Persister[T], log *zap.Logger, seed ...T) (*Collection[T], error) {
	if p == nil {
		p = Nop[T]{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	items, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if len(items) == 0 {
		items = append([]T(nil), seed...)
	}

	c := &Collection[T]{
		name:    name,
		items:   items,
		persist: p,
		log:     log.With(zap.String("collection", name)),
	}
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		id := it.GetID()
		if seen[id] {
			return nil, fmt.Errorf("load %s: duplicate id %d", name, id)
		}
		seen[id] = true
		if id > c.highWater {
			c.highWater = id
		}
	}
	c.log.Info("collection loaded", zap.Int("records", len(items)))
	return c, nil
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Observe registers fn to be called after every successful mutation.
func (c *Collection[T]) Observe(fn Observer[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// List returns a copy of all records in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the record with the given id or domain.ErrNotFound.
func (c *Collection[T]) Get(id int) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, domain.ErrNotFound
}

// Create validates rec, assigns it the next id and appends it.
//
// If persisting fails the record stays in memory and is returned together
// with a *domain.PersistenceError.
func (c *Collection[T]) Create(rec T) (T, error) {
	if v, ok := any(rec).(domain.Validator); ok {
		if err := v.Validate(); err != nil {
			var zero T
			return zero, err
		}
	}

	c.mu.Lock()
	c.highWater++
	rec = rec.WithID(c.highWater)
	c.items = append(c.items, rec)
	err := c.save("create")
	observers := c.observers
	c.mu.Unlock()

	if err != nil {
		return rec, err
	}
	c.log.Debug("record created", zap.Int("id", rec.GetID()))
	notify(observers, domain.EventCreated, rec)
	return rec, nil
}

// Delete removes the record with the given id and returns it.
//
// If persisting fails the record is already gone from memory and is
// returned together with a *domain.PersistenceError.
func (c *Collection[T]) Delete(id int) (T, error) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		var zero T
		return zero, domain.ErrNotFound
	}
	rec := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	err := c.save("delete")
	observers := c.observers
	c.mu.Unlock()

	if err != nil {
		return rec, err
	}
	c.log.Debug("record deleted", zap.Int("id", id))
	notify(observers, domain.EventDeleted, rec)
	return rec, nil
}

// Filter returns, in order, the records for which match returns true.
func (c *Collection[T]) Filter(match func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, it := range c.items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Latest returns up to n of the most recently added records, newest first.
func (c *Collection[T]) Latest(n int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n > len(c.items) {
		n = len(c.items)
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, 0, n)
	for i := len(c.items) - 1; i >= len(c.items)-n; i-- {
		out = append(out, c.items[i])
	}
	return out
}

// Random returns a uniformly chosen record, or false if the collection is
// empty.
func (c *Collection[T]) Random() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 {
		var zero T
		return zero, false
	}
	return c.items[rand.IntN(len(c.items))], true
}

func (c *Collection[T]) indexOf(id int) int {
	for i, it := range c.items {
		if it.GetID() == id {
			return i
		}
	}
	return -1
}

// save must be called with c.mu held.
func (c *Collection[T]) save(op string) error {
	snapshot := make([]T, len(c.items))
	copy(snapshot, c.items)
	if err := c.persist.Save(snapshot); err != nil {
		c.log.Error("persist failed", zap.String("op", op), zap.Error(err))
		return &domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}

func notify[T any](observers []Observer[T], event string, rec T) {
	for _, fn := range observers {
		fn(event, rec)
	}
}
