package testutil

import (
	"sync"
)

// MockClient implements hub.Conn for testing.
type MockClient struct {
	Name     string
	messages [][]byte
	closed   bool
	mu       sync.Mutex
}

// NewMockClient creates a new MockClient with the given id.
func NewMockClient(name string) *MockClient {
	return &MockClient{Name: name}
}

// ID returns the mock client's id.
func (m *MockClient) ID() string { return m.Name }

// Send records a message sent to the mock client.
func (m *MockClient) Send(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
}

// GetMessages returns a copy of all messages received by the mock client.
func (m *MockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.messages))
	copy(cp, m.messages)
	return cp
}

// Close marks the mock client closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MemoryPersister implements store.Persister in memory. Setting FailWith
// makes every Save fail with that error.
type MemoryPersister[T any] struct {
	mu       sync.Mutex
	records  []T
	saves    int
	FailWith error
}

// NewMemoryPersister creates a MemoryPersister holding records.
func NewMemoryPersister[T any](records ...T) *MemoryPersister[T] {
	return &MemoryPersister[T]{records: records}
}

// Load returns a copy of the held records.
func (p *MemoryPersister[T]) Load() ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.records...), nil
}

// Save replaces the held records unless FailWith is set.
func (p *MemoryPersister[T]) Save(records []T) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.records = append([]T(nil), records...)
	p.saves++
	return nil
}

// Fail sets or clears the error returned by Save.
func (p *MemoryPersister[T]) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FailWith = err
}

// Records returns what the last successful Save wrote.
func (p *MemoryPersister[T]) Records() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.records...)
}

// Saves returns the number of successful saves.
func (p *MemoryPersister[T]) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
