package hub

import (
	"sync"

	"github.com/devaloi/collections/internal/domain"
)

// Client is the interface that hub/topic expects from a websocket client.
type Client interface {
	ID() string
	Send(data []byte)
}

// Feed supplies the records a client receives when it subscribes.
type Feed interface {
	Snapshot() any
}

// FeedFunc adapts a function to Feed.
type FeedFunc func() any

// Snapshot calls f.
func (f FeedFunc) Snapshot() any { return f() }

// Topic manages the subscribers of one collection and broadcasts its
// change events to them.
type Topic struct {
	name      string
	clients   map[Client]bool
	mu        sync.RWMutex
	broadcast chan []byte
	feed      Feed
	quit      chan struct{}
}

// NewTopic creates a topic. feed may be nil.
func NewTopic(name string, feed Feed) *Topic {
	return &Topic{
		name:      name,
		clients:   make(map[Client]bool),
		broadcast: make(chan []byte, 256),
		feed:      feed,
		quit:      make(chan struct{}),
	}
}

// Run starts the topic's broadcast loop. Should be called as a goroutine.
func (t *Topic) Run() {
	for {
		select {
		case msg := <-t.broadcast:
			t.mu.RLock()
			for c := range t.clients {
				c.Send(msg)
			}
			t.mu.RUnlock()
		case <-t.quit:
			return
		}
	}
}

// Stop signals the topic's broadcast loop to exit.
func (t *Topic) Stop() {
	close(t.quit)
}

// Join adds a client and sends it the current snapshot.
func (t *Topic) Join(c Client) {
	t.mu.Lock()
	t.clients[c] = true
	t.mu.Unlock()

	if t.feed == nil {
		return
	}
	snap := domain.SnapshotEvent{
		Type:    domain.EventSnapshot,
		Topic:   t.name,
		Records: t.feed.Snapshot(),
	}
	if data, err := domain.Encode(snap); err == nil {
		c.Send(data)
	}
}

// Leave removes a client.
func (t *Topic) Leave(c Client) {
	t.mu.Lock()
	delete(t.clients, c)
	t.mu.Unlock()
}

// Broadcast sends a raw JSON event to all subscribers.
func (t *Topic) Broadcast(data []byte) {
	select {
	case t.broadcast <- data:
	case <-t.quit:
	}
}

// ClientCount returns the number of subscribers.
func (t *Topic) ClientCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// Name returns the topic name.
func (t *Topic) Name() string {
	return t.name
}
