package hub

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
)

// SubscribeRequest asks the hub to add a client to a topic.
type SubscribeRequest struct {
	Client Client
	Topic  string
}

// UnsubscribeRequest asks the hub to remove a client from a topic.
type UnsubscribeRequest struct {
	Client Client
	Topic  string
}

// Conn is a live connection the hub closes when it stops.
type Conn interface {
	Client
	Close() error
}

// Hub owns the change feed topics and routes subscriptions and events.
type Hub struct {
	topics      map[string]*Topic
	mu          sync.RWMutex
	subscribe   chan SubscribeRequest
	unsubscribe chan UnsubscribeRequest
	publish     chan domain.Event
	quit        chan struct{}
	log         *zap.Logger

	connMu  sync.Mutex
	conns   map[Conn]struct{}
	stopped bool
	live    sync.WaitGroup
}

// New creates a new Hub.
func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		topics:      make(map[string]*Topic),
		subscribe:   make(chan SubscribeRequest, 256),
		unsubscribe: make(chan UnsubscribeRequest, 256),
		publish:     make(chan domain.Event, 256),
		quit:        make(chan struct{}),
		log:         log,
		conns:       make(map[Conn]struct{}),
	}
}

// AddTopic registers a topic and starts its broadcast loop. Adding an
// existing topic is a no-op.
func (h *Hub) AddTopic(name string, feed Feed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topics[name]; ok {
		return
	}
	t := NewTopic(name, feed)
	h.topics[name] = t
	go t.Run()
	h.log.Info("topic added", zap.String("topic", name))
}

// Run starts the hub's main event loop. Should be called as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case req := <-h.subscribe:
			h.handleSubscribe(req)
		case req := <-h.unsubscribe:
			h.handleUnsubscribe(req)
		case ev := <-h.publish:
			h.handlePublish(ev)
		case <-h.quit:
			return
		}
	}
}

// Stop signals the hub's event loop to exit and stops all topics. It then
// closes every tracked connection and waits until each has been untracked.
func (h *Hub) Stop() {
	close(h.quit)
	h.mu.Lock()
	for _, t := range h.topics {
		t.Stop()
	}
	h.mu.Unlock()

	h.connMu.Lock()
	h.stopped = true
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.connMu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	h.live.Wait()
}

// Track registers a live connection. It returns false once the hub has
// stopped; the caller must then close the connection itself.
func (h *Hub) Track(c Conn) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.stopped {
		return false
	}
	h.conns[c] = struct{}{}
	h.live.Add(1)
	return true
}

// Untrack releases a connection registered with Track.
func (h *Hub) Untrack(c Conn) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		h.live.Done()
	}
}

// Subscribe queues a subscription request.
func (h *Hub) Subscribe(client Client, topic string) {
	select {
	case h.subscribe <- SubscribeRequest{Client: client, Topic: topic}:
	case <-h.quit:
	}
}

// Unsubscribe queues an unsubscription request.
func (h *Hub) Unsubscribe(client Client, topic string) {
	select {
	case h.unsubscribe <- UnsubscribeRequest{Client: client, Topic: topic}:
	case <-h.quit:
	}
}

// Publish queues a change event for topic.
func (h *Hub) Publish(topic, eventType string, record any) {
	select {
	case h.publish <- domain.Event{Type: eventType, Topic: topic, Record: record}:
	case <-h.quit:
	}
}

// ListTopics returns info about all topics, sorted by name.
func (h *Hub) ListTopics() []domain.TopicInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	topics := make([]domain.TopicInfo, 0, len(h.topics))
	for _, t := range h.topics {
		topics = append(topics, domain.TopicInfo{
			Name:        t.Name(),
			Subscribers: t.ClientCount(),
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics
}

// TopicInfo returns details about a specific topic, or nil if not found.
func (h *Hub) TopicInfo(name string) *domain.TopicInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.topics[name]
	if !ok {
		return nil
	}
	return &domain.TopicInfo{
		Name:        t.Name(),
		Subscribers: t.ClientCount(),
	}
}

func (h *Hub) lookup(name string) (*Topic, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.topics[name]
	return t, ok
}

func (h *Hub) handleSubscribe(req SubscribeRequest) {
	t, ok := h.lookup(req.Topic)
	if !ok {
		sendError(req.Client, "unknown topic: "+req.Topic)
		return
	}
	t.Join(req.Client)
	h.log.Debug("client subscribed", zap.String("client", req.Client.ID()), zap.String("topic", req.Topic))
}

func (h *Hub) handleUnsubscribe(req UnsubscribeRequest) {
	if t, ok := h.lookup(req.Topic); ok {
		t.Leave(req.Client)
	}
}

func (h *Hub) handlePublish(ev domain.Event) {
	t, ok := h.lookup(ev.Topic)
	if !ok {
		h.log.Warn("publish to unknown topic", zap.String("topic", ev.Topic))
		return
	}
	data, err := domain.Encode(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("topic", ev.Topic), zap.Error(err))
		return
	}
	t.Broadcast(data)
}

func sendError(c Client, message string) {
	errMsg := domain.ErrorEvent{Type: domain.EventError, Message: message}
	if data, err := domain.Encode(errMsg); err == nil {
		c.Send(data)
	}
}
