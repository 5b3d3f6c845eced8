package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a websocket connection subscribed to change feed topics.
type Client struct {
	hub    *hub.Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	id     string
	topics map[string]bool
	log    *zap.Logger
}

// New creates a new Client with a random id.
func New(h *hub.Hub, conn *websocket.Conn, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		id:     id,
		topics: make(map[string]bool),
		log:    log.With(zap.String("client", id)),
	}
}

// ID returns the client's id.
func (c *Client) ID() string {
	return c.id
}

// Close closes the underlying connection, which ends both pumps.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run serves the connection until it closes. The client is tracked by the
// hub for the whole time, so Hub.Stop waits for Run to finish.
func (c *Client) Run() {
	if !c.hub.Track(c) {
		c.conn.Close()
		return
	}
	defer c.hub.Untrack(c)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump()
	}()
	go func() {
		defer wg.Done()
		c.readPump()
	}()
	wg.Wait()
}

// Send queues a message to be sent to the websocket client.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		// Client send buffer full, drop message.
		c.log.Warn("send buffer full, dropping message")
	}
}

// readPump reads frames from the websocket connection and applies them.
func (c *Client) readPump() {
	defer func() {
		// Leave every topic on disconnect.
		for topic := range c.topics {
			c.hub.Unsubscribe(c, topic)
		}
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// writePump writes messages from the send channel to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	ev, err := domain.DecodeEvent(data)
	if err != nil {
		c.sendError("invalid JSON")
		return
	}

	switch ev.Type {
	case domain.EventSubscribe:
		if ev.Topic == "" {
			c.sendError("topic required")
			return
		}
		c.topics[ev.Topic] = true
		c.hub.Subscribe(c, ev.Topic)

	case domain.EventUnsubscribe:
		if ev.Topic == "" {
			c.sendError("topic required")
			return
		}
		delete(c.topics, ev.Topic)
		c.hub.Unsubscribe(c, ev.Topic)

	default:
		c.sendError("unknown event type: " + ev.Type)
	}
}

func (c *Client) sendError(message string) {
	errMsg := domain.ErrorEvent{Type: domain.EventError, Message: message}
	if data, err := domain.Encode(errMsg); err == nil {
		c.Send(data)
	}
}
