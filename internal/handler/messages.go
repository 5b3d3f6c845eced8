package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/store"
)

// Messages serves the chat message collection.
type Messages struct {
	col     *store.Collection[domain.Message]
	latest  int
	maxBody int64
	log     *zap.Logger
	now     func() time.Time
}

// NewMessages returns handlers over col. latest is the default window of
// GET /messages/latest.
func NewMessages(col *store.Collection[domain.Message], latest int, maxBody int64, log *zap.Logger) *Messages {
	return &Messages{
		col:     col,
		latest:  latest,
		maxBody: maxBody,
		log:     log.With(zap.String("resource", "messages")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register adds the message routes to mux.
func (m *Messages) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /messages", m.List)
	mux.HandleFunc("GET /messages/search", m.Search)
	mux.HandleFunc("GET /messages/latest", m.Latest)
	mux.HandleFunc("GET /messages/{id}", m.Get)
	mux.HandleFunc("POST /messages", m.Create)
	mux.HandleFunc("DELETE /messages/{id}", m.Delete)
}

// List returns every message.
func (m *Messages) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.col.List())
}

// Get returns one message by id.
func (m *Messages) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		var msg domain.Message
		if msg, err = m.col.Get(id); err == nil {
			writeJSON(w, http.StatusOK, msg)
			return
		}
	}
	writeError(w, m.log, err, "Message not found", "Failed to read message")
}

type messageInput struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// Create stores a new message stamped with the current time.
func (m *Messages) Create(w http.ResponseWriter, r *http.Request) {
	var in messageInput
	if err := decodeJSON(w, r, m.maxBody, &in); err != nil {
		writeError(w, m.log, err, "", "Failed to save message")
		return
	}
	msg, err := m.col.Create(domain.Message{From: in.From, Text: in.Text, TimeSent: m.now()})
	if err != nil {
		writeError(w, m.log, err, "", "Failed to save message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Delete removes a message and answers 204.
func (m *Messages) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		if _, err = m.col.Delete(id); err == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, m.log, err, "Message not found", "Failed to delete message")
}

// Search returns messages whose text contains ?text= (or ?term=),
// ignoring case.
func (m *Messages) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("text")
	if term == "" {
		term = q.Get("term")
	}
	if strings.TrimSpace(term) == "" {
		writeErrorMessage(w, http.StatusBadRequest, "Query parameter 'text' is required")
		return
	}
	writeJSON(w, http.StatusOK, m.col.Filter(func(msg domain.Message) bool {
		return msg.MatchesText(term)
	}))
}

// Latest returns the most recent messages, newest first. ?n= overrides the
// configured window.
func (m *Messages) Latest(w http.ResponseWriter, r *http.Request) {
	n := m.latest
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "Query parameter 'n' must be a positive integer")
			return
		}
		n = v
	}
	writeJSON(w, http.StatusOK, m.col.Latest(n))
}
