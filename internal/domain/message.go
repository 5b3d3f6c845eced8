package domain

import "time"

// Message is a chat message posted to the chat service.
type Message struct {
	ID       int       `json:"id"`
	From     string    `json:"from"`
	Text     string    `json:"text"`
	TimeSent time.Time `json:"timeSent,omitzero"`
}

func (m Message) GetID() int { return m.ID }

func (m Message) WithID(id int) Message {
	m.ID = id
	return m
}

// Validate requires a non-blank sender and text.
func (m Message) Validate() error {
	return requireFields("from", m.From, "text", m.Text)
}

// MatchesText reports whether the message text contains term, ignoring case.
func (m Message) MatchesText(term string) bool {
	return containsFold(m.Text, term)
}
