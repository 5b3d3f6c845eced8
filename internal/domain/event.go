package domain

import "encoding/json"

// Event types exchanged over the change feed.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventSnapshot    = "snapshot"
	EventCreated     = "created"
	EventDeleted     = "deleted"
	EventError       = "error"
)

// Event is a change feed frame. Clients send subscribe/unsubscribe frames
// with only Type and Topic set; the server sends the rest.
type Event struct {
	Type   string `json:"type"`
	Topic  string `json:"topic,omitempty"`
	Record any    `json:"record,omitempty"`
}

// SnapshotEvent is sent to a client once it subscribes to a topic.
type SnapshotEvent struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Records any    `json:"records"`
}

// ErrorEvent reports a protocol error to the client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TopicInfo describes a change feed topic.
type TopicInfo struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeEvent deserializes JSON bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
