package handler

import (
	"encoding/json"
	"net/http"

	"github.com/devaloi/collections/internal/hub"
)

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ListFeeds returns all change feed topics with subscriber counts.
func ListFeeds(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.ListTopics())
	}
}

// FeedInfo returns details about one topic.
func FeedInfo(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := h.TopicInfo(r.PathValue("name"))
		if info == nil {
			writeErrorMessage(w, http.StatusNotFound, "feed not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
