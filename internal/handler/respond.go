package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps err onto the error taxonomy: validation 400, not found
// 404, everything else 500. notFound names the missing thing, e.g.
// "Message not found"; failure is the message shown for a 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, notFound, failure string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeErrorMessage(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, notFound)
	default:
		log.Error(failure, zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, failure)
	}
}

// decodeJSON reads a JSON object body of at most maxBytes into out.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Invalid("request body exceeds %d bytes", tooLarge.Limit)
		}
		return domain.Invalid("request body must be a JSON object: %v", err)
	}
	return nil
}

// pathID parses the {id} path value. Anything that is not an integer
// cannot match a record, so it is reported as not found.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", r.PathValue("id"), domain.ErrNotFound)
	}
	return id, nil
}
