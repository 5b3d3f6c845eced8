// Package seed holds the records a collection starts with when its
// backend is empty.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/devaloi/collections/internal/domain"
)

//go:embed quotes.json
var quotesJSON []byte

// Welcome is the message every fresh chat starts with.
func Welcome() domain.Message {
	return domain.Message{
		ID:   0,
		From: "Aisha",
		Text: "Welcome to my chat system!",
	}
}

// Quotes returns the built-in quotes. Entries without an id are numbered
// from 1 in file order.
func Quotes() ([]domain.Quote, error) {
	var quotes []domain.Quote
	if err := json.Unmarshal(quotesJSON, &quotes); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	for i := range quotes {
		if quotes[i].ID == 0 {
			quotes[i].ID = i + 1
		}
	}
	return quotes, nil
}
