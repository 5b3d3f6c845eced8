package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotesAreNumberedUniquely(t *testing.T) {
	quotes, err := Quotes()
	require.NoError(t, err)
	require.NotEmpty(t, quotes)

	seen := map[int]bool{}
	for _, q := range quotes {
		assert.NotZero(t, q.ID)
		assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
		assert.NotEmpty(t, q.Quote)
		assert.NotEmpty(t, q.Author)
	}
}

func TestWelcome(t *testing.T) {
	w := Welcome()
	assert.Equal(t, 0, w.ID)
	assert.NoError(t, w.Validate())
}
