package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/testutil"
)

func newMessages(t *testing.T, seed ...domain.Message) (*Collection[domain.Message], *testutil.MemoryPersister[domain.Message]) {
	t.Helper()
	p := testutil.NewMemoryPersister[domain.Message]()
	c, err := NewCollection[domain.Message]("messages", p, zap.NewNop(), seed...)
	require.NoError(t, err)
	return c, p
}

func TestCreateOnEmptyAssignsOne(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)

	got, err := c.Create(domain.Message{From: "Sam", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.Message{ID: 1, From: "Sam", Text: "hi"}, got)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, p.Saves())
}

func TestCreateAssignsMaxPlusOne(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t,
		domain.Message{ID: 0, From: "Aisha", Text: "Welcome"},
		domain.Message{ID: 7, From: "a", Text: "b"},
		domain.Message{ID: 3, From: "c", Text: "d"},
	)

	got, err := c.Create(domain.Message{From: "Sam", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 8, got.ID)
	assert.Equal(t, 4, c.Len())
}

func TestCreateNeverReusesDeletedID(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t)

	first, err := c.Create(domain.Message{From: "a", Text: "1"})
	require.NoError(t, err)
	second, err := c.Create(domain.Message{From: "a", Text: "2"})
	require.NoError(t, err)

	_, err = c.Delete(second.ID)
	require.NoError(t, err)

	third, err := c.Create(domain.Message{From: "a", Text: "3"})
	require.NoError(t, err)
	assert.Equal(t, first.ID+2, third.ID)
}

func TestHighWaterRestartsFromLoadedRecords(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)
	for _, text := range []string{"1", "2"} {
		_, err := c.Create(domain.Message{From: "a", Text: text})
		require.NoError(t, err)
	}
	_, err := c.Delete(2)
	require.NoError(t, err)

	restarted, err := NewCollection[domain.Message]("messages", p, zap.NewNop())
	require.NoError(t, err)
	got, err := restarted.Create(domain.Message{From: "a", Text: "3"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.ID)
}

func TestCreateValidationLeavesCollectionUnchanged(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)

	_, err := c.Create(domain.Message{From: "Sam"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, p.Saves())
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t)

	created, err := c.Create(domain.Message{From: "Sam", Text: "hi"})
	require.NoError(t, err)
	got, err := c.Get(created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("round trip mismatch (-created +got):\n%s", diff)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t)
	_, err := c.Get(999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRemovesAndPreservesOrder(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := c.Create(domain.Message{From: "x", Text: text})
		require.NoError(t, err)
	}

	removed, err := c.Delete(2)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Text)
	assert.Equal(t, 2, c.Len())

	var texts []string
	for _, m := range c.List() {
		texts = append(texts, m.Text)
		assert.NotEqual(t, 2, m.ID)
	}
	assert.Equal(t, []string{"a", "c"}, texts)
	assert.Len(t, p.Records(), 2)

	_, err = c.Delete(2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, c.Len())
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)
	p.Fail(errors.New("disk full"))

	created, err := c.Create(domain.Message{From: "Sam", Text: "hi"})
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, 1, c.Len())

	removed, err := c.Delete(created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
	assert.Equal(t, created, removed)
	assert.Equal(t, 0, c.Len())

	p.Fail(nil)
	_, err = c.Create(domain.Message{From: "Sam", Text: "again"})
	require.NoError(t, err)
	assert.Len(t, p.Records(), 1)
}

func TestLoadPrefersPersistedOverSeed(t *testing.T) {
	t.Parallel()
	p := testutil.NewMemoryPersister(domain.Message{ID: 5, From: "a", Text: "stored"})
	c, err := NewCollection[domain.Message]("messages", p, nil, domain.Message{ID: 0, From: "seed", Text: "seed"})
	require.NoError(t, err)

	all := c.List()
	require.Len(t, all, 1)
	assert.Equal(t, "stored", all[0].Text)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()
	_, err := NewCollection[domain.Quote]("quotes", nil, nil,
		domain.Quote{ID: 1, Quote: "a", Author: "b"},
		domain.Quote{ID: 1, Quote: "c", Author: "d"},
	)
	assert.Error(t, err)
}

func TestFilterKeepsOrder(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t)
	for _, text := range []string{"Hello", "bye", "hello again"} {
		_, err := c.Create(domain.Message{From: "x", Text: text})
		require.NoError(t, err)
	}

	got := c.Filter(func(m domain.Message) bool { return m.MatchesText("hello") })
	require.Len(t, got, 2)
	assert.Equal(t, "Hello", got[0].Text)
	assert.Equal(t, "hello again", got[1].Text)

	none := c.Filter(func(domain.Message) bool { return false })
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLatestNewestFirst(t *testing.T) {
	t.Parallel()
	c, _ := newMessages(t)
	for i := 0; i < 12; i++ {
		_, err := c.Create(domain.Message{From: "x", Text: "m"})
		require.NoError(t, err)
	}

	got := c.Latest(10)
	require.Len(t, got, 10)
	assert.Equal(t, 12, got[0].ID)
	assert.Equal(t, 3, got[9].ID)

	assert.Len(t, c.Latest(50), 12)
	assert.Empty(t, c.Latest(0))
	assert.Empty(t, c.Latest(-1))
}

func TestRandom(t *testing.T) {
	t.Parallel()
	empty, err := NewCollection[domain.Quote]("quotes", nil, nil)
	require.NoError(t, err)
	_, ok := empty.Random()
	assert.False(t, ok)

	c, err := NewCollection[domain.Quote]("quotes", nil, nil,
		domain.Quote{ID: 1, Quote: "a", Author: "x"},
		domain.Quote{ID: 2, Quote: "b", Author: "y"},
	)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		q, ok := c.Random()
		require.True(t, ok)
		assert.Contains(t, []int{1, 2}, q.ID)
	}
}

func TestObserversSeeSuccessfulMutations(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)

	var events []string
	c.Observe(func(event string, m domain.Message) {
		events = append(events, event)
	})

	m, err := c.Create(domain.Message{From: "a", Text: "b"})
	require.NoError(t, err)
	_, err = c.Delete(m.ID)
	require.NoError(t, err)

	p.Fail(errors.New("boom"))
	_, _ = c.Create(domain.Message{From: "a", Text: "c"})

	assert.Equal(t, []string{domain.EventCreated, domain.EventDeleted}, events)
}

func TestConcurrentCreatesAssignUniqueIDs(t *testing.T) {
	t.Parallel()
	c, p := newMessages(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Create(domain.Message{From: "a", Text: "b"})
		}()
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, m := range c.List() {
		assert.False(t, seen[m.ID], "duplicate id %d", m.ID)
		seen[m.ID] = true
	}
	assert.Len(t, seen, 50)
	assert.Len(t, p.Records(), 50)
}
