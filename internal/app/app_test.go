package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/devaloi/collections/internal/config"
	"github.com/devaloi/collections/internal/domain"
)

func testConfig(t *testing.T, storage string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Storage = storage
	cfg.ChatStorage = storage
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DBDSN = filepath.Join(dir, "collections.db")
	return cfg
}

func newApp(t *testing.T, cfg config.Config, svc Services) *App {
	t.Helper()
	a, err := New(cfg, svc, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func request(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServesOnlySelectedResources(t *testing.T) {
	a := newApp(t, testConfig(t, config.StorageMemory), Services{Quotes: true})

	assert.Equal(t, http.StatusOK, request(t, a.Handler, http.MethodGet, "/quotes", "").Code)
	assert.Equal(t, http.StatusNotFound, request(t, a.Handler, http.MethodGet, "/messages", "").Code)
	assert.Equal(t, http.StatusNotFound, request(t, a.Handler, http.MethodGet, "/bookings", "").Code)
	assert.Nil(t, a.Messages)
	assert.Nil(t, a.Bookings)
	require.NotNil(t, a.Quotes)
	assert.Positive(t, a.Quotes.Len())
}

func TestChatStartsWithWelcomeMessage(t *testing.T) {
	a := newApp(t, testConfig(t, config.StorageMemory), Services{Chat: true})

	rec := request(t, a.Handler, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []domain.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, 0, msgs[0].ID)

	rec = request(t, a.Handler, http.MethodPost, "/messages", `{"from":"Bo","text":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, 1, created.ID)
}

func TestFileStoragePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t, config.StorageFile)
	booking := `{"roomId":3,"title":"Ms","firstName":"Ada","surname":"Lovelace",` +
		`"email":"ada@example.com","checkInDate":"2026-11-01","checkOutDate":"2026-11-02"}`

	first, err := New(cfg, Services{Hotel: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, request(t, first.Handler, http.MethodPost, "/bookings", booking).Code)
	require.NoError(t, first.Close())

	_, err = os.Stat(cfg.DataFile("bookings"))
	require.NoError(t, err)

	second := newApp(t, cfg, Services{Hotel: true})
	got, err := second.Bookings.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.Surname)
}

func TestSQLStoragePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t, config.StorageSQL)

	first, err := New(cfg, Services{Chat: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, request(t, first.Handler, http.MethodPost, "/messages", `{"from":"Bo","text":"kept"}`).Code)
	require.NoError(t, first.Close())

	second := newApp(t, cfg, Services{Chat: true})
	assert.Equal(t, 2, second.Messages.Len())
	msg, err := second.Messages.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "kept", msg.Text)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t, config.StorageMemory)
	cfg.DBDriver = "oracle"
	_, err := New(cfg, Services{Hotel: true}, nil)
	assert.ErrorContains(t, err, "oracle")
}

func TestCollectionsArePublishedAsFeeds(t *testing.T) {
	a := newApp(t, testConfig(t, config.StorageMemory), All)

	rec := request(t, a.Handler, http.MethodGet, "/feeds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var feeds []domain.TopicInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&feeds))
	names := make([]string, 0, len(feeds))
	for _, f := range feeds {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"bookings", "messages"}, names)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	a := newApp(t, testConfig(t, config.StorageMemory), Services{Quotes: true})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRedisStoragePersistsAcrossRestarts(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.StorageRedis)
	cfg.RedisAddr = mr.Addr()

	first, err := New(cfg, Services{Chat: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, request(t, first.Handler, http.MethodPost, "/messages", `{"from":"Bo","text":"cached"}`).Code)
	require.NoError(t, first.Close())

	assert.True(t, mr.Exists("collections:messages"))

	second := newApp(t, cfg, Services{Chat: true})
	msg, err := second.Messages.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "cached", msg.Text)
}

func TestNewFailsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.StorageRedis)
	cfg.RedisAddr = mr.Addr()
	mr.Close()

	_, err := New(cfg, Services{Quotes: true}, nil)
	assert.ErrorContains(t, err, "ping redis")
}

func TestChatStaysInMemoryByDefault(t *testing.T) {
	cfg := testConfig(t, config.StorageFile)
	cfg.ChatStorage = config.StorageMemory
	a := newApp(t, cfg, All)

	require.Equal(t, http.StatusCreated, request(t, a.Handler, http.MethodPost, "/messages", `{"from":"Bo","text":"gone"}`).Code)
	_, err := os.Stat(cfg.DataFile("messages"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewOpensOnlyBackendsOfSelectedServices(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.StorageMemory)
	cfg.ChatStorage = config.StorageRedis
	cfg.RedisAddr = mr.Addr()
	mr.Close()

	a := newApp(t, cfg, Services{Quotes: true})
	assert.Nil(t, a.redis)
	assert.Nil(t, a.db)
	assert.Equal(t, http.StatusOK, request(t, a.Handler, http.MethodGet, "/quotes", "").Code)

	_, err := New(cfg, Services{Chat: true}, nil)
	assert.ErrorContains(t, err, "ping redis")
}

func TestServicesUses(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage = config.StorageSQL
	cfg.ChatStorage = config.StorageRedis

	assert.True(t, Services{Chat: true}.uses(cfg, config.StorageRedis))
	assert.False(t, Services{Chat: true}.uses(cfg, config.StorageSQL))
	assert.True(t, Services{Quotes: true}.uses(cfg, config.StorageSQL))
	assert.False(t, Services{Quotes: true}.uses(cfg, config.StorageRedis))
	assert.True(t, All.uses(cfg, config.StorageRedis))
}
