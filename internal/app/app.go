// Package app wires configuration, stores, handlers and the change feed
// into one HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/config"
	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/handler"
	"github.com/devaloi/collections/internal/hub"
	"github.com/devaloi/collections/internal/middleware"
	"github.com/devaloi/collections/internal/seed"
	"github.com/devaloi/collections/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Services selects which resources are served.
type Services struct {
	Chat   bool
	Hotel  bool
	Quotes bool
}

// All serves every resource.
var All = Services{Chat: true, Hotel: true, Quotes: true}

// uses reports whether a selected service keeps its collection in storage.
func (s Services) uses(cfg config.Config, storage string) bool {
	if s.Chat && cfg.ChatStorage == storage {
		return true
	}
	return (s.Hotel || s.Quotes) && cfg.Storage == storage
}

// App is a fully wired server.
type App struct {
	Handler  http.Handler
	Hub      *hub.Hub
	Messages *store.Collection[domain.Message]
	Bookings *store.Collection[domain.Booking]
	Quotes   *store.Collection[domain.Quote]

	db    *sql.DB
	redis *redis.Client
	log   *zap.Logger
}

// New builds the collections selected by svc and registers their routes.
// The hub is started; Close stops it and releases the connections.
func New(cfg config.Config, svc Services, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Hub: hub.New(log.Named("hub")), log: log}

	if svc.Hotel || svc.uses(cfg, config.StorageSQL) {
		db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
		}
		a.db = db
	}
	if svc.uses(cfg, config.StorageRedis) {
		client, err := store.OpenRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.redis = client
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health())
	mux.HandleFunc("GET /feeds", handler.ListFeeds(a.Hub))
	mux.HandleFunc("GET /feeds/{name}", handler.FeedInfo(a.Hub))
	mux.HandleFunc("GET /ws", handler.ServeWS(a.Hub, log.Named("ws")))

	if err := a.mount(mux, cfg, svc); err != nil {
		a.Close()
		return nil, err
	}

	go a.Hub.Run()
	a.Handler = middleware.Chain(log.Named("http"), mux)
	return a, nil
}

func (a *App) mount(mux *http.ServeMux, cfg config.Config, svc Services) error {
	if svc.Chat {
		msgs, err := store.NewCollection("messages", persister[domain.Message](a, cfg, cfg.ChatStorage, "messages"), a.log, seed.Welcome())
		if err != nil {
			return err
		}
		a.Messages = msgs
		feed(a.Hub, msgs, cfg.LatestWindow)
		handler.NewMessages(msgs, cfg.LatestWindow, cfg.MaxBodyBytes, a.log).Register(mux)
	}

	if svc.Hotel {
		bookings, err := store.NewCollection("bookings", persister[domain.Booking](a, cfg, cfg.Storage, "bookings"), a.log)
		if err != nil {
			return err
		}
		a.Bookings = bookings
		feed(a.Hub, bookings, cfg.LatestWindow)
		handler.NewBookings(bookings, cfg.MaxBodyBytes, a.log).Register(mux)
		handler.NewReservations(store.NewReservationStore(a.db, cfg.DBDriver), a.log).Register(mux)
	}

	if svc.Quotes {
		builtin, err := seed.Quotes()
		if err != nil {
			return err
		}
		quotes, err := store.NewCollection("quotes", persister[domain.Quote](a, cfg, cfg.Storage, "quotes"), a.log, builtin...)
		if err != nil {
			return err
		}
		a.Quotes = quotes
		handler.NewQuotes(quotes).Register(mux)
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *App) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the change feed and closes the database and Redis
// connections.
func (a *App) Close() error {
	a.Hub.Stop()
	return a.closeStores()
}

func (a *App) closeStores() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}


func persister[T domain.Record[T]](a *App, cfg config.Config, storage, name string) store.Persister[T] {
	switch storage {
	case config.StorageFile:
		return store.NewFileStore[T](cfg.DataFile(name))
	case config.StorageSQL:
		return store.NewTableStore[T](a.db, cfg.DBDriver, name)
	case config.StorageRedis:
		return store.NewRedisStore[T](a.redis, cfg.RedisKey(name))
	default:
		return store.Nop[T]{}
	}
}

// feed exposes col as a change feed topic.
func feed[T domain.Record[T]](h *hub.Hub, col *store.Collection[T], window int) {
	h.AddTopic(col.Name(), hub.FeedFunc(func() any { return col.Latest(window) }))
	col.Observe(func(event string, rec T) {
		h.Publish(col.Name(), event, rec)
	})
}
