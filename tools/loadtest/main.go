// loadtest posts chat messages over HTTP while websocket subscribers watch
// the messages feed, and reports how long each created event took to
// arrive.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/devaloi/collections/internal/domain"
	"github.com/devaloi/collections/internal/logging"
)

var opts struct {
	baseURL     string
	writers     int
	messages    int
	subscribers int
	timeout     time.Duration
}

var rootCmd = &cobra.Command{
	Use:          "loadtest",
	Short:        "Load test the messages resource and its change feed",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.baseURL, "url", "http://localhost:9090", "server base URL")
	f.IntVar(&opts.writers, "writers", 10, "concurrent HTTP writers")
	f.IntVar(&opts.messages, "messages", 10, "messages per writer")
	f.IntVar(&opts.subscribers, "subscribers", 5, "websocket subscribers on the messages feed")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "time to wait for events after the last post")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type stats struct {
	sent      atomic.Int64
	received  atomic.Int64
	failures  atomic.Int64
	sentAt    sync.Map // text -> time.Time
	latencyMu sync.Mutex
	latencies []time.Duration
}

func (s *stats) observe(text string) {
	v, ok := s.sentAt.Load(text)
	if !ok {
		return
	}
	s.received.Add(1)
	s.latencyMu.Lock()
	s.latencies = append(s.latencies, time.Since(v.(time.Time)))
	s.latencyMu.Unlock()
}

func run(cmd *cobra.Command, _ []string) error {
	log, err := logging.New("info", "console", "loadtest")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("load test",
		zap.Int("writers", opts.writers),
		zap.Int("messages", opts.messages),
		zap.Int("subscribers", opts.subscribers),
	)

	st := &stats{}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(strings.TrimSuffix(opts.baseURL, "/"), "http") + "/ws"
	var subs sync.WaitGroup
	for i := 0; i < opts.subscribers; i++ {
		conn, err := subscribe(wsURL)
		if err != nil {
			return fmt.Errorf("subscriber %d: %w", i, err)
		}
		subs.Add(1)
		go func() {
			defer subs.Done()
			readEvents(ctx, conn, st)
		}()
	}

	client := resty.New().
		SetBaseURL(opts.baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.writers; w++ {
		g.Go(func() error {
			for j := 0; j < opts.messages; j++ {
				text := fmt.Sprintf("lt-%d-%d-%d", start.UnixNano(), w, j)
				st.sentAt.Store(text, time.Now())
				resp, err := client.R().
					SetContext(gctx).
					SetBody(map[string]string{"from": fmt.Sprintf("writer_%d", w), "text": text}).
					Post("/messages")
				if err != nil || resp.StatusCode() != 201 {
					st.failures.Add(1)
					st.sentAt.Delete(text)
					if err != nil {
						log.Warn("post failed", zap.Int("writer", w), zap.Error(err))
					}
					continue
				}
				st.sent.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	want := st.sent.Load() * int64(opts.subscribers)
	deadline := time.Now().Add(opts.timeout)
	for st.received.Load() < want && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	elapsed := time.Since(start)
	cancel()
	subs.Wait()

	report(st, elapsed, want)
	return nil
}

func subscribe(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	frame, _ := domain.Encode(domain.Event{Type: domain.EventSubscribe, Topic: "messages"})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		conn.Close()
		return nil, err
	}
	// The snapshot confirms the subscription is live.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, err
		}
		var ev domain.Event
		if json.Unmarshal(data, &ev) == nil && ev.Type == domain.EventSnapshot {
			return conn, nil
		}
	}
}

func readEvents(ctx context.Context, conn *websocket.Conn, st *stats) {
	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev struct {
			Type   string         `json:"type"`
			Record domain.Message `json:"record"`
		}
		if json.Unmarshal(data, &ev) != nil || ev.Type != domain.EventCreated {
			continue
		}
		st.observe(ev.Record.Text)
	}
}

func report(st *stats, elapsed time.Duration, want int64) {
	sort.Slice(st.latencies, func(i, j int) bool { return st.latencies[i] < st.latencies[j] })

	fmt.Println("\n=== Load Test Results ===")
	fmt.Printf("Duration:    %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Posted:      %d messages\n", st.sent.Load())
	fmt.Printf("Failed:      %d posts\n", st.failures.Load())
	fmt.Printf("Delivered:   %d of %d events\n", st.received.Load(), want)
	if len(st.latencies) > 0 {
		fmt.Printf("Latency p50: %s\n", percentile(st.latencies, 50))
		fmt.Printf("Latency p95: %s\n", percentile(st.latencies, 95))
		fmt.Printf("Latency p99: %s\n", percentile(st.latencies, 99))
	}
	fmt.Printf("Throughput:  %.0f posts/sec\n", float64(st.sent.Load())/elapsed.Seconds())
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
