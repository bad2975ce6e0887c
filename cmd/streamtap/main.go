// streamtap connects to an event-stream endpoint and prints envelopes to the
// console. Usage: go run ./cmd/streamtap --config configs/client.local.yaml
//
// Optional environment variables referenced from the config file (e.g.
// STREAM_TOKEN for the authentication handshake) are expanded at load time.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/stratalake/eventstream/internal/client"
	"github.com/stratalake/eventstream/internal/config"
	"github.com/stratalake/eventstream/internal/dispatch"
	"github.com/stratalake/eventstream/internal/event"
	"github.com/stratalake/eventstream/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full envelope JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Create stream client
	c := client.New(cfg.ClientConfig(),
		client.WithLogger(logger.With("instance", cfg.Instance.ID)),
		client.WithHooks(client.Hooks{
			OnConnected: func() {
				logger.Info("stream connected", "url", cfg.Stream.URL)
			},
			OnConnectionLost: func(code int, reason string) {
				logger.Warn("stream connection lost", "code", code, "reason", reason)
			},
			OnReconnectAttempt: func(attempt int) {
				logger.Info("reconnecting", "attempt", attempt)
			},
			OnMaxAttemptsReached: func() {
				logger.Error("giving up: reconnect attempts exhausted")
				cancel()
			},
		}),
	)

	// Tail the configured event kinds
	for _, kind := range cfg.Kinds() {
		kind := kind
		c.Subscribe(kind, func(env event.Envelope) {
			if *verbose {
				data, _ := json.MarshalIndent(env, "", "  ")
				fmt.Println(string(data))
				return
			}
			fmt.Printf("%s  %-24s  %s\n", env.Timestamp.Format(time.RFC3339), env.Type, env.ID)
		}, dispatch.Options{Replay: true})
		logger.Info("subscribed", "kind", kind)
	}

	if err := c.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	// Expose counters for scraping
	registry := prometheus.NewRegistry()
	registry.MustRegister(c.Collector())

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("metrics server listening", "addr", metricsServer.Addr, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		metricsServer.Shutdown(shutdownCtx)

		return c.Disconnect()
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	stats := c.Stats()
	logger.Info("session summary",
		"connections", stats.ConnectionCount,
		"sent", stats.MessagesSent,
		"received", stats.MessagesReceived,
		"reconnect_attempts", stats.ReconnectAttempts,
		"errors", stats.ErrorCount,
	)
}
