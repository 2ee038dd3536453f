package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/dummy-evm/cliparse"
	"github.com/danielhkuo/dummy-evm/clock"
	"github.com/danielhkuo/dummy-evm/db"
	"github.com/danielhkuo/dummy-evm/events"
	"github.com/danielhkuo/dummy-evm/guard"
	"github.com/danielhkuo/dummy-evm/ledger"
	"github.com/danielhkuo/dummy-evm/media"
	"github.com/danielhkuo/dummy-evm/metrics"
	"github.com/danielhkuo/dummy-evm/middleware"
	"github.com/danielhkuo/dummy-evm/pubsub"
	"github.com/danielhkuo/dummy-evm/router"
	"github.com/danielhkuo/dummy-evm/session"
)

// Queued vote events before new ones are dropped
const eventQueueSize = 1024

func main() {
	// A missing .env is fine; real deployments use the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	m := metrics.New()
	clk := clock.Real()

	policy := ledger.DefaultRetryPolicy
	policy.Attempts = cfg.LedgerRetries
	votes := ledger.New(ledger.NewSQLStore(dbConn),
		ledger.WithClock(clk),
		ledger.WithRetryPolicy(policy),
		ledger.WithMetrics(m),
	)

	var marks guard.Store = guard.NewSQLStore(dbConn)
	if cfg.GuardBackend == "redis" {
		rs, err := guard.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		marks = rs
	}
	g := guard.New(marks)
	slog.Info("Duplicate-vote guard ready", "backend", cfg.GuardBackend)

	hub := pubsub.NewHub(cfg.AllowedOrigins...)
	go hub.Run(ctx)

	sessions := session.NewManager(votes, g, clk, hub, session.Config{
		SettleDelay:      cfg.SettleDelay,
		PanelSettleDelay: cfg.PanelSettleDelay,
	}, m)

	store, err := media.NewStore(cfg.MediaDir, cfg.MaxUploadBytes)
	if err != nil {
		slog.Error("media store failed", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewAsync(events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), eventQueueSize)
		slog.Info("Publishing vote events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	// Create router
	mux := router.NewRouter(dbConn, cfg, router.Services{
		Guard:    g,
		Sessions: sessions,
		Hub:      hub,
		Media:    store,
		Events:   publisher,
		Metrics:  m,
	})

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// Closed once in-flight requests have drained
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown timed out", "error", err)
		}
		sessions.CloseAll()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return
	}
	<-idle
	slog.Info("Server closed", "error", err)
}
