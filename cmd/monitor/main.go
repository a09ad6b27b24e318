package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queuepulse/queuepulse/internal/api"
	"github.com/queuepulse/queuepulse/internal/archive"
	"github.com/queuepulse/queuepulse/internal/cache"
	"github.com/queuepulse/queuepulse/internal/config"
	"github.com/queuepulse/queuepulse/internal/database"
	"github.com/queuepulse/queuepulse/internal/event"
	"github.com/queuepulse/queuepulse/internal/invalidate"
	"github.com/queuepulse/queuepulse/internal/ops"
	"github.com/queuepulse/queuepulse/internal/query"
	"github.com/queuepulse/queuepulse/internal/refresh"
	"github.com/queuepulse/queuepulse/internal/stream"
	"github.com/queuepulse/queuepulse/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/monitor.local.yaml", "path to config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"server_url", cfg.Server.BaseURL,
		"room", cfg.Stream.Room,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// REST client and cached query layer
	apiClient := api.NewClient(
		cfg.Server.BaseURL,
		cfg.Server.Token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetries(cfg.Server.MaxRetries, time.Second),
	)

	queryCache := cache.New(logger)
	queries := query.NewService(apiClient, queryCache, cfg.Cache.TTL)
	router := invalidate.NewRouter(queryCache, logger)

	// Optional event archive
	var (
		pool          *pgxpool.Pool
		archiveBuf    *archive.GrowableBuffer[archive.Record]
		archiveWriter *archive.Writer
	)
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Database.Postgres.Host,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		archiveBuf = archive.NewGrowableBuffer[archive.Record](cfg.Archive.BufferSize)
		archiveWriter = archive.NewWriter(archive.WriterConfig{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}, archiveBuf, pool, logger)

		if err := archiveWriter.Start(ctx); err != nil {
			logger.Error("failed to start archive writer", "error", err)
			os.Exit(1)
		}
	}

	// Stream manager: invalidation happens inside the manager via the
	// router; the handler only feeds the archive.
	manager := stream.NewManager(
		cfg.Server.BaseURL,
		cfg.Stream.Room,
		stream.WithLogger(logger),
		stream.WithToken(cfg.Server.Token),
		stream.WithRouter(router),
		// Connect explicitly once the cache warm-up is running.
		stream.WithAutoConnect(false),
		stream.WithMaxReconnectAttempts(cfg.Stream.MaxReconnectAttempts),
		stream.WithReconnectDelay(cfg.Stream.ReconnectBaseDelay),
		stream.WithReconnectMaxDelay(cfg.Stream.ReconnectMaxDelay),
		stream.WithClientConfig(stream.ClientConfig{
			DialTimeout:  cfg.Server.Timeout,
			PingInterval: cfg.Stream.PingInterval,
			PongTimeout:  cfg.Stream.PongTimeout,
			WriteTimeout: 5 * time.Second,
			BufferSize:   cfg.Stream.BufferSize,
		}),
		stream.WithMessageHandler(func(msg event.Message) {
			if archiveBuf != nil {
				archiveBuf.Send(archive.Record{
					Room:       cfg.Stream.Room,
					Message:    msg,
					ReceivedAt: time.Now(),
				})
			}
		}),
	)

	// Background cache re-warm
	refresher := refresh.New(refresh.Config{
		Interval:    cfg.Refresh.Interval,
		Concurrency: cfg.Refresh.Concurrency,
		Timeout:     cfg.Server.Timeout,
	}, warmers(queries), logger)

	// Ops server
	opsServer := ops.NewServer(cfg.Ops.Port, cfg.Ops.Path,
		func() ops.Snapshot {
			return ops.Snapshot{
				Instance: cfg.Instance.ID,
				Version:  version.Version,
				Stream:   manager.Stats(),
				Cache:    queryCache.Stats(),
				Routing:  router.Stats(),
			}
		},
		func() bool {
			if manager.State() != stream.StateConnected {
				return false
			}
			if pool != nil {
				pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer pingCancel()
				if err := pool.Ping(pingCtx); err != nil {
					return false
				}
			}
			return true
		},
		logger,
	)

	if err := opsServer.Start(); err != nil {
		logger.Error("failed to start ops server", "error", err)
		os.Exit(1)
	}

	if err := refresher.Start(ctx); err != nil {
		logger.Error("failed to start refresher", "error", err)
		os.Exit(1)
	}

	manager.Connect()

	logger.Info("monitor running",
		"instance_id", cfg.Instance.ID,
		"ops_port", cfg.Ops.Port,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	manager.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	refresher.Stop(shutdownCtx)
	if archiveWriter != nil {
		archiveBuf.Close()
		archiveWriter.Stop(shutdownCtx)
	}
	opsServer.Stop(shutdownCtx)

	logger.Info("monitor stopped")
}

// warmers builds the cache re-warm operations over the query service.
func warmers(q *query.Service) []refresh.Warmer {
	return []refresh.Warmer{
		{Name: "tasks", Warm: func(ctx context.Context) error {
			_, err := q.Tasks(ctx, api.ListTasksOptions{Limit: 50})
			return err
		}},
		{Name: "workers", Warm: func(ctx context.Context) error {
			_, err := q.Workers(ctx)
			return err
		}},
		{Name: "queues", Warm: func(ctx context.Context) error {
			_, err := q.Queues(ctx)
			return err
		}},
		{Name: "dashboard", Warm: func(ctx context.Context) error {
			_, err := q.Dashboard(ctx)
			return err
		}},
		{Name: "metrics", Warm: func(ctx context.Context) error {
			_, err := q.Metrics(ctx, "1h")
			return err
		}},
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
