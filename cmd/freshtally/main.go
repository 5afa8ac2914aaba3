package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/freshtally/freshtally/internal/aggregation"
	corecfg "github.com/freshtally/freshtally/internal/core/config"
	"github.com/freshtally/freshtally/internal/core/storage"
	"github.com/freshtally/freshtally/internal/core/storage/postgres"
	"github.com/freshtally/freshtally/internal/core/storage/redis"
	"github.com/freshtally/freshtally/internal/ingestion"
	"github.com/freshtally/freshtally/internal/metrics"
	"github.com/freshtally/freshtally/internal/migrations"
	"github.com/freshtally/freshtally/internal/notification"
	"github.com/freshtally/freshtally/internal/projection"
	"github.com/freshtally/freshtally/internal/server"
	"github.com/freshtally/freshtally/internal/trigger"
)

// storeIndex is what the resolver and the admin rebuild endpoint need.
type storeIndex interface {
	storage.StoreIndex
	storage.StoreIndexRebuilder
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	durations, err := cfg.ParseDurations()
	if err != nil {
		slog.Error("Invalid config durations", "error", err)
		os.Exit(1)
	}
	scope, window, err := cfg.Aggregation.Policy()
	if err != nil {
		slog.Error("Invalid aggregation policy", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage (PostgreSQL) and run migrations before the
	// adapter checks for its tables.
	db, err := postgres.OpenDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	catalog, err := postgres.NewAdapter(db)
	if err != nil {
		slog.Error("Failed to initialize catalog adapter", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()

	aggregates := postgres.NewAggregateAdapter(db)
	notifications := postgres.NewNotificationAdapter(db)

	healthChecks := []server.HealthCheck{{Name: "database", Checker: server.PingFunc(db.PingContext)}}

	// 3. Store index, optionally cached in Redis
	var index storeIndex = postgres.NewStoreIndexAdapter(db)
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer client.Close()

		index = redis.NewCachedStoreIndex(client, index, durations.RedisTTL)
		healthChecks = append(healthChecks, server.HealthCheck{
			Name:    "redis",
			Checker: server.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }),
		})
		slog.Info("Store index cache enabled", "addr", cfg.Redis.Addr, "ttl", durations.RedisTTL)
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 5. Aggregation core
	engine := aggregation.NewEngine(catalog, aggregates, aggregation.EngineOptions{Scope: scope, Window: window})
	resolver := aggregation.NewResolver(engine, index, cfg.Aggregation.WorkerCount, m)
	refresher := aggregation.NewRefresher(engine, index, cfg.Aggregation.WorkerCount, m)

	slog.Info("Aggregation engine initialized",
		"batch_scope", scope,
		"velocity_window", cfg.Aggregation.VelocityWindow,
		"worker_count", cfg.Aggregation.WorkerCount,
	)

	// 6. Scheduled jobs
	var schedulers []*aggregation.Scheduler
	if cfg.Aggregation.RefreshEnabled {
		schedulers = append(schedulers, aggregation.NewScheduler(durations.RefreshInterval, aggregation.Job{
			Name: "refresh",
			Run: func(ctx context.Context) error {
				_, err := refresher.RefreshAll(ctx)
				return err
			},
		}, false))
	}
	if cfg.Notifier.Enabled {
		notifier := notification.NewPromoExpiryNotifier(aggregates, notifications, durations.NotifierLookahead, m)
		schedulers = append(schedulers, aggregation.NewScheduler(durations.NotifierInterval, aggregation.Job{
			Name: "promo_expiry",
			Run: func(ctx context.Context) error {
				_, err := notifier.Run(ctx)
				return err
			},
		}, true))
	}

	// 7. Ingestion (write side) and projection (read side)
	fieldMap := ingestion.DefaultFieldMap()
	if cfg.POS.FieldMapPath != "" {
		fieldMap, err = ingestion.LoadFieldMap(cfg.POS.FieldMapPath)
		if err != nil {
			slog.Error("Failed to load POS field map", "error", err)
			os.Exit(1)
		}
	}
	ingestionSvc := ingestion.NewService(catalog, catalog, resolver, fieldMap, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(aggregates, notifications, index)

	// 8. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, m, healthChecks...)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	// 9. Start background services
	for _, scheduler := range schedulers {
		go func(s *aggregation.Scheduler) {
			if err := s.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}(scheduler)
	}

	if cfg.Trigger.AMQP.Enabled {
		consumer, err := trigger.NewConsumer(trigger.Config{
			URL:      cfg.Trigger.AMQP.URL,
			Exchange: cfg.Trigger.AMQP.Exchange,
			Queue:    cfg.Trigger.AMQP.Queue,
			Lanes:    cfg.Trigger.AMQP.Lanes,
			Prefetch: cfg.Trigger.AMQP.Prefetch,
		}, resolver, m)
		if err != nil {
			slog.Error("Failed to start change consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.Error("Change consumer stopped with error", "error", err)
				cancel()
			}
		}()
	} else {
		slog.Info("AMQP change consumer disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
