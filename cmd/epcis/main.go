package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/epcis-repository/internal/capture"
	corecfg "github.com/aevon-lab/epcis-repository/internal/core/config"
	"github.com/aevon-lab/epcis-repository/internal/core/storage/postgres"
	"github.com/aevon-lab/epcis-repository/internal/migrations"
	"github.com/aevon-lab/epcis-repository/internal/query"
	"github.com/aevon-lab/epcis-repository/internal/server"
	"github.com/aevon-lab/epcis-repository/internal/subscription"
	"github.com/aevon-lab/epcis-repository/internal/vocabulary"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "epcis.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	var level slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Mode == "debug" {
		level.Set(slog.LevelDebug)
	}
	slog.Info("Loaded config",
		"server", cfg.Server,
		"query", cfg.Query,
		"subscription", cfg.Subscription,
		"delivery", cfg.Delivery,
	)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	if err := dbAdapter.PrepareStatements(); err != nil {
		slog.Error("Failed to prepare statements", "error", err)
		os.Exit(1)
	}

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 4. Query Engine
	interner := vocabulary.NewInterner(dbAdapter, cfg.Query.VocabularyCacheSize)
	engine := query.NewEngine(dbAdapter.DB(), interner, dbAdapter, query.Options{
		MaxResultRows:    cfg.Query.MaxResultRows,
		StatementTimeout: cfg.Query.StatementTimeout,
	}, query.NewMetrics(reg))

	// 5. Subscriptions
	subMetrics := subscription.NewMetrics(reg)
	deliverer := subscription.NewHTTPDeliverer(cfg.Delivery.Timeout, cfg.Delivery.ConnectTimeout, cfg.Delivery.UserAgent)
	executor := subscription.NewExecutor(engine, dbAdapter, deliverer, subMetrics)
	registry := subscription.NewRegistry(executor, cfg.Subscription.WorkerCount, subMetrics)
	subscriptionSvc, err := subscription.NewService(engine, dbAdapter, registry, cfg.Subscription.TriggerCheckInterval)
	if err != nil {
		slog.Error("Failed to initialize subscriptions", "error", err)
		os.Exit(1)
	}

	// 6. Capture
	captureSvc := capture.NewService(interner, dbAdapter, dbAdapter, cfg.Server.MaxBodySizeMB)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode, reg)
	captureSvc.RegisterRoutes(srv.Engine)
	engine.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Subscription.Enabled {
		subscriptionSvc.RegisterRoutes(srv.Engine)
		n, err := subscriptionSvc.Recover(ctx)
		if err != nil {
			slog.Error("Failed to recover subscriptions", "error", err)
			os.Exit(1)
		}
		slog.Info("Subscriptions armed",
			"recovered", n,
			"worker_count", cfg.Subscription.WorkerCount,
			"trigger_check_interval", cfg.Subscription.TriggerCheckInterval,
		)
	} else {
		slog.Info("Subscriptions disabled by config")
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Subscription.ShutdownTimeout)
	defer shutdownCancel()
	if err := registry.Shutdown(shutdownCtx); err != nil {
		slog.Error("Subscription fires did not finish in time", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
