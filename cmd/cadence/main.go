package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cadencelabs/cadence/internal/config"
	"github.com/cadencelabs/cadence/internal/engine"
	"github.com/cadencelabs/cadence/internal/ledger"
	"github.com/cadencelabs/cadence/internal/poller"
	"github.com/cadencelabs/cadence/internal/schedule"
	"github.com/cadencelabs/cadence/internal/storage"
	"github.com/cadencelabs/cadence/internal/store"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file (TOML)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger from config
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting cadence schedule engine")
	slog.Info("storage configuration", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	// Open the keyed store
	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "error", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer kv.Close()

	// Build the engine
	engineCfg, err := cfg.Engine.Build()
	if err != nil {
		slog.Error("failed to build engine configuration", "error", err)
		os.Exit(1)
	}

	schedules := store.New(kv, cfg.Engine.StoreCapacity, logger)
	history := ledger.New(kv, cfg.Engine.HistoryPerSchedule, logger)
	manager := engine.NewManager(schedules, history, engineCfg, logger)

	slog.Info("engine ready",
		"timezone", cfg.Engine.Timezone,
		"due_window", engineCfg.DueWindow,
		"schedules", len(manager.All()))

	// The daemon's executor only announces the firing; the business
	// action belongs to whatever host embeds the engine.
	executor := func(ctx context.Context, s *schedule.Schedule) error {
		slog.Info("schedule fired", "schedule_id", s.ID, "name", s.Name, "items", len(s.Payload))
		return nil
	}

	p, err := poller.New(manager, executor, cfg.Poller, logger)
	if err != nil {
		slog.Error("failed to create poller", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload config on file changes; only the polling section is
	// applied live.
	if *configFile != "" {
		watcher := config.NewWatcher(*configFile, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
		go func() {
			for updated := range watcher.Updates() {
				p.Apply(updated.Poller)
			}
		}()
	}

	go p.Run(ctx)

	slog.Info("cadence is running")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down gracefully")
	p.Shutdown()
	cancel()
}

// newLogger builds a slog logger from the logging config
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
