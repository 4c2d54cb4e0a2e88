// Package poller runs the pull loop that drives the engine: it
// periodically asks the manager for due schedules, hands each one to a
// caller-supplied executor, and reports the outcome back. Retrying a
// failed action is deliberately not its job; it records what happened
// and moves on.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cadencelabs/cadence/internal/engine"
	"github.com/cadencelabs/cadence/internal/schedule"
)

// Executor performs the external action for one due schedule. The
// returned error becomes a failed execution record.
type Executor func(ctx context.Context, s *schedule.Schedule) error

// Config defines the polling cadence
type Config struct {
	Enabled  bool          `toml:"enabled"`
	Interval time.Duration `toml:"interval"`
}

// DefaultConfig returns polling defaults
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Interval: 15 * time.Second,
	}
}

// Validate checks the polling configuration
func (c Config) Validate() error {
	if c.Enabled && c.Interval <= 0 {
		return fmt.Errorf("poller interval must be positive, got %v", c.Interval)
	}
	return nil
}

// Poller owns the polling goroutine. All engine access happens on
// that one goroutine, which is what keeps the lock-free engine safe in
// a concurrent host.
type Poller struct {
	manager  *engine.Manager
	executor Executor
	config   Config
	logger   *slog.Logger

	applyCh  chan Config
	shutdown chan struct{}
}

// New creates a poller with validated configuration
func New(manager *engine.Manager, executor Executor, config Config, logger *slog.Logger) (*Poller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if executor == nil {
		return nil, fmt.Errorf("poller requires an executor")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		manager:  manager,
		executor: executor,
		config:   config,
		logger:   logger,
		applyCh:  make(chan Config, 1),
		shutdown: make(chan struct{}),
	}, nil
}

// Apply installs a new polling configuration. An interval change
// takes effect on the next tick; invalid configs are dropped.
func (p *Poller) Apply(config Config) {
	if err := config.Validate(); err != nil {
		p.logger.Warn("ignoring invalid poller config", "error", err)
		return
	}
	// Keep only the newest pending config.
	select {
	case <-p.applyCh:
	default:
	}
	p.applyCh <- config
}

// Shutdown signals the run loop to stop
func (p *Poller) Shutdown() {
	close(p.shutdown)
}

// Run is the main polling loop. It blocks until Shutdown is called or
// ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("starting poller", "interval", p.config.Interval, "enabled", p.config.Enabled)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", "context cancelled")
			return

		case <-p.shutdown:
			p.logger.Info("poller stopping", "reason", "shutdown requested")
			return

		case config := <-p.applyCh:
			if config.Interval != p.config.Interval {
				ticker.Reset(config.Interval)
			}
			p.config = config
			p.logger.Info("poller config applied", "interval", config.Interval, "enabled", config.Enabled)

		case <-ticker.C:
			if p.config.Enabled {
				p.iteration(ctx)
			}
		}
	}
}

// iteration performs a single poll: find due schedules, execute each,
// report the outcome back to the engine.
func (p *Poller) iteration(ctx context.Context) {
	pending := p.manager.PendingSchedules(time.Time{})
	if len(pending) == 0 {
		return
	}

	p.logger.Info("due schedules found", "count", len(pending))
	for _, s := range pending {
		p.execute(ctx, s)
	}
}

func (p *Poller) execute(ctx context.Context, s *schedule.Schedule) {
	start := time.Now()
	err := p.executor(ctx, s)
	elapsed := time.Since(start)

	status := schedule.StatusSuccess
	errMsg := ""
	if err != nil {
		status = schedule.StatusFailed
		errMsg = err.Error()
		p.logger.Error("schedule execution failed",
			"schedule_id", s.ID,
			"name", s.Name,
			"elapsed", elapsed,
			"error", err)
	} else {
		p.logger.Info("schedule executed",
			"schedule_id", s.ID,
			"name", s.Name,
			"elapsed", elapsed)
	}

	if _, err := p.manager.RecordExecution(s.ID, status, errMsg); err != nil {
		p.logger.Error("failed to record execution outcome",
			"schedule_id", s.ID,
			"error", err)
	}
}
