// Package engine composes the schedule store, execution ledger, and
// recurrence calculator into the single orchestration surface callers
// use. The engine is synchronous and does no internal locking; a
// multi-threaded host serializes access to the Manager itself.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencelabs/cadence/internal/ledger"
	"github.com/cadencelabs/cadence/internal/recurrence"
	"github.com/cadencelabs/cadence/internal/schedule"
	"github.com/cadencelabs/cadence/internal/store"
)

// Config holds the engine's recurrence and due-detection policy
type Config struct {
	// DueWindow is the tolerance after next_execution_at during which
	// a schedule is still due. <= 0 selects DefaultDueWindow.
	DueWindow time.Duration

	// Location is the canonical time basis for recurrence arithmetic.
	// nil selects UTC.
	Location *time.Location

	// Now overrides the clock; nil selects time.Now.
	Now func() time.Time
}

// Manager orchestrates schedule lifecycle, due detection, and
// execution bookkeeping.
type Manager struct {
	store  *store.ScheduleStore
	ledger *ledger.Ledger
	cfg    Config
	logger *slog.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewManager creates a manager over the given store and ledger
func NewManager(st *store.ScheduleStore, lg *ledger.Ledger, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:  st,
		ledger: lg,
		cfg:    cfg,
		logger: logger,
		now:    now,
	}
}

// Create validates the spec, assigns identity and bookkeeping fields,
// computes the initial next-execution instant, and persists the new
// schedule.
func (m *Manager) Create(spec schedule.Spec) (*schedule.Schedule, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	active := true
	if spec.IsActive != nil {
		active = *spec.IsActive
	}

	s := &schedule.Schedule{
		ID:          uuid.New().String(),
		Name:        spec.Name,
		Description: spec.Description,
		Payload:     spec.Payload,
		Frequency:   spec.Frequency,
		StartDate:   spec.StartDate,
		EndDate:     spec.EndDate,
		Time:        spec.Time,
		DaysOfWeek:  spec.DaysOfWeek,
		DayOfMonth:  spec.DayOfMonth,
		IsActive:    active,
		Tags:        spec.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// Detach from the caller's spec: mutating its slices or end date
	// afterwards must not reach the stored schedule.
	s = s.Clone()
	m.recomputeNext(s, now)

	if err := m.store.Put(s); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	m.logger.Info("schedule created",
		"schedule_id", s.ID,
		"name", s.Name,
		"frequency", s.Frequency)
	return s, nil
}

// Get retrieves a schedule by ID
func (m *Manager) Get(id string) (*schedule.Schedule, error) {
	return m.store.Get(id)
}

// All returns every stored schedule
func (m *Manager) All() []*schedule.Schedule {
	return m.store.All()
}

// Update merges a partial update into the stored schedule. The
// next-execution instant is recomputed only when a recurrence-relevant
// field changed, so an empty patch never perturbs it. Returns
// store.ErrNotFound for an unknown ID.
func (m *Manager) Update(id string, patch schedule.Patch) (*schedule.Schedule, error) {
	existing, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(existing)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	updated.UpdatedAt = now
	if patch.RecurrenceChanged() {
		m.recomputeNext(updated, now)
	}

	if err := m.store.Update(updated); err != nil {
		return nil, err
	}

	m.logger.Info("schedule updated", "schedule_id", id)
	return updated, nil
}

// Delete removes a schedule, reporting whether it existed. Execution
// history is retained for audit; use PurgeHistory to drop it.
func (m *Manager) Delete(id string) bool {
	removed, err := m.store.Delete(id)
	if err != nil {
		m.logger.Error("failed to delete schedule", "schedule_id", id, "error", err)
		return false
	}
	if removed {
		m.logger.Info("schedule deleted", "schedule_id", id)
	}
	return removed
}

// Duplicate clones a schedule under a new identity. The copy has
// never executed: last-executed is cleared and the next-execution
// instant is computed fresh. Returns store.ErrNotFound for an unknown
// ID.
func (m *Manager) Duplicate(id, newName string) (*schedule.Schedule, error) {
	original, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	now := m.now()
	dup := original.Clone()
	dup.ID = uuid.New().String()
	if newName != "" {
		dup.Name = newName
	} else {
		dup.Name = original.Name + " (copy)"
	}
	dup.LastExecutedAt = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now
	m.recomputeNext(dup, now)

	if err := m.store.Put(dup); err != nil {
		return nil, fmt.Errorf("failed to persist duplicate: %w", err)
	}

	m.logger.Info("schedule duplicated",
		"schedule_id", id,
		"duplicate_id", dup.ID)
	return dup, nil
}

// RecordExecution appends one outcome to the schedule's history, marks
// the schedule executed now, and advances its next-execution instant.
func (m *Manager) RecordExecution(id string, status schedule.ExecutionStatus, errMsg string) (*schedule.ExecutionRecord, error) {
	s, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown execution status %q", status)
	}

	now := m.now()
	record, err := m.ledger.Append(id, status, errMsg, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	s.LastExecutedAt = &now
	s.UpdatedAt = now
	m.recomputeNext(s, now)

	if err := m.store.Update(s); err != nil {
		return nil, err
	}

	m.logger.Info("execution recorded",
		"schedule_id", id,
		"status", status,
		"exhausted", s.Exhausted())
	return record, nil
}

// PendingSchedules returns every schedule that is due at now. A zero
// now defaults to the current instant.
func (m *Manager) PendingSchedules(now time.Time) []*schedule.Schedule {
	if now.IsZero() {
		now = m.now()
	}

	pending := []*schedule.Schedule{}
	for _, s := range m.store.All() {
		if IsDue(s, now, m.cfg.DueWindow) {
			pending = append(pending, s)
		}
	}
	return pending
}

// SearchByText returns schedules matching the query over name and
// description, case-insensitively.
func (m *Manager) SearchByText(query string) []*schedule.Schedule {
	return m.store.SearchByText(query)
}

// ByTag returns schedules carrying the exact tag
func (m *Manager) ByTag(tag string) []*schedule.Schedule {
	return m.store.ByTag(tag)
}

// AllTags returns every tag in use, deduplicated and sorted
func (m *Manager) AllTags() []string {
	return m.store.AllTags()
}

// History returns the most recent execution records for a schedule,
// newest first. limit <= 0 selects the ledger default.
func (m *Manager) History(id string, limit int) []*schedule.ExecutionRecord {
	return m.ledger.History(id, limit)
}

// PurgeHistory drops all retained execution history for a schedule
func (m *Manager) PurgeHistory(id string) error {
	return m.ledger.Purge(id)
}

// recomputeNext refreshes the cached next-execution instant from ref.
// An exhausted schedule gets nil, which due detection treats as
// permanently not-due.
func (m *Manager) recomputeNext(s *schedule.Schedule, ref time.Time) {
	next, ok := recurrence.Next(s, ref, m.cfg.Location)
	if !ok {
		s.NextExecutionAt = nil
		return
	}
	s.NextExecutionAt = &next
}
