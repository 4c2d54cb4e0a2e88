// Package ledger keeps the bounded, append-only history of execution
// outcomes recorded against each schedule. Records reference their
// schedule by ID; the schedule record itself never embeds them.
package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencelabs/cadence/internal/schedule"
	"github.com/cadencelabs/cadence/internal/storage"
)

const (
	// DefaultHistoryLimit is how many records History returns when the
	// caller does not ask for a specific count.
	DefaultHistoryLimit = 10

	// DefaultMaxPerSchedule bounds retained history per schedule.
	// Unbounded append is not an option; oldest records drop first.
	DefaultMaxPerSchedule = 50
)

const recordsKey = "cadence.executions"

// Ledger is the per-schedule execution history
type Ledger struct {
	kv             storage.KV
	maxPerSchedule int
	logger         *slog.Logger
}

// New creates a ledger on top of kv. maxPerSchedule <= 0 selects
// DefaultMaxPerSchedule.
func New(kv storage.KV, maxPerSchedule int, logger *slog.Logger) *Ledger {
	if maxPerSchedule <= 0 {
		maxPerSchedule = DefaultMaxPerSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{kv: kv, maxPerSchedule: maxPerSchedule, logger: logger}
}

// Append records one firing outcome for scheduleID at the given
// instant and returns the new record. When the schedule's history is
// at its bound, the oldest records are dropped.
func (l *Ledger) Append(scheduleID string, status schedule.ExecutionStatus, errMsg string, at time.Time) (*schedule.ExecutionRecord, error) {
	record := &schedule.ExecutionRecord{
		ID:           uuid.New().String(),
		ScheduleID:   scheduleID,
		Status:       status,
		ErrorMessage: errMsg,
		Timestamp:    at,
	}

	histories := l.load()
	history := append(histories[scheduleID], record)
	if excess := len(history) - l.maxPerSchedule; excess > 0 {
		history = history[excess:]
	}
	histories[scheduleID] = history

	if err := l.save(histories); err != nil {
		return nil, err
	}
	return record, nil
}

// History returns the most recent records for scheduleID, newest
// first. limit <= 0 selects DefaultHistoryLimit.
func (l *Ledger) History(scheduleID string, limit int) []*schedule.ExecutionRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	history := l.load()[scheduleID]

	// Stored oldest-first; return newest-first.
	out := []*schedule.ExecutionRecord{}
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out
}

// Purge drops all retained history for scheduleID. Deleting a
// schedule does not call this; history is retained for audit until a
// caller explicitly purges it.
func (l *Ledger) Purge(scheduleID string) error {
	histories := l.load()
	if _, ok := histories[scheduleID]; !ok {
		return nil
	}
	delete(histories, scheduleID)
	return l.save(histories)
}

// Totals returns execution counts across all schedules
func (l *Ledger) Totals() (total, succeeded, failed int) {
	for _, history := range l.load() {
		for _, record := range history {
			total++
			if record.Status == schedule.StatusSuccess {
				succeeded++
			} else {
				failed++
			}
		}
	}
	return total, succeeded, failed
}

// load reads all histories, treating missing or corrupt data as empty
func (l *Ledger) load() map[string][]*schedule.ExecutionRecord {
	histories := map[string][]*schedule.ExecutionRecord{}

	data, err := l.kv.Get(recordsKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNoKey) {
			l.logger.Warn("failed to load execution history, treating as empty", "error", err)
		}
		return histories
	}

	if err := json.Unmarshal(data, &histories); err != nil {
		l.logger.Warn("corrupt execution history, treating as empty", "error", err)
		return map[string][]*schedule.ExecutionRecord{}
	}
	return histories
}

func (l *Ledger) save(histories map[string][]*schedule.ExecutionRecord) error {
	data, err := json.Marshal(histories)
	if err != nil {
		return err
	}
	return l.kv.Set(recordsKey, data)
}
