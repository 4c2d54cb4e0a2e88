package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/cadencelabs/cadence/internal/schedule"
	"github.com/cadencelabs/cadence/internal/storage"
)

func newTestLedger(t *testing.T, maxPerSchedule int) (*Ledger, *storage.Memory) {
	t.Helper()

	kv := storage.NewMemory()
	return New(kv, maxPerSchedule, nil), kv
}

func TestAppendAndHistory(t *testing.T) {
	l, _ := newTestLedger(t, 10)

	at := time.Date(2024, time.November, 16, 14, 0, 0, 0, time.UTC)
	record, err := l.Append("s-1", schedule.StatusSuccess, "", at)
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if record.ID == "" {
		t.Error("expected record to be assigned an id")
	}
	if record.ScheduleID != "s-1" {
		t.Errorf("expected schedule id s-1, got %q", record.ScheduleID)
	}
	if !record.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, record.Timestamp)
	}

	if _, err := l.Append("s-1", schedule.StatusFailed, "timeout", at.Add(time.Minute)); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	history := l.History("s-1", 0)
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	// Most recent first.
	if history[0].Status != schedule.StatusFailed {
		t.Errorf("expected newest record first, got %s", history[0].Status)
	}
	if history[0].ErrorMessage != "timeout" {
		t.Errorf("expected error message retained, got %q", history[0].ErrorMessage)
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	l, _ := newTestLedger(t, 50)

	at := time.Date(2024, time.November, 16, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		if _, err := l.Append("s-1", schedule.StatusSuccess, "", at.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("failed to append record %d: %v", i, err)
		}
	}

	if got := l.History("s-1", 0); len(got) != DefaultHistoryLimit {
		t.Errorf("expected default limit of %d, got %d", DefaultHistoryLimit, len(got))
	}
	if got := l.History("s-1", 5); len(got) != 5 {
		t.Errorf("expected 5 records, got %d", len(got))
	}
	if got := l.History("s-1", 100); len(got) != 25 {
		t.Errorf("expected all 25 records, got %d", len(got))
	}
}

func TestBoundedPerSchedule(t *testing.T) {
	l, _ := newTestLedger(t, 5)

	at := time.Date(2024, time.November, 16, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		msg := fmt.Sprintf("attempt %d", i)
		if _, err := l.Append("s-1", schedule.StatusFailed, msg, at.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("failed to append record %d: %v", i, err)
		}
	}

	history := l.History("s-1", 100)
	if len(history) != 5 {
		t.Fatalf("expected history bounded to 5, got %d", len(history))
	}
	// Oldest records dropped first: 0..2 gone, newest is attempt 7.
	if history[0].ErrorMessage != "attempt 7" {
		t.Errorf("expected newest record attempt 7, got %q", history[0].ErrorMessage)
	}
	if history[4].ErrorMessage != "attempt 3" {
		t.Errorf("expected oldest surviving record attempt 3, got %q", history[4].ErrorMessage)
	}
}

func TestHistoriesAreIndependent(t *testing.T) {
	l, _ := newTestLedger(t, 10)

	at := time.Now().UTC()
	if _, err := l.Append("s-1", schedule.StatusSuccess, "", at); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if _, err := l.Append("s-2", schedule.StatusFailed, "boom", at); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	if got := l.History("s-1", 0); len(got) != 1 || got[0].Status != schedule.StatusSuccess {
		t.Error("expected s-1 history to hold its own record only")
	}
	if got := l.History("s-3", 0); len(got) != 0 {
		t.Errorf("expected empty history for unknown schedule, got %d", len(got))
	}
}

func TestPurge(t *testing.T) {
	l, _ := newTestLedger(t, 10)

	at := time.Now().UTC()
	if _, err := l.Append("s-1", schedule.StatusSuccess, "", at); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	if err := l.Purge("s-1"); err != nil {
		t.Fatalf("failed to purge: %v", err)
	}
	if got := l.History("s-1", 0); len(got) != 0 {
		t.Errorf("expected purged history to be empty, got %d", len(got))
	}

	// Purging an unknown schedule is a no-op.
	if err := l.Purge("s-9"); err != nil {
		t.Errorf("expected purge of unknown schedule to succeed, got %v", err)
	}
}

func TestTotals(t *testing.T) {
	l, _ := newTestLedger(t, 10)

	at := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if _, err := l.Append("s-1", schedule.StatusSuccess, "", at); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}
	if _, err := l.Append("s-2", schedule.StatusFailed, "boom", at); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	total, succeeded, failed := l.Totals()
	if total != 4 || succeeded != 3 || failed != 1 {
		t.Errorf("expected totals 4/3/1, got %d/%d/%d", total, succeeded, failed)
	}
}

func TestCorruptHistoryYieldsEmpty(t *testing.T) {
	l, kv := newTestLedger(t, 10)

	if err := kv.Set("cadence.executions", []byte("[oops")); err != nil {
		t.Fatalf("failed to seed corrupt data: %v", err)
	}

	if got := l.History("s-1", 0); len(got) != 0 {
		t.Errorf("expected empty history for corrupt data, got %d", len(got))
	}

	// Appending replaces the corrupt document.
	if _, err := l.Append("s-1", schedule.StatusSuccess, "", time.Now().UTC()); err != nil {
		t.Fatalf("failed to append after corruption: %v", err)
	}
	if got := l.History("s-1", 0); len(got) != 1 {
		t.Errorf("expected ledger to recover after corruption, got %d records", len(got))
	}
}
