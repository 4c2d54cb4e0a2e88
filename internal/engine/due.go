package engine

import (
	"time"

	"github.com/cadencelabs/cadence/internal/schedule"
)

// DefaultDueWindow is the tolerance after a schedule's next-execution
// instant during which it still counts as currently due. Beyond it a
// missed firing is skipped, not replayed: a caller that was offline
// for days must not fire every missed period on its next poll.
const DefaultDueWindow = time.Minute

// IsDue reports whether s should fire at now, given the due window.
// window <= 0 selects DefaultDueWindow.
func IsDue(s *schedule.Schedule, now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultDueWindow
	}

	if !s.IsActive {
		return false
	}
	if now.Before(s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	if s.Exhausted() {
		return false
	}

	next := *s.NextExecutionAt
	if next.After(now) {
		return false
	}
	return now.Sub(next) <= window
}
