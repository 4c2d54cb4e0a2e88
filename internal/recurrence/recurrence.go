// Package recurrence computes the next qualifying execution instant
// for a schedule's frequency policy. All functions are pure: they
// never mutate the schedule and have no failure path for input that
// passed creation/update validation.
package recurrence

import (
	"time"

	"github.com/cadencelabs/cadence/internal/schedule"
)

// Next returns the next instant strictly after ref at which s should
// execute, computed in loc (UTC when nil). The second result is false
// when the schedule is exhausted: a once schedule whose single
// opportunity has passed, or a recurring schedule whose next candidate
// falls beyond its end date.
func Next(s *schedule.Schedule, ref time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)

	// Never produce a candidate before the start date: when the
	// reference instant precedes it, compute from just before the
	// start instant instead. The start date may carry an intra-day
	// time later than the schedule's own, so clamping to its calendar
	// day is not enough.
	if ref.Before(s.StartDate) {
		ref = s.StartDate.In(loc).Add(-time.Nanosecond)
	}

	var candidate time.Time
	switch s.Frequency {
	case schedule.FrequencyOnce:
		candidate = s.Time.At(s.StartDate, loc)
		if !candidate.After(ref) {
			return time.Time{}, false
		}
	case schedule.FrequencyDaily:
		candidate = s.Time.At(ref, loc)
		if !candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, 1)
		}
	case schedule.FrequencyWeekly:
		ok := false
		candidate, ok = nextWeekly(s, ref, loc)
		if !ok {
			return time.Time{}, false
		}
	case schedule.FrequencyMonthly:
		candidate = nextMonthly(s, ref, loc)
	default:
		return time.Time{}, false
	}

	if s.EndDate != nil && candidate.After(*s.EndDate) {
		return time.Time{}, false
	}
	return candidate, true
}

// nextWeekly scans forward at most a full week for the earliest
// configured weekday whose instant lies strictly after ref.
func nextWeekly(s *schedule.Schedule, ref time.Time, loc *time.Location) (time.Time, bool) {
	if len(s.DaysOfWeek) == 0 {
		return time.Time{}, false
	}
	for offset := 0; offset <= 7; offset++ {
		day := ref.AddDate(0, 0, offset)
		if !weekdayIn(day.Weekday(), s.DaysOfWeek) {
			continue
		}
		if candidate := s.Time.At(day, loc); candidate.After(ref) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// nextMonthly places the candidate on the configured day of the
// current month, clamped to the month's length, advancing one month
// when that instant has already passed.
func nextMonthly(s *schedule.Schedule, ref time.Time, loc *time.Location) time.Time {
	candidate := monthlyCandidate(ref.Year(), ref.Month(), s.DayOfMonth, s.Time, loc)
	if !candidate.After(ref) {
		next := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		candidate = monthlyCandidate(next.Year(), next.Month(), s.DayOfMonth, s.Time, loc)
	}
	return candidate
}

func monthlyCandidate(year int, month time.Month, day int, tod schedule.TimeOfDay, loc *time.Location) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, tod.Hour, tod.Minute, 0, 0, loc)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func weekdayIn(d time.Weekday, set []time.Weekday) bool {
	for _, v := range set {
		if v == d {
			return true
		}
	}
	return false
}
