package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencelabs/cadence/internal/schedule"
)

func date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func daily(start time.Time, tod string) *schedule.Schedule {
	return &schedule.Schedule{
		Frequency: schedule.FrequencyDaily,
		StartDate: start,
		Time:      schedule.MustTimeOfDay(tod),
	}
}

func TestNextDailyLaterToday(t *testing.T) {
	s := daily(date(2024, time.November, 16, 8, 0), "14:00")

	next, ok := Next(s, date(2024, time.November, 16, 9, 0), time.UTC)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 16, 14, 0), next)
}

func TestNextDailyRollsToNextDay(t *testing.T) {
	s := daily(date(2024, time.November, 1, 0, 0), "08:00")

	// Exactly at the execution time: today's slot has passed.
	next, ok := Next(s, date(2024, time.November, 16, 8, 0), time.UTC)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 17, 8, 0), next)
}

func TestNextDailyBeforeStartDate(t *testing.T) {
	s := daily(date(2024, time.December, 1, 0, 0), "08:00")

	next, ok := Next(s, date(2024, time.November, 16, 12, 0), time.UTC)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.December, 1, 8, 0), next)
}

func TestNextDailyStartDateWithLaterIntradayTime(t *testing.T) {
	// The start date carries 08:00, later than the schedule's 06:00.
	// The 06:00 slot on the start day precedes the start date itself,
	// so the first occurrence is the following day.
	s := daily(date(2024, time.November, 16, 8, 0), "06:00")

	next, ok := Next(s, date(2024, time.November, 10, 0, 0), time.UTC)

	require.True(t, ok)
	assert.False(t, next.Before(s.StartDate), "next %v precedes start date %v", next, s.StartDate)
	assert.Equal(t, date(2024, time.November, 17, 6, 0), next)
}

func TestNextOnceBeforeOwnStartInstantIsExhausted(t *testing.T) {
	// A once schedule whose time of day falls before the start date's
	// intra-day time has no instant at or after the start date.
	s := &schedule.Schedule{
		Frequency: schedule.FrequencyOnce,
		StartDate: date(2024, time.November, 16, 8, 0),
		Time:      schedule.MustTimeOfDay("06:00"),
	}

	_, ok := Next(s, date(2024, time.November, 10, 0, 0), time.UTC)
	assert.False(t, ok)
}

func TestNextWeeklyStartDateWithLaterIntradayTime(t *testing.T) {
	// 2024-11-16 is a Saturday; its 06:00 slot precedes the 08:00
	// start date, so the first occurrence is the next Saturday.
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyWeekly,
		StartDate:  date(2024, time.November, 16, 8, 0),
		Time:       schedule.MustTimeOfDay("06:00"),
		DaysOfWeek: []time.Weekday{time.Saturday},
	}

	next, ok := Next(s, date(2024, time.November, 10, 0, 0), time.UTC)

	require.True(t, ok)
	assert.False(t, next.Before(s.StartDate), "next %v precedes start date %v", next, s.StartDate)
	assert.Equal(t, date(2024, time.November, 23, 6, 0), next)
}

func TestNextDailyNeverDecreases(t *testing.T) {
	s := daily(date(2024, time.November, 1, 0, 0), "14:30")

	ref := date(2024, time.November, 16, 9, 0)
	var prev time.Time
	for i := 0; i < 40; i++ {
		next, ok := Next(s, ref, time.UTC)
		require.True(t, ok)
		assert.True(t, next.After(prev), "iteration %d: %v not after %v", i, next, prev)
		assert.Equal(t, 14, next.Hour())
		assert.Equal(t, 30, next.Minute())
		prev = next
		ref = next
	}
}

func TestNextOnce(t *testing.T) {
	s := &schedule.Schedule{
		Frequency: schedule.FrequencyOnce,
		StartDate: date(2024, time.November, 20, 0, 0),
		Time:      schedule.MustTimeOfDay("10:00"),
	}

	next, ok := Next(s, date(2024, time.November, 16, 9, 0), time.UTC)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 20, 10, 0), next)

	// The single opportunity has passed.
	_, ok = Next(s, date(2024, time.November, 20, 10, 0), time.UTC)
	assert.False(t, ok)

	_, ok = Next(s, date(2024, time.December, 1, 0, 0), time.UTC)
	assert.False(t, ok)
}

func TestNextWeeklyWrapsToFollowingWeek(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyWeekly,
		StartDate:  date(2024, time.November, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("09:00"),
		DaysOfWeek: []time.Weekday{time.Monday},
	}

	// 2024-11-16 is a Saturday.
	ref := date(2024, time.November, 16, 12, 0)
	require.Equal(t, time.Saturday, ref.Weekday())

	next, ok := Next(s, ref, time.UTC)

	require.True(t, ok)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, date(2024, time.November, 18, 9, 0), next)
}

func TestNextWeeklyAlwaysLandsOnConfiguredDays(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyWeekly,
		StartDate:  date(2024, time.November, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("07:15"),
		DaysOfWeek: []time.Weekday{time.Tuesday, time.Friday},
	}

	ref := date(2024, time.November, 16, 0, 0)
	for i := 0; i < 20; i++ {
		next, ok := Next(s, ref, time.UTC)
		require.True(t, ok)
		assert.Contains(t, s.DaysOfWeek, next.Weekday())
		assert.True(t, next.After(ref))
		ref = next
	}
}

func TestNextWeeklyLaterSameDay(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyWeekly,
		StartDate:  date(2024, time.November, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("18:00"),
		DaysOfWeek: []time.Weekday{time.Saturday},
	}

	next, ok := Next(s, date(2024, time.November, 16, 12, 0), time.UTC)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 16, 18, 0), next)
}

func TestNextMonthlyAdvancesToFollowingMonth(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyMonthly,
		StartDate:  date(2024, time.January, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("12:00"),
		DayOfMonth: 10,
	}

	next, ok := Next(s, date(2024, time.November, 16, 9, 0), time.UTC)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.December, 10, 12, 0), next)
}

func TestNextMonthlyClampsToMonthLength(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyMonthly,
		StartDate:  date(2024, time.January, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("08:00"),
		DayOfMonth: 31,
	}

	// November has 30 days.
	next, ok := Next(s, date(2024, time.November, 1, 0, 0), time.UTC)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 30, 8, 0), next)

	// February 2025 has 28 days.
	next, ok = Next(s, date(2025, time.February, 1, 0, 0), time.UTC)
	require.True(t, ok)
	assert.Equal(t, date(2025, time.February, 28, 8, 0), next)
}

func TestNextMonthlyDayMatchesUnlessClamped(t *testing.T) {
	s := &schedule.Schedule{
		Frequency:  schedule.FrequencyMonthly,
		StartDate:  date(2024, time.January, 1, 0, 0),
		Time:       schedule.MustTimeOfDay("06:00"),
		DayOfMonth: 29,
	}

	ref := date(2024, time.January, 1, 0, 0)
	for i := 0; i < 24; i++ {
		next, ok := Next(s, ref, time.UTC)
		require.True(t, ok)
		last := time.Date(next.Year(), next.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if s.DayOfMonth <= last {
			assert.Equal(t, s.DayOfMonth, next.Day())
		} else {
			assert.Equal(t, last, next.Day())
		}
		ref = next
	}
}

func TestNextExhaustedPastEndDate(t *testing.T) {
	end := date(2024, time.November, 20, 23, 59)
	s := daily(date(2024, time.November, 1, 0, 0), "08:00")
	s.EndDate = &end

	next, ok := Next(s, date(2024, time.November, 19, 12, 0), time.UTC)
	require.True(t, ok)
	assert.Equal(t, date(2024, time.November, 20, 8, 0), next)

	// Candidate would land on the 21st, past the end date.
	_, ok = Next(s, date(2024, time.November, 20, 12, 0), time.UTC)
	assert.False(t, ok)
}

func TestNextUsesConfiguredLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := daily(time.Date(2024, time.November, 1, 0, 0, 0, 0, loc), "14:00")

	// 18:30 UTC on 2024-11-16 is 13:30 in New York, so 14:00 local is
	// still ahead on the same day.
	ref := date(2024, time.November, 16, 18, 30)
	next, ok := Next(s, ref, loc)

	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.November, 16, 14, 0, 0, 0, loc), next)
}

func TestNextWeeklyWithoutDaysIsExhausted(t *testing.T) {
	s := &schedule.Schedule{
		Frequency: schedule.FrequencyWeekly,
		StartDate: date(2024, time.November, 1, 0, 0),
		Time:      schedule.MustTimeOfDay("09:00"),
	}

	_, ok := Next(s, date(2024, time.November, 16, 0, 0), time.UTC)
	assert.False(t, ok)
}
