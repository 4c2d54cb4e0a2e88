package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValidationError describes a malformed field in a schedule spec or patch
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule: %s: %s", e.Field, e.Reason)
}

// Spec is the caller-supplied input for creating a schedule. Derived
// and bookkeeping fields (id, timestamps, next execution) are assigned
// by the engine, never by the caller.
type Spec struct {
	Name        string
	Description string
	Payload     Payload
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
	Time        TimeOfDay
	DaysOfWeek  []time.Weekday
	DayOfMonth  int
	// IsActive defaults to true when nil.
	IsActive *bool
	Tags     []string
}

// Validate checks the frequency-specific required fields up front
func (sp *Spec) Validate() error {
	if sp.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !sp.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", sp.Frequency)}
	}
	if sp.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "must be set"}
	}
	if sp.EndDate != nil && sp.EndDate.Before(sp.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	return validateRecurrence(sp.Frequency, sp.DaysOfWeek, sp.DayOfMonth)
}

// validateRecurrence enforces the per-frequency field requirements
func validateRecurrence(freq Frequency, daysOfWeek []time.Weekday, dayOfMonth int) error {
	switch freq {
	case FrequencyWeekly:
		if len(daysOfWeek) == 0 {
			return &ValidationError{Field: "days_of_week", Reason: "weekly schedules require at least one weekday"}
		}
		for _, d := range daysOfWeek {
			if d < time.Sunday || d > time.Saturday {
				return &ValidationError{Field: "days_of_week", Reason: fmt.Sprintf("unknown weekday %d", d)}
			}
		}
	case FrequencyMonthly:
		if dayOfMonth < 1 || dayOfMonth > 31 {
			return &ValidationError{Field: "day_of_month", Reason: "monthly schedules require day_of_month in 1..31"}
		}
	}
	return nil
}

// Patch is a partial update to a schedule. nil fields are left
// unchanged; slice fields use nil for "unchanged" and an empty slice
// for "clear".
type Patch struct {
	Name         *string
	Description  *string
	Payload      Payload
	Frequency    *Frequency
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Time         *TimeOfDay
	DaysOfWeek   []time.Weekday
	DayOfMonth   *int
	IsActive     *bool
	Tags         []string
}

// RecurrenceChanged reports whether the patch touches any field that
// the next-execution instant is derived from.
func (p *Patch) RecurrenceChanged() bool {
	return p.Frequency != nil ||
		p.StartDate != nil ||
		p.EndDate != nil || p.ClearEndDate ||
		p.Time != nil ||
		p.DaysOfWeek != nil ||
		p.DayOfMonth != nil
}

// Apply merges the patch into a copy of s and returns the new value.
// Derived fields are not recomputed here; the caller owns that.
func (p *Patch) Apply(s *Schedule) *Schedule {
	out := s.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Payload != nil {
		out.Payload = make(Payload, len(p.Payload))
		for i, item := range p.Payload {
			out.Payload[i] = append(json.RawMessage(nil), item...)
		}
	}
	if p.Frequency != nil {
		out.Frequency = *p.Frequency
	}
	if p.StartDate != nil {
		out.StartDate = *p.StartDate
	}
	if p.ClearEndDate {
		out.EndDate = nil
	} else if p.EndDate != nil {
		end := *p.EndDate
		out.EndDate = &end
	}
	if p.Time != nil {
		out.Time = *p.Time
	}
	if p.DaysOfWeek != nil {
		out.DaysOfWeek = append([]time.Weekday(nil), p.DaysOfWeek...)
	}
	if p.DayOfMonth != nil {
		out.DayOfMonth = *p.DayOfMonth
	}
	if p.IsActive != nil {
		out.IsActive = *p.IsActive
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	return out
}

// Validate checks a merged schedule the same way a creation spec is
// checked, so a patch can never leave a stored record malformed.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !s.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", s.Frequency)}
	}
	if s.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "must be set"}
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}
	return validateRecurrence(s.Frequency, s.DaysOfWeek, s.DayOfMonth)
}
