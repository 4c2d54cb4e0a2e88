package schedule

import (
	"encoding/json"
	"time"
)

// Frequency is the recurrence class of a schedule
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a known frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ExecutionStatus is the outcome of one firing attempt
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
)

// Valid reports whether s is a known execution status
func (s ExecutionStatus) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Payload is the ordered list of domain items a schedule acts on when
// it fires. The engine never interprets its contents.
type Payload []json.RawMessage

// Schedule represents a recurring task definition
type Schedule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Payload     Payload   `json:"payload,omitempty"`
	Frequency   Frequency `json:"frequency"`
	StartDate   time.Time `json:"start_date"`
	// EndDate, when set, is the instant after which the schedule must
	// never fire again.
	EndDate *time.Time `json:"end_date,omitempty"`
	Time    TimeOfDay  `json:"time"`
	// DaysOfWeek is required and meaningful only for weekly schedules.
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	// DayOfMonth is required and meaningful only for monthly schedules.
	DayOfMonth int      `json:"day_of_month,omitempty"`
	IsActive   bool     `json:"is_active"`
	Tags       []string `json:"tags,omitempty"`
	// NextExecutionAt is the cached next-fire instant. nil means the
	// schedule is exhausted and will never fire again.
	NextExecutionAt *time.Time `json:"next_execution_at,omitempty"`
	LastExecutedAt  *time.Time `json:"last_executed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Exhausted reports whether the schedule has no future execution
func (s *Schedule) Exhausted() bool {
	return s.NextExecutionAt == nil
}

// HasTag reports whether the schedule carries the exact tag
func (s *Schedule) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the schedule
func (s *Schedule) Clone() *Schedule {
	c := *s
	if s.Payload != nil {
		c.Payload = make(Payload, len(s.Payload))
		for i, item := range s.Payload {
			c.Payload[i] = append(json.RawMessage(nil), item...)
		}
	}
	if s.DaysOfWeek != nil {
		c.DaysOfWeek = append([]time.Weekday(nil), s.DaysOfWeek...)
	}
	if s.Tags != nil {
		c.Tags = append([]string(nil), s.Tags...)
	}
	if s.EndDate != nil {
		end := *s.EndDate
		c.EndDate = &end
	}
	if s.NextExecutionAt != nil {
		next := *s.NextExecutionAt
		c.NextExecutionAt = &next
	}
	if s.LastExecutedAt != nil {
		last := *s.LastExecutedAt
		c.LastExecutedAt = &last
	}
	return &c
}

// ExecutionRecord represents one outcome of one firing attempt
type ExecutionRecord struct {
	ID           string          `json:"id"`
	ScheduleID   string          `json:"schedule_id"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}
