// Package store persists Schedule records in a bounded keyed
// collection. It owns the serialized form of every schedule; callers
// go through the engine for anything that touches derived fields.
package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/cadencelabs/cadence/internal/schedule"
	"github.com/cadencelabs/cadence/internal/storage"
)

// DefaultCapacity bounds the number of schedules kept. The store is
// meant to sit on storage media with small size limits, so the bound
// is part of the contract: inserting at capacity silently evicts the
// oldest schedule rather than failing.
const DefaultCapacity = 200

const schedulesKey = "cadence.schedules"

// Standard errors
var (
	ErrNotFound = errors.New("store: schedule not found")
)

// ScheduleStore is the keyed, capacity-bounded schedule collection
type ScheduleStore struct {
	kv       storage.KV
	capacity int
	logger   *slog.Logger
}

// New creates a schedule store on top of kv. capacity <= 0 selects
// DefaultCapacity.
func New(kv storage.KV, capacity int, logger *slog.Logger) *ScheduleStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleStore{kv: kv, capacity: capacity, logger: logger}
}

// All returns every stored schedule. Corrupt or unparseable stored
// data yields an empty slice, never an error: the polling loop must
// stay alive across persistence corruption.
func (st *ScheduleStore) All() []*schedule.Schedule {
	data, err := st.kv.Get(schedulesKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNoKey) {
			st.logger.Warn("failed to load schedules, treating as empty", "error", err)
		}
		return []*schedule.Schedule{}
	}

	var schedules []*schedule.Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		st.logger.Warn("corrupt schedule data, treating as empty", "error", err)
		return []*schedule.Schedule{}
	}
	return schedules
}

// Get retrieves a schedule by ID
func (st *ScheduleStore) Get(id string) (*schedule.Schedule, error) {
	for _, s := range st.All() {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

// Put inserts a new schedule. When the collection is at capacity the
// oldest schedule by creation time is evicted first.
func (st *ScheduleStore) Put(s *schedule.Schedule) error {
	schedules := st.All()

	for len(schedules) >= st.capacity {
		oldest := 0
		for i, candidate := range schedules {
			if candidate.CreatedAt.Before(schedules[oldest].CreatedAt) {
				oldest = i
			}
		}
		st.logger.Info("schedule store at capacity, evicting oldest",
			"evicted_id", schedules[oldest].ID,
			"capacity", st.capacity)
		schedules = append(schedules[:oldest], schedules[oldest+1:]...)
	}

	schedules = append(schedules, s)
	return st.save(schedules)
}

// Update replaces the stored schedule with the same ID
func (st *ScheduleStore) Update(s *schedule.Schedule) error {
	schedules := st.All()
	for i, existing := range schedules {
		if existing.ID == s.ID {
			schedules[i] = s
			return st.save(schedules)
		}
	}
	return ErrNotFound
}

// Delete removes a schedule by ID, reporting whether it existed
func (st *ScheduleStore) Delete(id string) (bool, error) {
	schedules := st.All()
	for i, existing := range schedules {
		if existing.ID == id {
			schedules = append(schedules[:i], schedules[i+1:]...)
			if err := st.save(schedules); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// SearchByText returns schedules whose name or description contains
// the query, case-insensitively.
func (st *ScheduleStore) SearchByText(query string) []*schedule.Schedule {
	q := strings.ToLower(query)

	matches := []*schedule.Schedule{}
	for _, s := range st.All() {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			matches = append(matches, s)
		}
	}
	return matches
}

// ByTag returns schedules carrying the exact tag
func (st *ScheduleStore) ByTag(tag string) []*schedule.Schedule {
	matches := []*schedule.Schedule{}
	for _, s := range st.All() {
		if s.HasTag(tag) {
			matches = append(matches, s)
		}
	}
	return matches
}

// AllTags returns every tag in use, deduplicated and sorted
func (st *ScheduleStore) AllTags() []string {
	seen := map[string]bool{}
	for _, s := range st.All() {
		for _, tag := range s.Tags {
			seen[tag] = true
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (st *ScheduleStore) save(schedules []*schedule.Schedule) error {
	data, err := json.Marshal(schedules)
	if err != nil {
		return err
	}
	return st.kv.Set(schedulesKey, data)
}
