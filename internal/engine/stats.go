package engine

import "github.com/cadencelabs/cadence/internal/schedule"

// Stats aggregates schedule counts and execution totals
type Stats struct {
	Total       int                        `json:"total"`
	Active      int                        `json:"active"`
	Inactive    int                        `json:"inactive"`
	ByFrequency map[schedule.Frequency]int `json:"by_frequency"`
	Executions  ExecutionStats             `json:"executions"`
}

// ExecutionStats aggregates outcomes across all ledgers
type ExecutionStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Stats aggregates counts over every stored schedule and all retained
// execution history.
func (m *Manager) Stats() Stats {
	stats := Stats{
		ByFrequency: map[schedule.Frequency]int{},
	}

	for _, s := range m.store.All() {
		stats.Total++
		if s.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByFrequency[s.Frequency]++
	}

	total, succeeded, failed := m.ledger.Totals()
	stats.Executions = ExecutionStats{
		Total:     total,
		Succeeded: succeeded,
		Failed:    failed,
	}
	return stats
}
