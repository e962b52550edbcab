package pipeline

import (
	"time"

	"call-insights-go/internal/types"
)

type Summary struct {
	RunID    string               `json:"run_id"`
	Total    int                  `json:"total"`
	Counts   map[types.Status]int `json:"counts"`
	Outcomes []types.Outcome      `json:"outcomes"`
	Duration time.Duration        `json:"duration"`
}

// Summarize counts outcomes by status. Outcome order is kept.
func Summarize(runID string, outcomes []types.Outcome) Summary {
	s := Summary{RunID: runID, Total: len(outcomes), Counts: map[types.Status]int{}, Outcomes: outcomes}
	for _, o := range outcomes {
		s.Counts[o.Status]++
	}
	return s
}

func (s Summary) Failed() int {
	return s.Total - s.Counts[types.StatusSuccess]
}

// ExitCode is 0 when every source succeeded (or there were none), else 1.
func (s Summary) ExitCode() int {
	if s.Failed() > 0 {
		return 1
	}
	return 0
}
