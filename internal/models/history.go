package models

import "time"

type QueryOutcome string

const (
	OutcomeOK       QueryOutcome = "ok"
	OutcomeNotFound QueryOutcome = "not_found"
	OutcomeError    QueryOutcome = "error"
)

// HistoryEntry is one answered request kept in the audit log.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Intent    string        `json:"intent"`
	Params    string        `json:"params"` // request parameters as JSON
	Outcome   QueryOutcome  `json:"outcome"`
	Summary   string        `json:"summary,omitempty"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	CreatedAt time.Time     `json:"created_at"`
}
