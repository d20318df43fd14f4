package model

import "time"

// Run is one persisted reconciliation in the run-history store.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	RosterPath string        `json:"roster_path"`
	SourcePath string        `json:"source_path"`
	Threshold  int           `json:"threshold"`
	Summary    Summary       `json:"summary"`
	Results    []MatchResult `json:"results,omitempty"`
}
