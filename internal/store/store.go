// Package store persists reconciliation runs so past reconciliations can be
// listed, inspected and aggregated. Two backends exist: a SQLite file for
// single-machine use and Postgres for shared history.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/model"
)

// ErrNotFound marks lookups for runs that were never saved.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Stats aggregates the stored run history.
type Stats struct {
	Runs         int       `json:"runs"`
	Records      int       `json:"records"`
	Matched      int       `json:"matched"`
	Unmatched    int       `json:"unmatched"`
	Conflicts    int       `json:"conflicts"`
	AvgMatchRate float64   `json:"avg_match_rate"`
	LastRun      time.Time `json:"last_run,omitempty"`
}

// Store defines the run-history persistence interface. ListRuns returns
// runs without their result sets; GetRun loads the full run.
type Store interface {
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	Stats(ctx context.Context) (*Stats, error)
	Migrate(ctx context.Context) error
	Close() error
}

// resultColumns is the run_results column order shared by both backends.
var resultColumns = []string{
	"run_id", "pos", "src_row", "raw_name", "employee_id", "amount", "period",
	"member_id", "member_name", "score", "kind", "ambiguous", "conflict",
}

// resultRow flattens one match result for insertion at position pos.
func resultRow(runID string, pos int, res model.MatchResult) []any {
	return []any{
		runID, pos, res.Record.Row, res.Record.Name, res.Record.EmployeeID,
		res.Record.Amount, res.Record.Period, res.MemberID, res.MemberName,
		res.Score, string(res.Kind), res.Ambiguous, res.Conflict,
	}
}
