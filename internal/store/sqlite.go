package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/recon-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	roster_path TEXT NOT NULL,
	source_path TEXT NOT NULL,
	threshold   INTEGER NOT NULL,
	summary     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pos         INTEGER NOT NULL,
	src_row     INTEGER NOT NULL,
	raw_name    TEXT NOT NULL,
	employee_id TEXT NOT NULL DEFAULT '',
	amount      TEXT NOT NULL DEFAULT '',
	period      TEXT NOT NULL DEFAULT '',
	member_id   TEXT NOT NULL DEFAULT '',
	member_name TEXT NOT NULL DEFAULT '',
	score       INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	ambiguous   INTEGER NOT NULL DEFAULT 0,
	conflict    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, pos)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// SaveRun writes the run and its result rows in one transaction. A missing
// run ID is filled in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, roster_path, source_path, threshold, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.RosterPath, run.SourcePath, run.Threshold, string(summaryJSON),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO run_results (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.Join(resultColumns, ", "),
	))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare result insert")
	}
	defer stmt.Close()

	for i, res := range run.Results {
		if _, err := stmt.ExecContext(ctx, resultRow(run.ID, i, res)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert result %d of run %s", i, run.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var r model.Run
	var summaryJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, roster_path, source_path, threshold, summary
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.RosterPath, &r.SourcePath, &r.Threshold, &summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT src_row, raw_name, employee_id, amount, period, member_id, member_name, score, kind, ambiguous, conflict
		 FROM run_results WHERE run_id = ? ORDER BY pos`, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get results of run %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.MatchResult
		var kind string
		if err := rows.Scan(
			&res.Record.Row, &res.Record.Name, &res.Record.EmployeeID,
			&res.Record.Amount, &res.Record.Period, &res.MemberID, &res.MemberName,
			&res.Score, &kind, &res.Ambiguous, &res.Conflict,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		res.Kind = model.MatchKind(kind)
		r.Results = append(r.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate results")
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, started_at, finished_at, roster_path, source_path, threshold, summary FROM runs`
	args := []any{}

	if !filter.Since.IsZero() {
		query += ` WHERE started_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.RosterPath, &r.SourcePath, &r.Threshold, &summaryJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*),
		       coalesce(sum(json_extract(summary, '$.total')), 0),
		       coalesce(sum(json_extract(summary, '$.matched')), 0),
		       coalesce(sum(json_extract(summary, '$.unmatched')), 0),
		       coalesce(sum(json_extract(summary, '$.conflicts')), 0),
		       coalesce(avg(json_extract(summary, '$.match_rate')), 0)
		FROM runs`,
	).Scan(&st.Runs, &st.Records, &st.Matched, &st.Unmatched, &st.Conflicts, &st.AvgMatchRate)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&st.LastRun)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(err, "sqlite: stats last run")
	}
	return &st, nil
}
