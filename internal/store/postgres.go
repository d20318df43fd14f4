package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/db"
	"github.com/sells-group/recon-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertRunSQL  = `INSERT INTO runs (id, started_at, finished_at, roster_path, source_path, threshold, summary) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	getRunSQL     = `SELECT id, started_at, finished_at, roster_path, source_path, threshold, summary FROM runs WHERE id = $1`
	getResultsSQL = `SELECT src_row, raw_name, employee_id, amount, period, member_id, member_name, score, kind, ambiguous, conflict FROM run_results WHERE run_id = $1 ORDER BY pos`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":  insertRunSQL,
	"get_run":     getRunSQL,
	"get_results": getResultsSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	roster_path TEXT NOT NULL,
	source_path TEXT NOT NULL,
	threshold   INTEGER NOT NULL,
	summary     JSONB NOT NULL
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
	ambiguous   BOOLEAN NOT NULL DEFAULT false,
	conflict    BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (run_id, pos)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// SaveRun writes the run row and bulk-copies its results in one
// transaction. A missing run ID is filled in.
func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertRunSQL,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.RosterPath, run.SourcePath, run.Threshold, summaryJSON,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert run %s", run.ID)
	}

	rows := make([][]any, len(run.Results))
	for i, res := range run.Results {
		rows[i] = resultRow(run.ID, i, res)
	}
	if _, err := db.CopyFrom(ctx, tx, "run_results", resultColumns, rows); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit save run")
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx, getRunSQL, id).Scan(
		&r.ID, &r.StartedAt, &r.FinishedAt, &r.RosterPath, &r.SourcePath, &r.Threshold, &summaryJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}

	rows, err := s.pool.Query(ctx, getResultsSQL, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get results of run %s", id)
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
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		res.Kind = model.MatchKind(kind)
		r.Results = append(r.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate results")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, started_at, finished_at, roster_path, source_path, threshold, summary FROM runs`
	args := []any{}
	argIdx := 1

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` WHERE started_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.RosterPath, &r.SourcePath, &r.Threshold, &summaryJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       coalesce(sum((summary->>'total')::bigint), 0),
		       coalesce(sum((summary->>'matched')::bigint), 0),
		       coalesce(sum((summary->>'unmatched')::bigint), 0),
		       coalesce(sum((summary->>'conflicts')::bigint), 0),
		       coalesce(avg((summary->>'match_rate')::float8), 0)
		FROM runs`,
	).Scan(&st.Runs, &st.Records, &st.Matched, &st.Unmatched, &st.Conflicts, &st.AvgMatchRate)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&st.LastRun)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: stats last run")
	}
	return &st, nil
}
