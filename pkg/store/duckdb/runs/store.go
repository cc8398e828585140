package runs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/backcountry/pkg/models/store"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
)

// Store records daily pipeline runs.
type Store interface {
	StartRun(ctx context.Context, run *store.PipelineRun) error
	FinishRun(ctx context.Context, id string, finishedAt time.Time, dailies, failures int, runErr *string) error
	ListRuns(ctx context.Context, limit int) ([]*store.PipelineRun, error)
}

type defaultStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{
		db: db,
	}, nil
}

func (s *defaultStore) StartRun(ctx context.Context, run *store.PipelineRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, target_date, started_at)
		VALUES (?, CAST(? AS DATE), ?)`,
		run.ID, run.TargetDate.Format("2006-01-02"), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *defaultStore) FinishRun(
	ctx context.Context,
	id string,
	finishedAt time.Time,
	dailies, failures int,
	runErr *string,
) error {
	res, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE pipeline_runs
		SET finished_at = ?, dailies = ?, failures = ?, error = ?
		WHERE id = ?`,
		finishedAt, dailies, failures, duckdb.Nullable(runErr), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %q not found", id)
	}
	return nil
}

func (s *defaultStore) ListRuns(ctx context.Context, limit int) ([]*store.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, strftime(target_date, '%Y-%m-%d'), started_at, finished_at, dailies, failures, error
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*store.PipelineRun, 0)
	for rows.Next() {
		var (
			run      store.PipelineRun
			date     string
			finished sql.NullTime
			runErr   sql.NullString
		)
		if err := rows.Scan(&run.ID, &date, &run.StartedAt, &finished, &run.Dailies, &run.Failures, &runErr); err != nil {
			return nil, err
		}
		if run.TargetDate, err = time.Parse("2006-01-02", date); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		if runErr.Valid {
			e := runErr.String
			run.Error = &e
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
