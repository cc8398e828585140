package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const PipelineRunsSchema = `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id VARCHAR PRIMARY KEY,
		target_date DATE NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NULL,
		dailies INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error VARCHAR NULL
	);
`

const ForecastDailySchema = `
	CREATE TABLE IF NOT EXISTS forecast_daily (
		mountain_id VARCHAR NOT NULL,
		source_name VARCHAR NOT NULL,
		target_date DATE NOT NULL,
		daily_summary_json JSON,
		condition_score DOUBLE,
		confidence DOUBLE,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (mountain_id, source_name, target_date)
	);
`

const ForecastPeriodsSchema = `
	CREATE TABLE IF NOT EXISTS forecast_periods (
		mountain_id VARCHAR NOT NULL,
		source_name VARCHAR NOT NULL,
		target_date DATE NOT NULL,
		period VARCHAR NOT NULL,
		snowfall_cm DOUBLE,
		snowdepth_cm DOUBLE,
		temp_low_c DOUBLE,
		temp_high_c DOUBLE,
		wind_speed_ms DOUBLE,
		wind_gust_ms DOUBLE,
		wind_dir VARCHAR,
		weather_desc VARCHAR,
		notes VARCHAR,
		PRIMARY KEY (mountain_id, source_name, target_date, period)
	);
`

const SourceRawSchema = `
	CREATE TABLE IF NOT EXISTS source_raw (
		id VARCHAR PRIMARY KEY,
		mountain_id VARCHAR NOT NULL,
		source_name VARCHAR NOT NULL,
		target_date DATE NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		raw_payload VARCHAR,
		status VARCHAR NOT NULL,
		notes VARCHAR
	);
`

var bootQueries = []string{
	PipelineRunsSchema,
	ForecastDailySchema,
	ForecastPeriodsSchema,
	SourceRawSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}

// InTransaction runs fn with a transaction stored in the context. A
// transaction already present in ctx is reused and left to its owner.
func InTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if GetTransaction(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(WithTransaction(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns the transaction stored in ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) Queryer {
	if tx := GetTransaction(ctx); tx != nil {
		return tx
	}
	return db
}
