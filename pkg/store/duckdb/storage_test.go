package duckdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Settings{DbPath: dbPath})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	for _, table := range []string{"pipeline_runs", "forecast_daily", "forecast_periods", "source_raw"} {
		var count int
		err = db.QueryRow(
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?", table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestInTransaction(t *testing.T) {
	db, err := NewDB(Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	insert := func(id string) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			assert.NotNil(t, GetTransaction(ctx))
			_, err := Conn(ctx, db).ExecContext(ctx,
				`INSERT INTO pipeline_runs (id, target_date, started_at) VALUES (?, DATE '2025-01-10', now())`, id)
			return err
		}
	}

	t.Run("commit", func(t *testing.T) {
		require.NoError(t, InTransaction(ctx, db, insert("run-1")))

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pipeline_runs").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := InTransaction(ctx, db, func(ctx context.Context) error {
			if err := insert("run-2")(ctx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pipeline_runs WHERE id = 'run-2'").Scan(&count))
		assert.Equal(t, 0, count)
	})
}
