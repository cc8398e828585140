package runs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/de-tools/backcountry/pkg/models/store"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: s,
	}
}

func TestNewStore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupFixture(t)
		assert.NotNil(t, f.store)
	})

	t.Run("nil db", func(t *testing.T) {
		s, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestStore_RunLifecycle(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	started := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)

	t.Run("start and finish", func(t *testing.T) {
		err := f.store.StartRun(ctx, &store.PipelineRun{
			ID:         "run-1",
			TargetDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			StartedAt:  started,
		})
		require.NoError(t, err)

		msg := "snowforecast for hakuba: HTTP 503"
		err = f.store.FinishRun(ctx, "run-1", started.Add(time.Minute), 5, 1, &msg)
		require.NoError(t, err)

		runs, err := f.store.ListRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "run-1", runs[0].ID)
		assert.Equal(t, 5, runs[0].Dailies)
		assert.Equal(t, 1, runs[0].Failures)
		require.NotNil(t, runs[0].FinishedAt)
		assert.True(t, runs[0].FinishedAt.Equal(started.Add(time.Minute)))
		require.NotNil(t, runs[0].Error)
		assert.Equal(t, msg, *runs[0].Error)
	})

	t.Run("missing id", func(t *testing.T) {
		assert.Error(t, f.store.StartRun(ctx, &store.PipelineRun{}))
	})

	t.Run("finish unknown run", func(t *testing.T) {
		err := f.store.FinishRun(ctx, "nope", started, 0, 0, nil)
		assert.Error(t, err)
	})
}
