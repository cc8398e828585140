package forecast

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
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

	return &fixture{db: db, store: s}
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }

func daily(mountain, source string, date time.Time, snow ...float64) store.ForecastDaily {
	d := store.ForecastDaily{
		MountainID: mountain,
		SourceName: source,
		TargetDate: date,
		Summary:    []byte(`{"source_urls":["https://example.com"]}`),
		UpdatedAt:  time.Date(2025, 1, 9, 6, 0, 0, 0, time.UTC),
	}
	for i, s := range snow {
		d.Periods = append(d.Periods, store.ForecastPeriod{
			MountainID: mountain,
			SourceName: source,
			TargetDate: date,
			Period:     []string{"morning", "afternoon", "night"}[i],
			SnowfallCM: f64(s),
			WindDir:    str("NW"),
		})
	}
	return d
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(nil)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestForecastStore_SaveAndGet(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		// Given
		dailies := []store.ForecastDaily{
			daily("hakuba", "snowforecast", day(10), 3, 12.5, 4),
			daily("niseko", "powdersearch", day(10)),
			daily("hakuba", "snowforecast", day(11), 1),
		}

		// When
		require.NoError(t, f.store.Save(ctx, dailies))
		got, err := f.store.GetByDates(ctx, []time.Time{day(10)})

		// Then
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "hakuba", got[0].MountainID)
		assert.Equal(t, day(10), got[0].TargetDate)
		assert.JSONEq(t, `{"source_urls":["https://example.com"]}`, string(got[0].Summary))
		require.Len(t, got[0].Periods, 3)
		assert.Equal(t, "morning", got[0].Periods[0].Period)
		assert.Equal(t, 12.5, *got[0].Periods[1].SnowfallCM)
		assert.Equal(t, "NW", *got[0].Periods[2].WindDir)
		assert.Nil(t, got[0].Periods[0].TempLowC)
		assert.Equal(t, "niseko", got[1].MountainID)
		assert.Empty(t, got[1].Periods)
	})

	t.Run("save replaces earlier version", func(t *testing.T) {
		require.NoError(t, f.store.Save(ctx, []store.ForecastDaily{daily("hakuba", "snowforecast", day(10), 7)}))

		got, err := f.store.GetByDates(ctx, []time.Time{day(10)})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Len(t, got[0].Periods, 1)
		assert.Equal(t, 7.0, *got[0].Periods[0].SnowfallCM)
	})

	t.Run("list dates", func(t *testing.T) {
		dates, err := f.store.ListDates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(10), day(11)}, dates)
	})

	t.Run("no dates", func(t *testing.T) {
		got, err := f.store.GetByDates(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestForecastStore_AddRaw(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	raws := []store.SourceRaw{{
		ID:         "raw-1",
		MountainID: "hakuba",
		SourceName: "mountainforecast",
		TargetDate: day(10),
		FetchedAt:  time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC),
		RawPayload: "<html></html>",
		Status:     "offline_sample",
		Notes:      str("sample=local_samples/mountainforecast_2025-01-10.html"),
	}}
	require.NoError(t, f.store.AddRaw(ctx, raws))
	require.NoError(t, f.store.AddRaw(ctx, raws))
	require.NoError(t, f.store.AddRaw(ctx, nil))

	var count int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM source_raw WHERE status = 'offline_sample'").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestForecastStore_SaveRollsBackOnError(t *testing.T) {
	// Given: a daily insert that fails halfway through the batch
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR REPLACE INTO forecast_daily").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	// When
	err = s.Save(context.Background(), []store.ForecastDaily{daily("hakuba", "snowforecast", day(10), 1)})

	// Then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert daily hakuba/snowforecast/2025-01-10")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForecastStore_SaveUsesContextTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR REPLACE INTO forecast_daily").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM forecast_periods").WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := duckdb.WithTransaction(context.Background(), tx)

	require.NoError(t, s.Save(ctx, []store.ForecastDaily{daily("niseko", "powdersearch", day(10))}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
