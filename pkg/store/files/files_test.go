package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDaily(mountain, source string, date domain.Date) domain.ForecastDaily {
	return domain.ForecastDaily{
		MountainID: mountain,
		SourceName: source,
		TargetDate: date,
		Periods: []domain.ForecastPeriod{{
			MountainID:  mountain,
			SourceName:  source,
			TargetDate:  date,
			Period:      domain.PeriodMorning,
			SnowfallCM:  domain.Float(3),
			WeatherDesc: domain.String("小雪 <light>"),
		}},
		Summary: map[string]any{"source_urls": []string{"https://example.com/?a=1&b=2"}},
	}
}

func TestDailyStore_SaveAndLoad(t *testing.T) {
	// Given
	dir := t.TempDir()
	s := NewDailyStore(dir)
	date := domain.NewDate(2025, 1, 10)
	ctx := context.Background()

	// When
	p1, err := s.Save(sampleDaily("niseko", "snowforecast", date))
	require.NoError(t, err)
	p2, err := s.Save(sampleDaily("hakuba", "powdersearch", date))
	require.NoError(t, err)

	// Then
	assert.Equal(t, filepath.Join(dir, "2025-01-10", "niseko_snowforecast_2025-01-10.json"), p1)

	raw, err := os.ReadFile(p1)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "{\n  \"mountain_id\": \"niseko\""))
	assert.Contains(t, text, "小雪 <light>")
	assert.Contains(t, text, "?a=1&b=2")
	assert.Contains(t, text, `"target_date": "2025-01-10"`)
	assert.Contains(t, text, `"temp_low_c": null`)

	paths, err := s.Files(ctx, []domain.Date{date})
	require.NoError(t, err)
	assert.Equal(t, []string{p2, p1}, paths)

	dailies := s.Load(ctx, paths)
	require.Len(t, dailies, 2)
	assert.Equal(t, "hakuba", dailies[0].MountainID)
	assert.True(t, dailies[1].TargetDate.Equal(date))
	assert.Equal(t, 3.0, *dailies[1].Periods[0].SnowfallCM)
}

func TestDailyStore_SkipsMissingFoldersAndBadFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewDailyStore(dir)
	ctx := context.Background()
	date := domain.NewDate(2025, 1, 10)

	_, err := s.Save(sampleDaily("hakuba", "snowforecast", date))
	require.NoError(t, err)
	bad := filepath.Join(dir, "2025-01-10", "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	empty := filepath.Join(dir, "2025-01-10", "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("{}"), 0o644))

	paths, err := s.Files(ctx, []domain.Date{date, domain.NewDate(2025, 1, 11)})
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	dailies := s.Load(ctx, paths)
	require.Len(t, dailies, 1)
	assert.Equal(t, "hakuba", dailies[0].MountainID)
}

func TestDailyStore_Dates(t *testing.T) {
	dir := t.TempDir()
	s := NewDailyStore(dir)

	dates, err := s.Dates()
	require.NoError(t, err)
	assert.Empty(t, dates)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2025-01-11"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2025-01-10"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scratch"), 0o755))

	dates, err = s.Dates()
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2025-01-10", dates[0].String())
	assert.Equal(t, "2025-01-11", dates[1].String())

	assert.Empty(t, mustDates(t, NewDailyStore(filepath.Join(dir, "missing"))))
}

func mustDates(t *testing.T, s *DailyStore) []domain.Date {
	t.Helper()
	dates, err := s.Dates()
	require.NoError(t, err)
	return dates
}

func TestLoadMountains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mountains.json")

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"mountain_id": "hakuba", "name": "Hakuba", "region": "Nagano",
			 "sources": {"snowforecast": "https://example.com/hakuba"}, "elevation": 2696},
			{"mountain_id": "niseko", "name": "Niseko"}
		]`), 0o644))

		mountains, err := LoadMountains(path)
		require.NoError(t, err)
		require.Len(t, mountains, 2)
		assert.Equal(t, "Nagano", *mountains[0].Region)
		assert.Equal(t, 2696, *mountains[0].Elevation)
		assert.Equal(t, "https://example.com/hakuba", mountains[0].Sources["snowforecast"])
		assert.NotNil(t, mountains[1].Sources)
		assert.Empty(t, mountains[1].Sources)
	})

	t.Run("duplicate id", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`[{"mountain_id":"a"},{"mountain_id":"a"}]`), 0o644))
		_, err := LoadMountains(path)
		assert.ErrorContains(t, err, "duplicate mountain_id")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMountains(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
