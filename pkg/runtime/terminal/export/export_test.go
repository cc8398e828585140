package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.Report {
	date := domain.NewDate(2025, 1, 13)
	score := 8.3
	return &domain.Report{
		Title:       "Backcountry Snow Forecast",
		Period:      domain.TimePeriod{Start: date, End: date, Duration: 1},
		GeneratedAt: time.Date(2025, 1, 12, 21, 0, 0, 0, time.UTC),
		Days: []domain.ReportDay{{
			Date: date,
			Holiday: domain.HolidayDay{
				Date:        date,
				IsHoliday:   true,
				HolidayName: domain.String("成人の日"),
			},
			Mountains: []domain.ReportMountain{{
				MountainID: "hakuba",
				Summary: domain.SummaryReport{
					MountainID:     "hakuba",
					TargetDate:     date,
					AggregateScore: &score,
					Headline:       domain.String("Fresh snow: 8.3 cm expected (powdersearch 1.0, snowforecast 15.5)"),
				},
				Dailies: []domain.ForecastDaily{
					{
						MountainID: "hakuba",
						SourceName: "powdersearch",
						TargetDate: date,
						Periods:    []domain.ForecastPeriod{},
						Summary: map[string]any{
							"hours": []any{
								map[string]any{"hour": 6.0, "snowfall_cm": 1.0, "wind_direction": "NW", "wind_speed_ms": 4.5},
							},
						},
					},
					{
						MountainID: "hakuba",
						SourceName: "snowforecast",
						TargetDate: date,
						Periods: []domain.ForecastPeriod{{
							Period:      domain.PeriodMorning,
							SnowfallCM:  domain.Float(15.5),
							WindDir:     domain.String("NW"),
							WeatherDesc: domain.String("<heavy snow>"),
						}},
						Summary: map[string]any{},
					},
				},
			}},
		}},
	}
}

func TestHTMLRenderer_Render(t *testing.T) {
	t.Run("built-in template", func(t *testing.T) {
		// Given
		r := NewHTMLRenderer(t.TempDir())
		var buf bytes.Buffer

		// When
		err := r.Render(&buf, sampleReport())

		// Then
		require.NoError(t, err)
		page := buf.String()
		assert.Contains(t, page, "<title>Backcountry Snow Forecast</title>")
		assert.Contains(t, page, "2025-01-13 (Mon)")
		assert.Contains(t, page, "成人の日")
		assert.Contains(t, page, "score 8.3")
		assert.Contains(t, page, "<td>15.5</td>")
		assert.Contains(t, page, "NW 4.5")
		assert.Contains(t, page, "&lt;heavy snow&gt;")
		assert.NotContains(t, page, "<heavy snow>")
		assert.Equal(t, "built-in "+TemplateName, r.TemplateSource())
	})

	t.Run("template directory overrides the built-in page", func(t *testing.T) {
		dir := t.TempDir()
		custom := filepath.Join(dir, TemplateName)
		require.NoError(t, os.WriteFile(custom,
			[]byte(`{{range .Days}}{{.Date}}:{{range .Mountains}}{{.MountainID}}={{num .Summary.AggregateScore}}{{end}}{{end}}`), 0o644))

		r := NewHTMLRenderer(dir)
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, sampleReport()))

		assert.Equal(t, "2025-01-13:hakuba=8.3", buf.String())
		assert.Equal(t, custom, r.TemplateSource())
	})

	t.Run("broken custom template", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateName), []byte(`{{range .Days}`), 0o644))

		err := NewHTMLRenderer(dir).Render(&bytes.Buffer{}, sampleReport())
		assert.Error(t, err)
	})
}

func TestChartRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChartRenderer().Render(&buf, sampleReport()))

	page := buf.String()
	assert.Contains(t, page, "echarts")
	assert.Contains(t, page, "hakuba")
	assert.Contains(t, page, "snowforecast")

	empty := &domain.Report{Title: "empty"}
	assert.Error(t, NewChartRenderer().Render(&bytes.Buffer{}, empty))
}

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "Backcountry Snow Forecast (1 days, 2 forecasts)")
	assert.Contains(t, out, "=== 2025-01-13 成人の日 ===")
	assert.Contains(t, out, "| hakuba")
	assert.Contains(t, out, "8.3")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hakuba", truncate("hakuba", 10))
	assert.Equal(t, "hak...", truncate("hakuba goryu", 6))
	assert.Equal(t, "ha", truncate("hakuba", 2))
}

func TestRunReporter_Handle(t *testing.T) {
	// Given
	started := time.Date(2025, 1, 10, 5, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	summary := RunSummary{
		Run: domain.PipelineRun{
			ID:         "run-1",
			TargetDate: domain.NewDate(2025, 1, 10),
			StartedAt:  started,
			FinishedAt: &finished,
			Dailies:    1,
			Failures:   2,
		},
		Paths:    []string{"data/2025-01-10/hakuba_snowforecast_2025-01-10.json"},
		Failures: []string{"powdersearch for hakuba: boom", "powdersearch for zao: boom"},
	}

	// When
	var buf bytes.Buffer
	require.NoError(t, NewRunReporter(&buf).Handle(summary))

	// Then
	out := buf.String()
	assert.Contains(t, out, "Daily forecast run 2025-01-10 (1.5s)")
	assert.Contains(t, out, "Stored: 1 forecast, failed: 2 pairs")
	assert.Contains(t, out, "- data/2025-01-10/hakuba_snowforecast_2025-01-10.json")
	assert.Contains(t, out, "=== Failures ===")
	assert.Contains(t, out, "- powdersearch for zao: boom")
}

func TestRunReporter_RunHistory(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, NewRunReporter(&empty).RunHistory(nil))
	assert.Equal(t, "No pipeline runs recorded.\n", empty.String())

	started := time.Now().Add(-2 * time.Hour)
	finished := started.Add(time.Minute)
	msg := "snowforecast for zao: boom"
	runs := []*domain.PipelineRun{
		{ID: "b", TargetDate: domain.NewDate(2025, 1, 11), StartedAt: started},
		{ID: "a", TargetDate: domain.NewDate(2025, 1, 10), StartedAt: started, FinishedAt: &finished, Dailies: 3, Failures: 1, Error: &msg},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRunReporter(&buf).RunHistory(runs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2025-01-11  b  running")
	assert.Contains(t, lines[1], "2025-01-10  a  failed ")
	assert.Contains(t, lines[1], "3 stored, 1 failed  (2 hours ago)")
}
