package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/de-tools/backcountry/pkg/models/api"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/report"
	"github.com/de-tools/backcountry/pkg/services/sources"
	"github.com/de-tools/backcountry/pkg/store/files"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	dataDir := t.TempDir()
	store := files.NewDailyStore(dataDir)
	_, err := store.Save(domain.ForecastDaily{
		MountainID: "niseko",
		SourceName: "powdersearch",
		TargetDate: domain.NewDate(2025, 1, 10),
		Periods:    []domain.ForecastPeriod{},
		Summary: map[string]any{
			"hours": []map[string]any{{"hour": 3, "snowfall_cm": 2.5}, {"hour": 6, "snowfall_cm": 1}},
		},
	})
	require.NoError(t, err)

	config := Config{
		Addr: ":0",
		Dependencies: Dependencies{
			Forecasts:  report.NewFileLoader(store),
			Sources:    sources.BuiltinCatalog(),
			Enabled:    []string{sources.PowderSearchName},
			ReportsDir: t.TempDir(),
		},
	}
	srv := httptest.NewServer(NewWebAPI(logger, config).Handler())
	defer srv.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "forecasts for a stored date",
			path:           "/api/v1/forecasts/2025-01-10",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var day api.DayForecasts
				require.NoError(t, json.Unmarshal(body, &day))
				require.Len(t, day.Forecasts, 1)
				assert.Equal(t, "niseko", day.Forecasts[0].MountainID)
				require.NotNil(t, day.Forecasts[0].SnowfallCM)
				assert.Equal(t, 3.5, *day.Forecasts[0].SnowfallCM)
			},
		},
		{
			name:           "forecast dates",
			path:           "/api/v1/forecasts/dates",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `["2025-01-10"]`, string(body))
			},
		},
		{
			name:           "forecasts for an empty date",
			path:           "/api/v1/forecasts/2025-01-11",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "sources",
			path:           "/api/v1/sources",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var list []api.Source
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list, 3)
				assert.Equal(t, api.Source{Name: "powdersearch", Enabled: true}, list[1])
			},
		},
		{
			name:           "holidays",
			path:           "/api/v1/holidays?start=2025-01-01&end=2025-01-01",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "元日")
			},
		},
		{
			name:           "runs without archive",
			path:           "/api/v1/runs",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "reports",
			path:           "/reports",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, "[]", string(body))
			},
		},
		{
			name:           "unknown route",
			path:           "/api/v1/workspaces",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}
