package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/backcountry/pkg/adapters"
	"github.com/de-tools/backcountry/pkg/models/api"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/holiday"
	"github.com/de-tools/backcountry/pkg/services/report"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultHolidayDays = 7
	maxHolidayDays     = 366
	defaultRunLimit    = 20
)

type SourceLister interface {
	List() []string
}

type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]*domain.PipelineRun, error)
}

type Handler struct {
	forecasts  report.Loader
	sources    SourceLister
	enabled    []string
	runs       RunLister
	reportsDir string
	now        func() time.Time
}

// Dependencies wire the handler. Enabled lists the configured source names.
type Dependencies struct {
	Forecasts  report.Loader
	Sources    SourceLister
	Enabled    []string
	Runs       RunLister
	ReportsDir string
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		forecasts:  deps.Forecasts,
		sources:    deps.Sources,
		enabled:    deps.Enabled,
		runs:       deps.Runs,
		reportsDir: deps.ReportsDir,
		now:        time.Now,
	}
}

func (h *Handler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	dailies, err := h.forecasts.Load(ctx, []domain.Date{date})
	if errors.Is(err, report.ErrNoForecasts) || errors.Is(err, report.ErrNoValidForecasts) {
		writeError(ctx, w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	built := report.Build([]domain.Date{date}, dailies, h.now())
	writeJSON(ctx, w, adapters.MapReportDayDomainToApi(built.Days[0]))
}

// ListForecastDates returns the target dates that have stored forecasts.
func (h *Handler) ListForecastDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dates, err := h.forecasts.Dates(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := make([]string, 0, len(dates))
	for _, d := range dates {
		response = append(response, d.String())
	}
	writeJSON(ctx, w, response)
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	start := domain.DateOf(h.now())
	if s := query.Get("start"); s != "" {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, err)
			return
		}
		start = parsed
	}
	end := start.AddDays(defaultHolidayDays - 1)
	if e := query.Get("end"); e != "" {
		parsed, err := domain.ParseDate(e)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, err)
			return
		}
		end = parsed
	}

	dates, err := domain.DateRange(start, end)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	if len(dates) > maxHolidayDays {
		writeError(ctx, w, http.StatusBadRequest, errors.New("range is limited to one year"))
		return
	}

	response := make([]api.Holiday, 0, len(dates))
	for _, d := range holiday.BuildHolidayDays(dates) {
		response = append(response, adapters.MapHolidayDomainToApi(d))
	}
	writeJSON(ctx, w, response)
}

func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	enabled := make(map[string]bool, len(h.enabled))
	for _, name := range h.enabled {
		enabled[name] = true
	}

	response := []api.Source{}
	for _, name := range h.sources.List() {
		response = append(response, api.Source{Name: name, Enabled: enabled[name]})
	}
	writeJSON(r.Context(), w, response)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.runs == nil {
		writeError(ctx, w, http.StatusNotFound, errors.New("run history needs the archive"))
		return
	}

	limit := defaultRunLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(ctx, w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(ctx, limit)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	response := make([]api.Run, 0, len(runs))
	for _, run := range runs {
		response = append(response, adapters.MapRunDomainToApi(run))
	}
	writeJSON(ctx, w, response)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := os.ReadDir(h.reportsDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	response := []api.ReportFile{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		response = append(response, api.ReportFile{
			Name:       e.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(response, func(i, j int) bool { return response[i].Name > response[j].Name })
	writeJSON(ctx, w, response)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".html") || strings.HasPrefix(name, ".") {
		writeError(ctx, w, http.StatusBadRequest, errors.New("invalid report name"))
		return
	}

	path := filepath.Join(h.reportsDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(ctx, w, http.StatusNotFound, errors.New("report not found"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger := zerolog.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Error: err.Error()})
}
