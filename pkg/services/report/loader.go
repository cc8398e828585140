package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/backcountry/pkg/adapters"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/store/duckdb/forecast"
	"github.com/de-tools/backcountry/pkg/store/files"
	"github.com/rs/zerolog"
)

var (
	ErrNoForecasts      = errors.New("no forecast files found")
	ErrNoValidForecasts = errors.New("no valid forecast data found")
)

// Loader reads the stored dailies for a set of target dates.
type Loader interface {
	Load(ctx context.Context, dates []domain.Date) ([]domain.ForecastDaily, error)
	// Dates lists the target dates with stored forecasts, oldest first.
	Dates(ctx context.Context) ([]domain.Date, error)
}

type fileLoader struct {
	store *files.DailyStore
}

// NewFileLoader reads the daily JSON documents written by the pipeline.
func NewFileLoader(store *files.DailyStore) Loader {
	return &fileLoader{store: store}
}

func (l *fileLoader) Load(ctx context.Context, dates []domain.Date) ([]domain.ForecastDaily, error) {
	paths, err := l.store.Files(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("list forecast files: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoForecasts
	}

	dailies := l.store.Load(ctx, paths)
	if len(dailies) == 0 {
		return nil, ErrNoValidForecasts
	}
	zerolog.Ctx(ctx).Debug().Int("files", len(paths)).Int("dailies", len(dailies)).Msg("forecast files loaded")
	return dailies, nil
}

func (l *fileLoader) Dates(context.Context) ([]domain.Date, error) {
	dates, err := l.store.Dates()
	if err != nil {
		return nil, fmt.Errorf("list forecast folders: %w", err)
	}
	return dates, nil
}

type archiveLoader struct {
	store forecast.Store
}

// NewArchiveLoader reads dailies from the DuckDB archive.
func NewArchiveLoader(store forecast.Store) Loader {
	return &archiveLoader{store: store}
}

func (l *archiveLoader) Load(ctx context.Context, dates []domain.Date) ([]domain.ForecastDaily, error) {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, d.Time())
	}

	rows, err := l.store.GetByDates(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("load archived forecasts: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoForecasts
	}

	dailies := make([]domain.ForecastDaily, 0, len(rows))
	for _, row := range rows {
		d, err := adapters.MapStoreDailyToDomain(row)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("skipping archived forecast")
			continue
		}
		dailies = append(dailies, d)
	}
	if len(dailies) == 0 {
		return nil, ErrNoValidForecasts
	}
	return dailies, nil
}

func (l *archiveLoader) Dates(ctx context.Context) ([]domain.Date, error) {
	days, err := l.store.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived dates: %w", err)
	}
	dates := make([]domain.Date, 0, len(days))
	for _, d := range days {
		dates = append(dates, domain.DateOf(d))
	}
	return dates, nil
}
