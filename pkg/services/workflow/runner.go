package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/backcountry/pkg/adapters"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/models/store"
	"github.com/de-tools/backcountry/pkg/services/sources"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
	"github.com/de-tools/backcountry/pkg/store/duckdb/forecast"
	"github.com/de-tools/backcountry/pkg/store/duckdb/runs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DailyWriter persists one daily document and returns where it went.
type DailyWriter interface {
	Save(daily domain.ForecastDaily) (string, error)
}

// Archive is the optional DuckDB copy of every run.
type Archive struct {
	DB        *sql.DB
	Forecasts forecast.Store
	Runs      runs.Store
}

type RunnerConfig struct {
	Workers int
}

// PairError is the failure of one mountain and source combination.
type PairError struct {
	MountainID string
	Source     string
	Err        error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Source, e.MountainID, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

// Result lists what a run produced, in mountain then source order.
type Result struct {
	Run      domain.PipelineRun
	Dailies  []domain.ForecastDaily
	Paths    []string
	Failures []*PairError
}

// Runner executes the daily pipeline: every source for every mountain, with
// at most Workers collections in flight.
type Runner struct {
	sources []sources.Source
	writer  DailyWriter
	archive *Archive
	config  RunnerConfig
	now     func() time.Time
}

func NewRunner(srcs []sources.Source, writer DailyWriter, archive *Archive, config RunnerConfig) *Runner {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &Runner{
		sources: srcs,
		writer:  writer,
		archive: archive,
		config:  config,
		now:     time.Now,
	}
}

type task struct {
	mountain domain.Mountain
	source   sources.Source
}

type outcome struct {
	collection *sources.Collection
	err        error
}

// Tasks returns the (mountain, source) pairs a run would collect. A source
// is skipped for a mountain that lists sources without it.
func (r *Runner) Tasks(mountains []domain.Mountain) []task {
	var tasks []task
	for _, m := range mountains {
		for _, src := range r.sources {
			if _, ok := m.Sources[src.Name()]; !ok && len(m.Sources) > 0 {
				continue
			}
			tasks = append(tasks, task{mountain: m, source: src})
		}
	}
	return tasks
}

// Run collects and stores forecasts for the date. Failed pairs do not stop
// the others; they come back joined in the returned error alongside the
// partial result.
func (r *Runner) Run(ctx context.Context, date domain.Date, mountains []domain.Mountain) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("date", date.String()).Logger()
	ctx = logger.WithContext(ctx)

	result := &Result{
		Run: domain.PipelineRun{
			ID:         uuid.NewString(),
			TargetDate: date,
			StartedAt:  r.now().UTC(),
		},
	}
	if err := r.startRun(ctx, &result.Run); err != nil {
		return result, err
	}

	tasks := r.Tasks(mountains)
	logger.Info().Int("tasks", len(tasks)).Int("workers", r.config.Workers).Msg("starting daily pipeline")

	outcomes := make([]outcome, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i, t := range tasks {
		g.Go(func() error {
			col, err := t.source.Collect(gctx, t.mountain, date)
			outcomes[i] = outcome{collection: col, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		collected []*sources.Collection
		errs      []error
	)
	for i, t := range tasks {
		o := outcomes[i]
		var path string
		if o.err == nil {
			saved, err := r.writer.Save(o.collection.Daily)
			if err != nil {
				o.err = fmt.Errorf("save daily: %w", err)
			}
			path = saved
		}
		if o.err != nil {
			pe := &PairError{MountainID: t.mountain.MountainID, Source: t.source.Name(), Err: o.err}
			logger.Error().Err(o.err).
				Str("mountain", pe.MountainID).
				Str("source", pe.Source).
				Msg("forecast collection failed")
			result.Failures = append(result.Failures, pe)
			errs = append(errs, pe)
			continue
		}

		daily := o.collection.Daily
		result.Dailies = append(result.Dailies, daily)
		result.Paths = append(result.Paths, path)
		collected = append(collected, o.collection)
		logger.Debug().
			Str("mountain", daily.MountainID).
			Str("source", daily.SourceName).
			Str("path", path).
			Msg("forecast stored")
	}

	if err := r.archiveCollections(ctx, date, collected); err != nil {
		errs = append(errs, err)
	}

	finished := r.now().UTC()
	result.Run.FinishedAt = &finished
	result.Run.Dailies = len(result.Dailies)
	result.Run.Failures = len(result.Failures)

	runErr := errors.Join(errs...)
	if runErr != nil {
		msg := runErr.Error()
		result.Run.Error = &msg
	}
	if err := r.finishRun(ctx, &result.Run); err != nil {
		logger.Warn().Err(err).Msg("failed to record pipeline run")
	}

	logger.Info().
		Int("dailies", result.Run.Dailies).
		Int("failures", result.Run.Failures).
		Dur("elapsed", finished.Sub(result.Run.StartedAt)).
		Msg("daily pipeline finished")
	return result, runErr
}

func (r *Runner) startRun(ctx context.Context, run *domain.PipelineRun) error {
	if r.archive == nil || r.archive.Runs == nil {
		return nil
	}
	if err := r.archive.Runs.StartRun(ctx, adapters.MapDomainRunToStore(run)); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

func (r *Runner) finishRun(ctx context.Context, run *domain.PipelineRun) error {
	if r.archive == nil || r.archive.Runs == nil {
		return nil
	}
	return r.archive.Runs.FinishRun(ctx, run.ID, *run.FinishedAt, run.Dailies, run.Failures, run.Error)
}

func (r *Runner) archiveCollections(ctx context.Context, date domain.Date, collected []*sources.Collection) error {
	if r.archive == nil || r.archive.Forecasts == nil || len(collected) == 0 {
		return nil
	}

	updatedAt := r.now().UTC()
	dailies := make([]store.ForecastDaily, 0, len(collected))
	var raws []store.SourceRaw
	for _, c := range collected {
		row, err := adapters.MapDomainDailyToStore(c.Daily, updatedAt)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		dailies = append(dailies, row)
		for _, raw := range c.Raw {
			raws = append(raws, adapters.MapDomainRawToStore(raw, date))
		}
	}

	err := duckdb.InTransaction(ctx, r.archive.DB, func(ctx context.Context) error {
		if err := r.archive.Forecasts.Save(ctx, dailies); err != nil {
			return err
		}
		return r.archive.Forecasts.AddRaw(ctx, raws)
	})
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	zerolog.Ctx(ctx).Info().Int("dailies", len(dailies)).Int("raw_pages", len(raws)).Msg("forecasts archived")
	return nil
}
