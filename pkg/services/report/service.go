package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, report *domain.Report) error
}

// Publisher copies a written file somewhere shared and returns where.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Options select what Generate renders. An empty Output means
// <reports dir>/forecast_<first>_to_<last>.html.
type Options struct {
	Dates  []domain.Date
	Output string
	Chart  bool
}

type Output struct {
	Report    *domain.Report
	Path      string
	ChartPath string
	Published []string
}

type Service struct {
	loader     Loader
	html       Renderer
	chart      Renderer
	publisher  Publisher
	reportsDir string
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithChart(chart Renderer) ServiceOption {
	return func(s *Service) { s.chart = chart }
}

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func NewService(loader Loader, html Renderer, reportsDir string, opts ...ServiceOption) *Service {
	s := &Service{
		loader:     loader,
		html:       html,
		reportsDir: reportsDir,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultOutput is the report path used when none is given.
func (s *Service) DefaultOutput(dates []domain.Date) string {
	first, last := dates[0], dates[len(dates)-1]
	return filepath.Join(s.reportsDir, fmt.Sprintf("forecast_%s_to_%s.html", first, last))
}

// ChartPath is the chart file written next to a report.
func ChartPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + "_chart.html"
}

// Generate loads the dailies for the dates and writes the report, plus the
// chart and the uploads when configured.
func (s *Service) Generate(ctx context.Context, opts Options) (*Output, error) {
	if len(opts.Dates) == 0 {
		return nil, fmt.Errorf("at least one date is required")
	}
	logger := zerolog.Ctx(ctx)

	dailies, err := s.loader.Load(ctx, opts.Dates)
	if err != nil {
		return nil, err
	}

	out := &Output{Path: opts.Output}
	if out.Path == "" {
		out.Path = s.DefaultOutput(opts.Dates)
	}

	report := Build(opts.Dates, dailies, s.now())
	out.Report = report

	if opts.Chart && s.chart != nil {
		out.ChartPath = ChartPath(out.Path)
		report.ChartFile = filepath.Base(out.ChartPath)
		if err := s.write(out.ChartPath, s.chart, report); err != nil {
			return nil, fmt.Errorf("failed to write chart: %w", err)
		}
	}

	if err := s.write(out.Path, s.html, report); err != nil {
		return nil, err
	}
	logger.Info().
		Str("path", out.Path).
		Int("dailies", report.DailyCount()).
		Int("days", len(report.Days)).
		Msg("report written")

	if s.publisher != nil {
		for _, p := range []string{out.Path, out.ChartPath} {
			if p == "" {
				continue
			}
			location, err := s.publisher.Publish(ctx, p)
			if err != nil {
				return out, err
			}
			out.Published = append(out.Published, location)
		}
	}
	return out, nil
}

// write leaves no file behind when rendering fails.
func (s *Service) write(path string, r Renderer, report *domain.Report) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, report); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Describe is a one line account of a generated report for the terminal.
func Describe(out *Output) string {
	info, err := os.Stat(out.Path)
	size := "?"
	if err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	return fmt.Sprintf("Report written to %s (%s, %d forecasts over %d days)",
		out.Path, size, out.Report.DailyCount(), len(out.Report.Days))
}
