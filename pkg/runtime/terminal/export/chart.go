package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/summary"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidthPx  = 900
	chartHeightPx = 360
)

// ChartRenderer draws one snowfall bar chart per mountain: target dates on
// the x axis, one series per source.
type ChartRenderer struct{}

func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

func (c *ChartRenderer) Render(w io.Writer, report *domain.Report) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = report.Title + " snowfall"

	xAxis := make([]string, 0, len(report.Days))
	for _, day := range report.Days {
		xAxis = append(xAxis, day.Date.String())
	}

	for _, mountain := range mountainIDs(report) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{
				Width:  fmt.Sprintf("%dpx", chartWidthPx),
				Height: fmt.Sprintf("%dpx", chartHeightPx),
			}),
			charts.WithTitleOpts(opts.Title{Title: mountain, Subtitle: "forecast snowfall (cm)"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		)
		bar.SetXAxis(xAxis)

		series := snowfallSeries(report, mountain)
		for _, source := range sortedKeys(series) {
			bar.AddSeries(source, series[source])
		}
		page.AddCharts(bar)
	}

	if len(page.Charts) == 0 {
		return fmt.Errorf("no charts rendered for %s", report.Title)
	}
	return page.Render(w)
}

// snowfallSeries returns per-source bar values aligned with report.Days.
// Days without data for a source get an empty bar.
func snowfallSeries(report *domain.Report, mountain string) map[string][]opts.BarData {
	series := make(map[string][]opts.BarData)
	for i, day := range report.Days {
		for _, m := range day.Mountains {
			if m.MountainID != mountain {
				continue
			}
			for _, d := range m.Dailies {
				if summary.IsFallback(d) {
					continue
				}
				total, ok := summary.Snowfall(d)
				if !ok {
					continue
				}
				if _, exists := series[d.SourceName]; !exists {
					series[d.SourceName] = make([]opts.BarData, len(report.Days))
				}
				series[d.SourceName][i] = opts.BarData{Value: total}
			}
		}
	}
	return series
}

func mountainIDs(report *domain.Report) []string {
	seen := make(map[string]struct{})
	for _, day := range report.Days {
		for _, m := range day.Mountains {
			seen[m.MountainID] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
