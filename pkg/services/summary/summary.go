package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/sources"
)

// SourceSnowfall is the forecast snowfall total of one source.
type SourceSnowfall struct {
	Source     string
	SnowfallCM float64
}

// Summarize condenses the dailies of one mountain and target date. The
// aggregate score is the mean of the per-source snowfall totals; sources
// without snowfall data and placeholder dailies do not count.
func Summarize(reportDate domain.Date, mountainID string, target domain.Date, dailies []domain.ForecastDaily) domain.SummaryReport {
	totals := make(map[string]any)
	var (
		counted   []SourceSnowfall
		fallbacks []string
		sources   []string
	)

	for _, d := range dailies {
		sources = append(sources, d.SourceName)
		if IsFallback(d) {
			fallbacks = append(fallbacks, d.SourceName)
			continue
		}
		total, ok := Snowfall(d)
		if !ok {
			continue
		}
		totals[d.SourceName] = total
		counted = append(counted, SourceSnowfall{Source: d.SourceName, SnowfallCM: total})
	}
	sort.Strings(sources)
	sort.Slice(counted, func(i, j int) bool { return counted[i].Source < counted[j].Source })

	details := map[string]any{
		"sources":               sources,
		"snowfall_cm_by_source": totals,
	}
	if len(fallbacks) > 0 {
		sort.Strings(fallbacks)
		details["fallback_sources"] = fallbacks
	}

	report := domain.SummaryReport{
		ReportDate: reportDate,
		MountainID: mountainID,
		TargetDate: target,
		Details:    details,
	}
	if len(counted) == 0 {
		report.Headline = domain.String("No snowfall data")
		return report
	}

	sum := 0.0
	for _, c := range counted {
		sum += c.SnowfallCM
	}
	score := round1(sum / float64(len(counted)))
	report.AggregateScore = &score
	report.Headline = domain.String(headline(score, counted))
	return report
}

// Snowfall returns the total forecast snowfall of a daily: the sum of its
// periods, or of its hourly rows for sources without periods.
func Snowfall(d domain.ForecastDaily) (float64, bool) {
	if total, ok := d.TotalSnowfall(); ok {
		return round1(total), true
	}
	var (
		total float64
		found bool
	)
	switch hours := d.Summary["hours"].(type) {
	case []sources.PowderSearchHour:
		for _, h := range hours {
			if h.SnowfallCM != nil {
				total += *h.SnowfallCM
				found = true
			}
		}
	case []map[string]any:
		for _, row := range hours {
			if v, ok := row["snowfall_cm"].(float64); ok {
				total += v
				found = true
			}
		}
	case []any:
		for _, h := range hours {
			row, ok := h.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := row["snowfall_cm"].(float64); ok {
				total += v
				found = true
			}
		}
	}
	return round1(total), found
}

// IsFallback reports a placeholder daily written when the source could not
// be fetched.
func IsFallback(d domain.ForecastDaily) bool {
	status, _ := d.Summary["status"].(string)
	return status == domain.RawStatusFallback
}

func headline(score float64, counted []SourceSnowfall) string {
	parts := make([]string, 0, len(counted))
	for _, c := range counted {
		parts = append(parts, fmt.Sprintf("%s %s", c.Source, formatCM(c.SnowfallCM)))
	}
	label := "No new snow"
	switch {
	case score >= 20:
		label = "Powder day"
	case score >= 5:
		label = "Fresh snow"
	case score > 0:
		label = "Light snow"
	}
	return fmt.Sprintf("%s: %s cm expected (%s)", label, formatCM(score), strings.Join(parts, ", "))
}

func formatCM(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
