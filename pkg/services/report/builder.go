package report

import (
	"sort"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/holiday"
	"github.com/de-tools/backcountry/pkg/services/summary"
)

const DefaultTitle = "Backcountry Snow Forecast"

// Build groups dailies by target date and mountain. Every requested date
// gets a day, even when nothing was forecast for it.
func Build(dates []domain.Date, dailies []domain.ForecastDaily, generatedAt time.Time) *domain.Report {
	sorted := append([]domain.Date(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	byDate := make(map[domain.Date]map[string][]domain.ForecastDaily)
	for _, d := range dailies {
		if byDate[d.TargetDate] == nil {
			byDate[d.TargetDate] = make(map[string][]domain.ForecastDaily)
		}
		byDate[d.TargetDate][d.MountainID] = append(byDate[d.TargetDate][d.MountainID], d)
	}

	reportDate := domain.DateOf(generatedAt)
	report := &domain.Report{
		Title:       DefaultTitle,
		GeneratedAt: generatedAt,
	}
	seen := make(map[domain.Date]bool)
	for _, date := range sorted {
		if seen[date] {
			continue
		}
		seen[date] = true

		day := domain.ReportDay{Date: date, Holiday: holiday.Describe(date)}
		mountains := byDate[date]
		ids := make([]string, 0, len(mountains))
		for id := range mountains {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			list := mountains[id]
			sort.SliceStable(list, func(i, j int) bool { return list[i].SourceName < list[j].SourceName })
			day.Mountains = append(day.Mountains, domain.ReportMountain{
				MountainID: id,
				Summary:    summary.Summarize(reportDate, id, date, list),
				Dailies:    list,
			})
		}
		report.Days = append(report.Days, day)
	}

	if len(sorted) > 0 {
		start, end := sorted[0], sorted[len(sorted)-1]
		report.Period = domain.TimePeriod{
			Start:    start,
			End:      end,
			Duration: int(end.Time().Sub(start.Time()).Hours()/24) + 1,
		}
	}
	return report
}
