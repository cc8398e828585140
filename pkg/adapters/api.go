package adapters

import (
	"github.com/de-tools/backcountry/pkg/models/api"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/summary"
)

func MapForecastDomainToApi(d domain.ForecastDaily) api.Forecast {
	out := api.Forecast{
		MountainID: d.MountainID,
		SourceName: d.SourceName,
		TargetDate: d.TargetDate.String(),
		Fallback:   summary.IsFallback(d),
		Periods:    make([]api.Period, 0, len(d.Periods)),
		Summary:    d.Summary,
	}
	if total, ok := summary.Snowfall(d); ok {
		out.SnowfallCM = &total
	}
	for _, p := range d.Periods {
		out.Periods = append(out.Periods, api.Period{
			Period:      string(p.Period),
			SnowfallCM:  p.SnowfallCM,
			SnowdepthCM: p.SnowdepthCM,
			TempLowC:    p.TempLowC,
			TempHighC:   p.TempHighC,
			WindSpeedMS: p.WindSpeedMS,
			WindGustMS:  p.WindGustMS,
			WindDir:     p.WindDir,
			WeatherDesc: p.WeatherDesc,
			Notes:       p.Notes,
		})
	}
	return out
}

func MapSummaryDomainToApi(s domain.SummaryReport) api.Summary {
	return api.Summary{
		MountainID:     s.MountainID,
		AggregateScore: s.AggregateScore,
		Headline:       s.Headline,
		Details:        s.Details,
	}
}

func MapHolidayDomainToApi(h domain.HolidayDay) api.Holiday {
	return api.Holiday{
		Date:        h.Date.String(),
		IsWeekend:   h.IsWeekend,
		IsHoliday:   h.IsHoliday,
		HolidayName: h.HolidayName,
	}
}

func MapReportDayDomainToApi(day domain.ReportDay) api.DayForecasts {
	out := api.DayForecasts{
		Date:      day.Date.String(),
		Holiday:   MapHolidayDomainToApi(day.Holiday),
		Forecasts: []api.Forecast{},
		Summaries: []api.Summary{},
	}
	for _, m := range day.Mountains {
		out.Summaries = append(out.Summaries, MapSummaryDomainToApi(m.Summary))
		for _, d := range m.Dailies {
			out.Forecasts = append(out.Forecasts, MapForecastDomainToApi(d))
		}
	}
	return out
}

func MapRunDomainToApi(r *domain.PipelineRun) api.Run {
	return api.Run{
		ID:         r.ID,
		TargetDate: r.TargetDate.String(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Dailies:    r.Dailies,
		Failures:   r.Failures,
		Error:      r.Error,
	}
}
