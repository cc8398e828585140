package adapters

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/models/store"
)

func MapDomainDailyToStore(d domain.ForecastDaily, updatedAt time.Time) (store.ForecastDaily, error) {
	summary, err := json.Marshal(d.Summary)
	if err != nil {
		return store.ForecastDaily{}, fmt.Errorf("marshal summary for %s: %w", d.FileName(), err)
	}

	out := store.ForecastDaily{
		MountainID:     d.MountainID,
		SourceName:     d.SourceName,
		TargetDate:     d.TargetDate.Time(),
		Summary:        summary,
		ConditionScore: d.ConditionScore,
		Confidence:     d.Confidence,
		UpdatedAt:      updatedAt,
		Periods:        make([]store.ForecastPeriod, 0, len(d.Periods)),
	}
	for _, p := range d.Periods {
		out.Periods = append(out.Periods, MapDomainPeriodToStore(p))
	}
	return out, nil
}

func MapDomainPeriodToStore(p domain.ForecastPeriod) store.ForecastPeriod {
	return store.ForecastPeriod{
		MountainID:  p.MountainID,
		SourceName:  p.SourceName,
		TargetDate:  p.TargetDate.Time(),
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
	}
}

// MapStoreDailyToDomain decodes the archived summary back into generic JSON
// values, the same shape a daily has after being read from its JSON file.
func MapStoreDailyToDomain(d store.ForecastDaily) (domain.ForecastDaily, error) {
	summary := map[string]any{}
	if len(d.Summary) > 0 && string(d.Summary) != "null" {
		if err := json.Unmarshal(d.Summary, &summary); err != nil {
			return domain.ForecastDaily{}, fmt.Errorf("decode summary for %s/%s: %w", d.MountainID, d.SourceName, err)
		}
	}

	out := domain.ForecastDaily{
		MountainID:     d.MountainID,
		SourceName:     d.SourceName,
		TargetDate:     domain.DateOf(d.TargetDate),
		Periods:        make([]domain.ForecastPeriod, 0, len(d.Periods)),
		Summary:        summary,
		ConditionScore: d.ConditionScore,
		Confidence:     d.Confidence,
	}
	for _, p := range d.Periods {
		out.Periods = append(out.Periods, MapStorePeriodToDomain(p))
	}
	return out, nil
}

func MapStorePeriodToDomain(p store.ForecastPeriod) domain.ForecastPeriod {
	return domain.ForecastPeriod{
		MountainID:  p.MountainID,
		SourceName:  p.SourceName,
		TargetDate:  domain.DateOf(p.TargetDate),
		Period:      domain.Period(p.Period),
		SnowfallCM:  p.SnowfallCM,
		SnowdepthCM: p.SnowdepthCM,
		TempLowC:    p.TempLowC,
		TempHighC:   p.TempHighC,
		WindSpeedMS: p.WindSpeedMS,
		WindGustMS:  p.WindGustMS,
		WindDir:     p.WindDir,
		WeatherDesc: p.WeatherDesc,
		Notes:       p.Notes,
	}
}

func MapDomainRawToStore(r domain.SourceRaw, date domain.Date) store.SourceRaw {
	return store.SourceRaw{
		ID:         r.ID,
		MountainID: r.MountainID,
		SourceName: r.SourceName,
		TargetDate: date.Time(),
		FetchedAt:  r.FetchedAt,
		RawPayload: r.RawPayload,
		Status:     r.Status,
		Notes:      r.Notes,
	}
}
