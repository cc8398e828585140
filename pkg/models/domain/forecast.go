package domain

import (
	"fmt"
	"time"
)

type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodNight     Period = "night"
)

// Mountain is one entry of the mountain list. Sources maps a source name to
// the page URL (or local path) that source should scrape for the mountain.
type Mountain struct {
	MountainID string            `json:"mountain_id"`
	Name       string            `json:"name"`
	Region     *string           `json:"region,omitempty"`
	Sources    map[string]string `json:"sources"`
	Elevation  *int              `json:"elevation,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
}

// SourceRaw is the unparsed payload of one fetch, kept for the archive.
type SourceRaw struct {
	ID         string    `json:"id"`
	MountainID string    `json:"mountain_id"`
	SourceName string    `json:"source_name"`
	FetchedAt  time.Time `json:"fetched_at"`
	RawPayload string    `json:"raw_payload"`
	Status     string    `json:"status"`
	Notes      *string   `json:"notes"`
}

const (
	RawStatusOK       = "ok"
	RawStatusOffline  = "offline_sample"
	RawStatusFallback = "fallback"
)

type ForecastPeriod struct {
	MountainID  string   `json:"mountain_id"`
	SourceName  string   `json:"source_name"`
	TargetDate  Date     `json:"target_date"`
	Period      Period   `json:"period"`
	SnowfallCM  *float64 `json:"snowfall_cm"`
	SnowdepthCM *float64 `json:"snowdepth_cm"`
	TempLowC    *float64 `json:"temp_low_c"`
	TempHighC   *float64 `json:"temp_high_c"`
	WindSpeedMS *float64 `json:"wind_speed_ms"`
	WindGustMS  *float64 `json:"wind_gust_ms"`
	WindDir     *string  `json:"wind_dir"`
	WeatherDesc *string  `json:"weather_desc"`
	Notes       *string  `json:"notes"`
}

// ForecastDaily is everything one source says about one mountain for one
// day. Periods may be empty for sources that only publish hourly data, in
// which case the data lives in Summary.
type ForecastDaily struct {
	MountainID     string           `json:"mountain_id"`
	SourceName     string           `json:"source_name"`
	TargetDate     Date             `json:"target_date"`
	Periods        []ForecastPeriod `json:"periods"`
	Summary        map[string]any   `json:"daily_summary_json"`
	ConditionScore *float64         `json:"condition_score"`
	Confidence     *float64         `json:"confidence"`
}

// FileName is the canonical name of the daily JSON document.
func (d ForecastDaily) FileName() string {
	return fmt.Sprintf("%s_%s_%s.json", d.MountainID, d.SourceName, d.TargetDate)
}

// TotalSnowfall sums period snowfall. ok is false when no period reports
// snowfall.
func (d ForecastDaily) TotalSnowfall() (total float64, ok bool) {
	for _, p := range d.Periods {
		if p.SnowfallCM != nil {
			total += *p.SnowfallCM
			ok = true
		}
	}
	return total, ok
}

func (d ForecastDaily) Period(p Period) (ForecastPeriod, bool) {
	for _, fp := range d.Periods {
		if fp.Period == p {
			return fp, true
		}
	}
	return ForecastPeriod{}, false
}

func Float(v float64) *float64 {
	return &v
}

func String(v string) *string {
	return &v
}
