package api

import "time"

type Period struct {
	Period      string   `json:"period"`
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

type Forecast struct {
	MountainID string         `json:"mountain_id"`
	SourceName string         `json:"source_name"`
	TargetDate string         `json:"target_date"`
	SnowfallCM *float64       `json:"snowfall_cm"`
	Fallback   bool           `json:"fallback"`
	Periods    []Period       `json:"periods"`
	Summary    map[string]any `json:"daily_summary_json"`
}

type Summary struct {
	MountainID     string         `json:"mountain_id"`
	AggregateScore *float64       `json:"aggregate_score"`
	Headline       *string        `json:"headline"`
	Details        map[string]any `json:"details_json"`
}

type DayForecasts struct {
	Date      string     `json:"date"`
	Holiday   Holiday    `json:"holiday"`
	Forecasts []Forecast `json:"forecasts"`
	Summaries []Summary  `json:"summaries"`
}

type Holiday struct {
	Date        string  `json:"date"`
	IsWeekend   bool    `json:"is_weekend"`
	IsHoliday   bool    `json:"is_holiday"`
	HolidayName *string `json:"holiday_name"`
}

type Source struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type Run struct {
	ID         string     `json:"id"`
	TargetDate string     `json:"target_date"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Dailies    int        `json:"dailies"`
	Failures   int        `json:"failures"`
	Error      *string    `json:"error"`
}

type ReportFile struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

type Error struct {
	Error string `json:"error"`
}
