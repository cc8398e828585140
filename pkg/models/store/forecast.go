package store

import "time"

type ForecastDaily struct {
	MountainID     string
	SourceName     string
	TargetDate     time.Time
	Summary        []byte
	ConditionScore *float64
	Confidence     *float64
	UpdatedAt      time.Time
	Periods        []ForecastPeriod
}

type ForecastPeriod struct {
	MountainID  string
	SourceName  string
	TargetDate  time.Time
	Period      string
	SnowfallCM  *float64
	SnowdepthCM *float64
	TempLowC    *float64
	TempHighC   *float64
	WindSpeedMS *float64
	WindGustMS  *float64
	WindDir     *string
	WeatherDesc *string
	Notes       *string
}

type SourceRaw struct {
	ID         string
	MountainID string
	SourceName string
	TargetDate time.Time
	FetchedAt  time.Time
	RawPayload string
	Status     string
	Notes      *string
}
