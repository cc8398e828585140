package domain

import "time"

// SummaryReport condenses all sources for one mountain and target date.
type SummaryReport struct {
	ReportDate     Date           `json:"report_date"`
	MountainID     string         `json:"mountain_id"`
	TargetDate     Date           `json:"target_date"`
	AggregateScore *float64       `json:"aggregate_score"`
	Headline       *string        `json:"headline"`
	Details        map[string]any `json:"details_json"`
	PublishedAt    *time.Time     `json:"published_at"`
}
