package domain

import "time"

// PipelineRun is the bookkeeping record of one daily pipeline execution.
type PipelineRun struct {
	ID         string     `json:"id"`
	TargetDate Date       `json:"target_date"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Dailies    int        `json:"dailies"`
	Failures   int        `json:"failures"`
	Error      *string    `json:"error"`
}
