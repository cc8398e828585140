package store

import "time"

type PipelineRun struct {
	ID         string
	TargetDate time.Time
	StartedAt  time.Time
	FinishedAt *time.Time
	Dailies    int
	Failures   int
	Error      *string
}
