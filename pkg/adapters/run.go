package adapters

import (
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/models/store"
)

func MapStoreRunToDomain(r *store.PipelineRun) *domain.PipelineRun {
	if r == nil {
		return nil
	}

	return &domain.PipelineRun{
		ID:         r.ID,
		TargetDate: domain.DateOf(r.TargetDate),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Dailies:    r.Dailies,
		Failures:   r.Failures,
		Error:      r.Error,
	}
}

func MapDomainRunToStore(r *domain.PipelineRun) *store.PipelineRun {
	return &store.PipelineRun{
		ID:         r.ID,
		TargetDate: r.TargetDate.Time(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Dailies:    r.Dailies,
		Failures:   r.Failures,
		Error:      r.Error,
	}
}
