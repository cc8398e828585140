package workflow

import (
	"context"

	"github.com/de-tools/backcountry/pkg/adapters"
	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/store/duckdb/runs"
)

// RunHistory reads recorded pipeline runs as domain values.
type RunHistory struct {
	store runs.Store
}

func NewRunHistory(store runs.Store) *RunHistory {
	return &RunHistory{store: store}
}

func (h *RunHistory) ListRuns(ctx context.Context, limit int) ([]*domain.PipelineRun, error) {
	rows, err := h.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.PipelineRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, adapters.MapStoreRunToDomain(r))
	}
	return out, nil
}
