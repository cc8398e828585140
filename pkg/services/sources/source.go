package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/google/uuid"
)

var ErrURLNotConfigured = errors.New("source URL is not configured")

// Source scrapes one forecast provider.
type Source interface {
	Name() string
	// BuildRequests returns the URLs to fetch for the mountain and date.
	BuildRequests(mountain domain.Mountain, date domain.Date) ([]string, error)
	Collect(ctx context.Context, mountain domain.Mountain, date domain.Date) (*Collection, error)
}

// Collection is the outcome of one Collect call: the normalized daily plus
// the raw payloads it was built from.
type Collection struct {
	Daily domain.ForecastDaily
	Raw   []domain.SourceRaw
}

// Dependencies are shared by every source the catalog builds.
type Dependencies struct {
	Fetcher PageFetcher
	Now     func() time.Time
}

type baseSource struct {
	name    string
	fetcher PageFetcher
	now     func() time.Time
}

func newBaseSource(name string, deps Dependencies) baseSource {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return baseSource{name: name, fetcher: deps.Fetcher, now: now}
}

func (b baseSource) Name() string {
	return b.name
}

// BuildRequests returns the single page configured for this source.
func (b baseSource) BuildRequests(mountain domain.Mountain, _ domain.Date) ([]string, error) {
	u := mountain.Sources[b.name]
	if u == "" {
		return nil, fmt.Errorf("%s for %s: %w", b.name, mountain.MountainID, ErrURLNotConfigured)
	}
	return []string{u}, nil
}

func (b baseSource) rawRecord(mountain domain.Mountain, page Page) domain.SourceRaw {
	raw := domain.SourceRaw{
		ID:         uuid.NewString(),
		MountainID: mountain.MountainID,
		SourceName: b.name,
		FetchedAt:  page.FetchedAt,
		RawPayload: page.Text,
		Status:     page.Status,
	}
	if page.SamplePath != "" {
		raw.Notes = domain.String("sample=" + page.SamplePath)
	}
	return raw
}

func (b baseSource) newDaily(mountain domain.Mountain, date domain.Date) domain.ForecastDaily {
	return domain.ForecastDaily{
		MountainID: mountain.MountainID,
		SourceName: b.name,
		TargetDate: date,
		Periods:    []domain.ForecastPeriod{},
		Summary:    map[string]any{},
	}
}

func (b baseSource) newPeriod(mountain domain.Mountain, date domain.Date, p domain.Period) domain.ForecastPeriod {
	return domain.ForecastPeriod{
		MountainID: mountain.MountainID,
		SourceName: b.name,
		TargetDate: date,
		Period:     p,
	}
}
