package report

import (
	"fmt"
	"slices"

	"github.com/de-tools/backcountry/pkg/models/domain"
)

// ResolveDates turns report arguments into target dates. One date is that
// day, two dates are an inclusive range and more are taken as listed. The
// result is sorted and holds each date once.
func ResolveDates(args []string) ([]domain.Date, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one date is required")
	}

	dates := make([]domain.Date, 0, len(args))
	for _, arg := range args {
		d, err := domain.ParseDate(arg)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	if len(dates) == 2 {
		return domain.DateRange(dates[0], dates[1])
	}

	slices.SortFunc(dates, func(a, b domain.Date) int {
		return a.Time().Compare(b.Time())
	})
	return slices.CompactFunc(dates, domain.Date.Equal), nil
}
