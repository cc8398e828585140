package sources

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/sources/htmlq"
	"golang.org/x/net/html"
)

const SnowForecastName = "snowforecast"

var (
	snowForecastPeriods = map[string]domain.Period{
		"morning":   domain.PeriodMorning,
		"am":        domain.PeriodMorning,
		"afternoon": domain.PeriodAfternoon,
		"pm":        domain.PeriodAfternoon,
		"night":     domain.PeriodNight,
		"evening":   domain.PeriodNight,
	}

	// checked in order after the English tokens
	japanesePeriods = []struct {
		label  string
		period domain.Period
	}{
		{"午前", domain.PeriodMorning},
		{"午後", domain.PeriodAfternoon},
		{"夜", domain.PeriodNight},
	}

	combinedWindRE = regexp.MustCompile(`(\d+(?:\.\d+)?)([A-Z]+)?`)
	nonLetterRE    = regexp.MustCompile(`[^a-z ]`)
)

// SnowForecast scrapes the three-period table of Snow-Forecast pages.
type SnowForecast struct {
	baseSource
}

func NewSnowForecast(deps Dependencies) *SnowForecast {
	return &SnowForecast{baseSource: newBaseSource(SnowForecastName, deps)}
}

func (s *SnowForecast) Collect(ctx context.Context, mountain domain.Mountain, date domain.Date) (*Collection, error) {
	urls, err := s.BuildRequests(mountain, date)
	if err != nil {
		return nil, err
	}

	col := &Collection{Daily: s.newDaily(mountain, date)}
	fetchedAt := s.now().UTC()
	for _, u := range urls {
		page, err := s.fetcher.Fetch(ctx, s.name, u, date)
		if err != nil {
			return nil, err
		}
		col.Raw = append(col.Raw, s.rawRecord(mountain, page))

		periods, err := s.Parse(mountain, date, page.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		col.Daily.Periods = append(col.Daily.Periods, periods...)
	}
	col.Daily.Summary["source_urls"] = urls
	col.Daily.Summary["fetched_at"] = fetchedAt
	return col, nil
}

// Parse extracts the target date's periods from a Snow-Forecast page. A page
// without the forecast table yields no periods.
func (s *SnowForecast) Parse(mountain domain.Mountain, date domain.Date, text string) ([]domain.ForecastPeriod, error) {
	doc, err := htmlq.Parse(text)
	if err != nil {
		return nil, err
	}
	table := htmlq.Find(doc, htmlq.TagClass("table", forecastTableClass))
	if table == nil {
		return nil, nil
	}

	dayRow := dataRow(table, "days")
	timeRow := dataRow(table, "time")
	if dayRow == nil || timeRow == nil {
		return nil, nil
	}

	// The day row's leading label cell gives up one column, the time row
	// carries no label.
	var dates []string
	for i, cell := range htmlq.Children(dayRow, "th", "td") {
		d, ok := htmlq.Attr(cell, "data-date")
		span := colspan(cell)
		if i == 0 && !ok {
			span--
		}
		for j := 0; j < span; j++ {
			dates = append(dates, d)
		}
	}

	labels := cellTexts(timeRow)
	n := min(len(labels), len(dates))

	phrases := rowValues(table, "phrases")
	wind := rowValues(table, "wind")
	snow := rowValues(table, "snow")
	rain := rowValues(table, "rain")
	tempMax := rowValues(table, "temperature-max")
	tempMin := rowValues(table, "temperature-min")

	target := date.String()
	periods := []domain.ForecastPeriod{}
	for idx := 0; idx < n; idx++ {
		if dates[idx] == "" || dates[idx] != target {
			continue
		}
		p, ok := normalizeSnowForecastPeriod(labels[idx])
		if !ok {
			continue
		}

		fp := s.newPeriod(mountain, date, p)
		fp.SnowfallCM = parseNumber(valueAt(snow, idx))
		fp.TempHighC = parseNumber(valueAt(tempMax, idx))
		fp.TempLowC = parseNumber(valueAt(tempMin, idx))
		fp.WindSpeedMS, fp.WindDir = parseCombinedWind(valueAt(wind, idx))
		fp.WeatherDesc = optional(valueAt(phrases, idx))
		if num, ok := firstNumber(valueAt(rain, idx)); ok {
			fp.Notes = domain.String("rain_mm=" + num)
		}
		periods = append(periods, fp)
	}
	return periods, nil
}

// cellTexts returns the stripped text of every th/td child.
func cellTexts(row *html.Node) []string {
	cells := htmlq.Children(row, "th", "td")
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, htmlq.Text(c, ""))
	}
	return out
}

// rowValues returns the cell texts of a data row without its label cell.
func rowValues(table *html.Node, name string) []string {
	row := dataRow(table, name)
	if row == nil {
		return nil
	}
	values := cellTexts(row)
	if len(values) > 0 {
		values = values[1:]
	}
	return values
}

// parseCombinedWind reads "<km/h><DIR>" such as "15NW".
func parseCombinedWind(text string) (*float64, *string) {
	if text == "" {
		return nil, nil
	}
	m := combinedWindRE.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	kmh, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil
	}
	return domain.Float(kmhToMS(kmh)), optional(m[2])
}

func normalizeSnowForecastPeriod(label string) (domain.Period, bool) {
	if label == "" {
		return "", false
	}
	cleaned := nonLetterRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), " ")
	for _, token := range strings.Fields(cleaned) {
		if p, ok := snowForecastPeriods[token]; ok {
			return p, true
		}
	}
	for _, jp := range japanesePeriods {
		if strings.Contains(label, jp.label) {
			return jp.period, true
		}
	}
	return "", false
}
