package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/sources/htmlq"
	"golang.org/x/net/html"
)

const PowderSearchName = "powdersearch"

var (
	powderSearchMissing = map[string]bool{"/": true, "-": true, "--": true}

	powderSearchUnits = map[string]string{
		"temperature_c":    "degC",
		"precipitation_mm": "mm",
		"wind_speed_ms":    "m/s",
		"sunshine_hours":   "hours",
		"snow_depth_cm":    "cm",
		"snowfall_cm":      "cm",
	}
)

// PowderSearchHour is one row of the PowderSearch hourly table.
type PowderSearchHour struct {
	Hour            int      `json:"hour"`
	TemperatureC    *float64 `json:"temperature_c"`
	PrecipitationMM *float64 `json:"precipitation_mm"`
	WindDirection   *string  `json:"wind_direction"`
	WindSpeedMS     *float64 `json:"wind_speed_ms"`
	SunshineHours   *float64 `json:"sunshine_hours"`
	SnowDepthCM     *float64 `json:"snow_depth_cm"`
	SnowfallCM      *float64 `json:"snowfall_cm"`
}

// PowderSearch publishes hourly rows only, so its dailies carry no periods
// and keep the hours in the summary.
type PowderSearch struct {
	baseSource
}

func NewPowderSearch(deps Dependencies) *PowderSearch {
	return &PowderSearch{baseSource: newBaseSource(PowderSearchName, deps)}
}

func (p *PowderSearch) Collect(ctx context.Context, mountain domain.Mountain, date domain.Date) (*Collection, error) {
	urls, err := p.BuildRequests(mountain, date)
	if err != nil {
		return nil, err
	}

	fetchedAt := p.now().UTC()
	col := &Collection{Daily: p.newDaily(mountain, date)}
	hours := []PowderSearchHour{}
	for _, u := range urls {
		page, err := p.fetcher.Fetch(ctx, p.name, u, date)
		if err != nil {
			return nil, err
		}
		col.Raw = append(col.Raw, p.rawRecord(mountain, page))

		parsed, err := p.ParseHours(date, page.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		hours = append(hours, parsed...)
	}
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })

	col.Daily.Summary = map[string]any{
		"hours":       hours,
		"source_urls": urls,
		"fetched_at":  fetchedAt,
		"units":       powderSearchUnits,
	}
	return col, nil
}

// ParseHours reads the rows of table#detail_data that belong to the target
// day of month. The day cell spans its hours with rowspan.
func (p *PowderSearch) ParseHours(date domain.Date, text string) ([]PowderSearchHour, error) {
	doc, err := htmlq.Parse(text)
	if err != nil {
		return nil, err
	}
	table := htmlq.Find(doc, htmlq.TagID("table", "detail_data"))
	if table == nil {
		return nil, nil
	}
	body := table
	if tbody := htmlq.Find(table, htmlq.Tag("tbody")); tbody != nil {
		body = tbody
	}

	target := date.Day()
	var currentDay *int
	hours := []PowderSearchHour{}
	for _, row := range htmlq.Children(body, "tr") {
		cells := htmlq.Children(row, "td", "th")
		if len(cells) == 0 || cells[0].Data == "th" {
			continue
		}
		if len(cells) == 1 && htmlq.HasAttr(cells[0], "colspan") {
			continue
		}
		if htmlq.HasAttr(cells[0], "rowspan") {
			currentDay = parseInt(powderCellText(cells[0]))
			cells = cells[1:]
		}
		if currentDay == nil || *currentDay != target || len(cells) == 0 {
			continue
		}

		hour := parseInt(powderCellText(cells[0]))
		if hour == nil {
			continue
		}
		dir, speed := powderWind(cells, 3)
		hours = append(hours, PowderSearchHour{
			Hour:            *hour,
			TemperatureC:    powderFloat(cells, 1),
			PrecipitationMM: powderFloat(cells, 2),
			WindDirection:   dir,
			WindSpeedMS:     speed,
			SunshineHours:   powderFloat(cells, 4),
			SnowDepthCM:     powderFloat(cells, 5),
			SnowfallCM:      powderFloat(cells, 6),
		})
	}
	return hours, nil
}

func powderCellText(cell *html.Node) string {
	return strings.TrimSpace(strings.ReplaceAll(htmlq.Text(cell, " "), "\u3000", " "))
}

func powderFloat(cells []*html.Node, i int) *float64 {
	if i >= len(cells) {
		return nil
	}
	text := powderCellText(cells[i])
	if text == "" || powderSearchMissing[text] {
		return nil
	}
	return parseNumber(text)
}

// powderWind reads "NW/4.5". Text without a slash is a bare direction.
func powderWind(cells []*html.Node, i int) (*string, *float64) {
	if i >= len(cells) {
		return nil, nil
	}
	text := powderCellText(cells[i])
	if text == "" || powderSearchMissing[text] {
		return nil, nil
	}
	dir, speed, ok := strings.Cut(text, "/")
	if !ok {
		return optional(strings.TrimSpace(text)), nil
	}
	return optional(strings.TrimSpace(dir)), parseNumber(speed)
}
