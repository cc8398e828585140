package sources

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/sources/htmlq"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const MountainForecastName = "mountainforecast"

var (
	windRE = regexp.MustCompile(`(\d+)(?:-(\d+))?([A-Z]+)?`)

	mountainForecastPeriods = map[string]domain.Period{
		"night": domain.PeriodNight,
		"am":    domain.PeriodMorning,
		"pm":    domain.PeriodAfternoon,
	}

	mountainForecastMissing = map[string]bool{"?": true, "-": true, "--": true, "": true}

	mountainForecastUnits = map[string]string{
		"temperature_c":  "degC",
		"wind_speed_kmh": "km/h",
		"wind_speed_ms":  "m/s",
		"rain_mm":        "mm",
		"snowfall_cm":    "cm",
		"wind_chill_c":   "degC",
	}

	windReplacer = strings.NewReplacer(
		"\u2013", "-",
		"km/h", "",
		"KM/H", "",
		"Calm", "0",
		"calm", "0",
		"\u00a0", "",
	)
)

// MountainForecastColumn is one column of the Mountain-Forecast table,
// kept in the daily summary for every date on the page.
type MountainForecastColumn struct {
	Date              string   `json:"date"`
	PeriodLabel       string   `json:"period_label"`
	Weather           *string  `json:"weather"`
	WindDirection     *string  `json:"wind_direction"`
	WindSpeedKMH      *float64 `json:"wind_speed_kmh"`
	WindSpeedMS       *float64 `json:"wind_speed_ms"`
	WindGustKMH       *float64 `json:"wind_gust_kmh"`
	WindGustMS        *float64 `json:"wind_gust_ms"`
	TemperatureMaxC   *float64 `json:"temperature_max_c"`
	TemperatureMinC   *float64 `json:"temperature_min_c"`
	TemperatureChillC *float64 `json:"temperature_chill_c"`
	SnowfallCM        *float64 `json:"snowfall_cm"`
	RainMM            *float64 `json:"rain_mm"`
}

type wind struct {
	dir     *string
	speedMS *float64
	speedKH *float64
	gustMS  *float64
	gustKH  *float64
}

// MountainForecast scrapes period forecasts from Mountain-Forecast. A failed
// fetch produces a placeholder daily instead of an error.
type MountainForecast struct {
	baseSource
}

func NewMountainForecast(deps Dependencies) *MountainForecast {
	return &MountainForecast{baseSource: newBaseSource(MountainForecastName, deps)}
}

func (m *MountainForecast) Collect(ctx context.Context, mountain domain.Mountain, date domain.Date) (*Collection, error) {
	urls, err := m.BuildRequests(mountain, date)
	if err != nil {
		return nil, err
	}

	fetchedAt := m.now().UTC()
	col := &Collection{Daily: m.newDaily(mountain, date)}
	columns := []MountainForecastColumn{}
	var sourceURLs []string

	for _, u := range urls {
		page, err := m.fetcher.Fetch(ctx, m.name, u, date)
		if err != nil {
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				return nil, err
			}
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("mountain", mountain.MountainID).
				Msg("mountainforecast unavailable, writing placeholder forecast")
			return m.fallback(mountain, date, fetchedAt, []string{u}, err.Error()), nil
		}
		sourceURLs = append(sourceURLs, u)
		col.Raw = append(col.Raw, m.rawRecord(mountain, page))

		periods, cols, err := m.parseTable(page.Text, mountain, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
		col.Daily.Periods = append(col.Daily.Periods, periods...)
		columns = append(columns, cols...)
	}

	col.Daily.Summary = map[string]any{
		"columns":     columns,
		"source_urls": sourceURLs,
		"fetched_at":  fetchedAt,
		"units":       mountainForecastUnits,
	}
	return col, nil
}

// Parse returns the target date's periods from a Mountain-Forecast page.
func (m *MountainForecast) Parse(mountain domain.Mountain, date domain.Date, text string) ([]domain.ForecastPeriod, error) {
	periods, _, err := m.parseTable(text, mountain, date)
	return periods, err
}

func (m *MountainForecast) fallback(
	mountain domain.Mountain,
	date domain.Date,
	fetchedAt time.Time,
	urls []string,
	reason string,
) *Collection {
	daily := m.newDaily(mountain, date)
	columns := make([]MountainForecastColumn, 0, 3)
	zero := func() *float64 { return domain.Float(0) }
	dash := func() *string { return domain.String("-") }

	for _, slot := range []struct {
		period domain.Period
		label  string
	}{
		{domain.PeriodNight, "night"},
		{domain.PeriodMorning, "am"},
		{domain.PeriodAfternoon, "pm"},
	} {
		fp := m.newPeriod(mountain, date, slot.period)
		fp.SnowfallCM, fp.SnowdepthCM = zero(), zero()
		fp.TempLowC, fp.TempHighC = zero(), zero()
		fp.WindSpeedMS, fp.WindGustMS = zero(), zero()
		fp.WindDir, fp.WeatherDesc, fp.Notes = dash(), dash(), dash()
		daily.Periods = append(daily.Periods, fp)

		columns = append(columns, MountainForecastColumn{
			Date:              date.String(),
			PeriodLabel:       slot.label,
			Weather:           dash(),
			WindDirection:     dash(),
			WindSpeedKMH:      zero(),
			WindSpeedMS:       zero(),
			WindGustKMH:       zero(),
			WindGustMS:        zero(),
			TemperatureMaxC:   zero(),
			TemperatureMinC:   zero(),
			TemperatureChillC: zero(),
			SnowfallCM:        zero(),
			RainMM:            zero(),
		})
	}

	daily.Summary = map[string]any{
		"status":      domain.RawStatusFallback,
		"reason":      reason,
		"source_urls": urls,
		"fetched_at":  fetchedAt,
		"columns":     columns,
		"units":       mountainForecastUnits,
	}

	raw := domain.SourceRaw{
		ID:         uuid.NewString(),
		MountainID: mountain.MountainID,
		SourceName: m.name,
		FetchedAt:  fetchedAt,
		Status:     domain.RawStatusFallback,
		Notes:      domain.String(reason),
	}
	return &Collection{Daily: daily, Raw: []domain.SourceRaw{raw}}
}

func (m *MountainForecast) parseTable(
	text string,
	mountain domain.Mountain,
	date domain.Date,
) ([]domain.ForecastPeriod, []MountainForecastColumn, error) {
	doc, err := htmlq.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	table := htmlq.Find(doc, htmlq.TagClass("table", forecastTableClass))
	if table == nil {
		return nil, nil, nil
	}

	dates := expandDates(table)
	times := tdValues(table, "time")
	if len(dates) == 0 || len(times) == 0 {
		return nil, nil, nil
	}
	n := min(len(dates), len(times))

	phrases := tdValues(table, "phrases")
	weather := tdValues(table, "weather")
	winds := tdValues(table, "wind")
	snow := tdValues(table, "snow")
	rain := tdValues(table, "rain")
	tempMax := tdValues(table, "temperature-max")
	tempMin := tdValues(table, "temperature-min")
	tempChill := tdValues(table, "temperature-chill")

	target := date.String()
	periods := []domain.ForecastPeriod{}
	columns := []MountainForecastColumn{}

	for i := 0; i < n; i++ {
		d, label := dates[i], times[i]
		if d == "" || label == "" {
			continue
		}
		p, ok := mountainForecastPeriods[strings.ToLower(strings.TrimSpace(label))]
		if !ok {
			continue
		}

		desc := valueAt(phrases, i)
		if desc == "" {
			desc = valueAt(weather, i)
		}
		w := parseWind(valueAt(winds, i))
		snowCM := parseNumber(valueAt(snow, i))
		rainMM := parseNumber(valueAt(rain, i))
		tMax := parseNumber(valueAt(tempMax, i))
		tMin := parseNumber(valueAt(tempMin, i))
		tChill := parseNumber(valueAt(tempChill, i))

		columns = append(columns, MountainForecastColumn{
			Date:              d,
			PeriodLabel:       strings.ToLower(label),
			Weather:           optional(desc),
			WindDirection:     w.dir,
			WindSpeedKMH:      w.speedKH,
			WindSpeedMS:       w.speedMS,
			WindGustKMH:       w.gustKH,
			WindGustMS:        w.gustMS,
			TemperatureMaxC:   tMax,
			TemperatureMinC:   tMin,
			TemperatureChillC: tChill,
			SnowfallCM:        snowCM,
			RainMM:            rainMM,
		})

		if d != target {
			continue
		}

		var notes []string
		if rainMM != nil {
			notes = append(notes, "rain_mm="+formatDecimal(*rainMM))
		}
		if tChill != nil {
			notes = append(notes, "wind_chill_c="+formatDecimal(*tChill))
		}

		fp := m.newPeriod(mountain, date, p)
		fp.SnowfallCM = snowCM
		fp.TempHighC = tMax
		fp.TempLowC = tMin
		fp.WindSpeedMS = w.speedMS
		fp.WindGustMS = w.gustMS
		fp.WindDir = w.dir
		fp.WeatherDesc = optional(desc)
		if len(notes) > 0 {
			fp.Notes = domain.String(strings.Join(notes, ";"))
		}
		periods = append(periods, fp)
	}
	return periods, columns, nil
}

// expandDates repeats each day cell's data-date over its colspan.
func expandDates(table *html.Node) []string {
	row := dataRow(table, "days")
	if row == nil {
		return nil
	}
	var dates []string
	for _, cell := range htmlq.Children(row, "td") {
		d, _ := htmlq.Attr(cell, "data-date")
		for j := 0; j < colspan(cell); j++ {
			dates = append(dates, d)
		}
	}
	return dates
}

// tdValues returns normalized td texts of a data row; missing markers
// become "".
func tdValues(table *html.Node, name string) []string {
	row := dataRow(table, name)
	if row == nil {
		return nil
	}
	cells := htmlq.Children(row, "td")
	values := make([]string, 0, len(cells))
	for _, cell := range cells {
		text := strings.TrimSpace(strings.ReplaceAll(htmlq.Text(cell, " "), "\u00a0", " "))
		if mountainForecastMissing[text] {
			text = ""
		}
		values = append(values, text)
	}
	return values
}

// parseWind reads "25 NW", "20-35NW", "Calm" and similar.
func parseWind(text string) wind {
	if text == "" {
		return wind{}
	}
	cleaned := strings.ToUpper(strings.ReplaceAll(windReplacer.Replace(text), " ", ""))
	if cleaned == "" || cleaned == "0" {
		return wind{speedMS: domain.Float(0), speedKH: domain.Float(0)}
	}
	m := windRE.FindStringSubmatch(cleaned)
	if m == nil {
		return wind{}
	}
	speed, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return wind{}
	}
	w := wind{
		dir:     optional(m[3]),
		speedKH: domain.Float(speed),
		speedMS: domain.Float(kmhToMS(speed)),
	}
	if m[2] != "" {
		gust, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			w.gustKH = domain.Float(gust)
			w.gustMS = domain.Float(kmhToMS(gust))
		}
	}
	return w
}
