package forecast

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/backcountry/pkg/models/store"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
)

const dateLayout = "2006-01-02"

// Store archives normalized forecasts and the raw pages they came from.
// Saving a daily replaces any earlier version for the same mountain,
// source and date.
type Store interface {
	Save(ctx context.Context, dailies []store.ForecastDaily) error
	AddRaw(ctx context.Context, raws []store.SourceRaw) error
	GetByDates(ctx context.Context, dates []time.Time) ([]store.ForecastDaily, error)
	ListDates(ctx context.Context) ([]time.Time, error)
}

type forecastStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &forecastStore{db: db}, nil
}

func (s *forecastStore) Save(ctx context.Context, dailies []store.ForecastDaily) error {
	if len(dailies) == 0 {
		return nil
	}

	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context) error {
		conn := duckdb.Conn(ctx, s.db)
		for _, d := range dailies {
			date := d.TargetDate.Format(dateLayout)
			_, err := conn.ExecContext(ctx, `
				INSERT OR REPLACE INTO forecast_daily (
					mountain_id, source_name, target_date, daily_summary_json,
					condition_score, confidence, updated_at
				) VALUES (?, ?, CAST(? AS DATE), ?, ?, ?, ?)`,
				d.MountainID, d.SourceName, date, string(d.Summary),
				duckdb.Nullable(d.ConditionScore), duckdb.Nullable(d.Confidence), d.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("upsert daily %s/%s/%s: %w", d.MountainID, d.SourceName, date, err)
			}

			_, err = conn.ExecContext(ctx, `
				DELETE FROM forecast_periods
				WHERE mountain_id = ? AND source_name = ? AND target_date = CAST(? AS DATE)`,
				d.MountainID, d.SourceName, date,
			)
			if err != nil {
				return fmt.Errorf("clear periods: %w", err)
			}

			for _, p := range d.Periods {
				_, err = conn.ExecContext(ctx, `
					INSERT OR REPLACE INTO forecast_periods (
						mountain_id, source_name, target_date, period,
						snowfall_cm, snowdepth_cm, temp_low_c, temp_high_c,
						wind_speed_ms, wind_gust_ms, wind_dir, weather_desc, notes
					) VALUES (?, ?, CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					d.MountainID, d.SourceName, date, p.Period,
					duckdb.Nullable(p.SnowfallCM), duckdb.Nullable(p.SnowdepthCM),
					duckdb.Nullable(p.TempLowC), duckdb.Nullable(p.TempHighC),
					duckdb.Nullable(p.WindSpeedMS), duckdb.Nullable(p.WindGustMS),
					duckdb.Nullable(p.WindDir), duckdb.Nullable(p.WeatherDesc), duckdb.Nullable(p.Notes),
				)
				if err != nil {
					return fmt.Errorf("insert period %s: %w", p.Period, err)
				}
			}
		}
		return nil
	})
}

func (s *forecastStore) AddRaw(ctx context.Context, raws []store.SourceRaw) error {
	if len(raws) == 0 {
		return nil
	}

	conn := duckdb.Conn(ctx, s.db)
	for _, r := range raws {
		_, err := conn.ExecContext(ctx, `
			INSERT OR REPLACE INTO source_raw (
				id, mountain_id, source_name, target_date, fetched_at, raw_payload, status, notes
			) VALUES (?, ?, ?, CAST(? AS DATE), ?, ?, ?, ?)`,
			r.ID, r.MountainID, r.SourceName, r.TargetDate.Format(dateLayout),
			r.FetchedAt, r.RawPayload, r.Status, duckdb.Nullable(r.Notes),
		)
		if err != nil {
			return fmt.Errorf("insert raw %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *forecastStore) GetByDates(ctx context.Context, dates []time.Time) ([]store.ForecastDaily, error) {
	if len(dates) == 0 {
		return []store.ForecastDaily{}, nil
	}

	placeholders := make([]string, 0, len(dates))
	args := make([]any, 0, len(dates))
	for _, d := range dates {
		placeholders = append(placeholders, "CAST(? AS DATE)")
		args = append(args, d.Format(dateLayout))
	}
	in := strings.Join(placeholders, ", ")
	conn := duckdb.Conn(ctx, s.db)

	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT mountain_id, source_name, strftime(target_date, '%%Y-%%m-%%d'),
			CAST(daily_summary_json AS VARCHAR), condition_score, confidence, updated_at
		FROM forecast_daily
		WHERE target_date IN (%s)
		ORDER BY target_date, mountain_id, source_name
	`, in), args...)
	if err != nil {
		return nil, fmt.Errorf("query dailies: %w", err)
	}
	dailies, err := scanDailies(rows)
	if err != nil {
		return nil, err
	}

	rows, err = conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT mountain_id, source_name, strftime(target_date, '%%Y-%%m-%%d'), period,
			snowfall_cm, snowdepth_cm, temp_low_c, temp_high_c,
			wind_speed_ms, wind_gust_ms, wind_dir, weather_desc, notes
		FROM forecast_periods
		WHERE target_date IN (%s)
		ORDER BY target_date, mountain_id, source_name,
			CASE period WHEN 'morning' THEN 0 WHEN 'afternoon' THEN 1 WHEN 'night' THEN 2 ELSE 3 END
	`, in), args...)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	periods, err := scanPeriods(rows)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(dailies))
	for i, d := range dailies {
		index[key(d.MountainID, d.SourceName, d.TargetDate)] = i
	}
	for _, p := range periods {
		if i, ok := index[key(p.MountainID, p.SourceName, p.TargetDate)]; ok {
			dailies[i].Periods = append(dailies[i].Periods, p)
		}
	}
	return dailies, nil
}

func (s *forecastStore) ListDates(ctx context.Context) ([]time.Time, error) {
	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT DISTINCT strftime(target_date, '%Y-%m-%d') AS d FROM forecast_daily ORDER BY d
	`)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func scanDailies(rows *sql.Rows) ([]store.ForecastDaily, error) {
	defer rows.Close()

	dailies := make([]store.ForecastDaily, 0)
	for rows.Next() {
		var (
			d                 store.ForecastDaily
			date              string
			summary           sql.NullString
			score, confidence sql.NullFloat64
		)
		if err := rows.Scan(&d.MountainID, &d.SourceName, &date, &summary, &score, &confidence, &d.UpdatedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, err
		}
		d.TargetDate = t
		if summary.Valid {
			d.Summary = []byte(summary.String)
		}
		d.ConditionScore = floatPtr(score)
		d.Confidence = floatPtr(confidence)
		d.Periods = []store.ForecastPeriod{}
		dailies = append(dailies, d)
	}
	return dailies, rows.Err()
}

func scanPeriods(rows *sql.Rows) ([]store.ForecastPeriod, error) {
	defer rows.Close()

	periods := make([]store.ForecastPeriod, 0)
	for rows.Next() {
		var (
			p                                   store.ForecastPeriod
			date                                string
			snow, depth, low, high, speed, gust sql.NullFloat64
			dir, desc, notes                    sql.NullString
		)
		err := rows.Scan(&p.MountainID, &p.SourceName, &date, &p.Period,
			&snow, &depth, &low, &high, &speed, &gust, &dir, &desc, &notes)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, err
		}
		p.TargetDate = t
		p.SnowfallCM, p.SnowdepthCM = floatPtr(snow), floatPtr(depth)
		p.TempLowC, p.TempHighC = floatPtr(low), floatPtr(high)
		p.WindSpeedMS, p.WindGustMS = floatPtr(speed), floatPtr(gust)
		p.WindDir, p.WeatherDesc, p.Notes = stringPtr(dir), stringPtr(desc), stringPtr(notes)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func key(mountain, source string, date time.Time) string {
	return mountain + "|" + source + "|" + date.Format(dateLayout)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
