package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/rs/zerolog"
)

// DailyStore keeps one JSON document per daily forecast under
// <data dir>/<date>/<mountain>_<source>_<date>.json.
type DailyStore struct {
	dataDir string
}

func NewDailyStore(dataDir string) *DailyStore {
	return &DailyStore{dataDir: dataDir}
}

func (s *DailyStore) Folder(date domain.Date) string {
	return filepath.Join(s.dataDir, date.String())
}

// Save writes the daily and returns its path. Existing files are replaced.
func (s *DailyStore) Save(daily domain.ForecastDaily) (string, error) {
	folder := s.Folder(daily.TargetDate)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", folder, err)
	}

	payload, err := EncodeDaily(daily)
	if err != nil {
		return "", err
	}

	path := filepath.Join(folder, daily.FileName())
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Files lists the daily documents stored for the dates in name order. A
// missing date folder is logged and skipped.
func (s *DailyStore) Files(ctx context.Context, dates []domain.Date) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	var paths []string
	for _, date := range dates {
		folder := s.Folder(date)
		matches, err := filepath.Glob(filepath.Join(folder, "*.json"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			if _, err := os.Stat(folder); errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Str("folder", folder).Msg("forecast folder does not exist")
				continue
			}
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

// Load decodes the given files. Files that cannot be parsed are logged and
// skipped.
func (s *DailyStore) Load(ctx context.Context, paths []string) []domain.ForecastDaily {
	logger := zerolog.Ctx(ctx)

	dailies := make([]domain.ForecastDaily, 0, len(paths))
	for _, path := range paths {
		daily, err := ReadDaily(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to parse forecast file")
			continue
		}
		dailies = append(dailies, daily)
	}
	return dailies
}

// Dates lists the date folders present in the data directory.
func (s *DailyStore) Dates() ([]domain.Date, error) {
	entries, err := os.ReadDir(s.dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Date{}, nil
	}
	if err != nil {
		return nil, err
	}

	dates := make([]domain.Date, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := domain.ParseDate(e.Name())
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func ReadDaily(path string) (domain.ForecastDaily, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ForecastDaily{}, err
	}
	var daily domain.ForecastDaily
	if err := json.Unmarshal(data, &daily); err != nil {
		return domain.ForecastDaily{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if daily.MountainID == "" || daily.SourceName == "" || daily.TargetDate.IsZero() {
		return domain.ForecastDaily{}, fmt.Errorf("decode %s: mountain_id, source_name and target_date are required", filepath.Base(path))
	}
	if daily.Periods == nil {
		daily.Periods = []domain.ForecastPeriod{}
	}
	if daily.Summary == nil {
		daily.Summary = map[string]any{}
	}
	return daily, nil
}

// EncodeDaily renders the document with a two space indent and without
// escaping non-ASCII or HTML characters.
func EncodeDaily(daily domain.ForecastDaily) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(daily); err != nil {
		return nil, fmt.Errorf("encode %s: %w", daily.FileName(), err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
