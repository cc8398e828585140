package commands

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/de-tools/backcountry/pkg/services/config"
	"github.com/de-tools/backcountry/pkg/services/sources"
	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
	"github.com/de-tools/backcountry/pkg/store/duckdb/forecast"
	"github.com/de-tools/backcountry/pkg/store/duckdb/runs"
)

// Env is shared by every command. Settings is filled in by the root command
// before any command runs.
type Env struct {
	Settings *config.Settings
	Catalog  *sources.Catalog
	Out      io.Writer
	ErrOut   io.Writer
}

func (e *Env) fetcher() *sources.Fetcher {
	s := e.Settings
	return sources.NewFetcher(sources.FetcherOptions{
		UserAgent:         s.Fetch.UserAgent,
		Timeout:           s.Fetch.Timeout,
		RetryMax:          s.Fetch.RetryMax,
		RequestsPerSecond: s.Fetch.RequestsPerSecond,
		Offline:           s.Offline,
		OfflineSampleDir:  s.OfflineSampleDir,
	})
}

func (e *Env) sources() ([]sources.Source, error) {
	return e.Catalog.Build(e.Settings.Sources, sources.Dependencies{Fetcher: e.fetcher()})
}

// openArchive opens the DuckDB archive. The caller closes the returned DB.
func (e *Env) openArchive() (*sql.DB, *workflow.Archive, error) {
	path := e.Settings.Archive.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: path})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	forecastStore, err := forecast.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create forecast store: %w", err)
	}
	runStore, err := runs.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create run store: %w", err)
	}
	return db, &workflow.Archive{DB: db, Forecasts: forecastStore, Runs: runStore}, nil
}
