package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/backcountry/pkg/server"
	"github.com/de-tools/backcountry/pkg/services/config"
	"github.com/de-tools/backcountry/pkg/services/report"
	"github.com/de-tools/backcountry/pkg/services/sources"
	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/de-tools/backcountry/pkg/store/duckdb"
	"github.com/de-tools/backcountry/pkg/store/duckdb/forecast"
	"github.com/de-tools/backcountry/pkg/store/duckdb/runs"
	"github.com/de-tools/backcountry/pkg/store/files"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	root        string
	cfgPath     string
	fromArchive bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve stored forecasts and rendered reports",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&root, "root", "", "Project root (default $BACKCOUNTRY_ROOT or the working directory)")
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Config file (default <root>/backcountry.yaml)")
	rootCmd.Flags().BoolVar(&fromArchive, "from-archive", false, "Serve forecasts and run history from the DuckDB archive")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(config.LoadOptions{Root: root, ConfigFile: cfgPath})
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	catalog := sources.BuiltinCatalog()
	deps := server.Dependencies{
		Forecasts:  report.NewFileLoader(files.NewDailyStore(settings.DataDir)),
		Sources:    catalog,
		Enabled:    settings.Sources,
		ReportsDir: settings.ReportsDir,
	}

	if fromArchive {
		db, err := duckdb.NewDB(duckdb.Settings{
			DbPath: settings.Archive.Path,
		})
		if err != nil {
			return fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		defer db.Close()

		forecastStore, err := forecast.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create forecast store: %w", err)
		}
		runStore, err := runs.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		deps.Forecasts = report.NewArchiveLoader(forecastStore)
		deps.Runs = workflow.NewRunHistory(runStore)
		logger.Info().Str("archive", settings.Archive.Path).Msg("serving from archive")
	}

	logger.Info().Msgf("Project root `%s` loaded.", settings.Root)
	logger.Info().Strs("sources", catalog.List()).Msg("known sources")

	addr := net.JoinHostPort(settings.Server.Host, settings.Server.Port)
	api := server.NewWebAPI(logger, server.Config{
		Addr:         addr,
		Dependencies: deps,
	})
	return api.Start()
}
