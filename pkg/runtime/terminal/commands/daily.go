package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/runtime/terminal/export"
	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/de-tools/backcountry/pkg/store/files"
	"github.com/spf13/cobra"
)

type DailyCmd struct {
	env       *Env
	date      string
	mountains string
	archive   bool
}

func NewDailyCmd(env *Env) *cobra.Command {
	dc := &DailyCmd{env: env}
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Collect forecasts for every mountain and source for one date",
		Args:  cobra.NoArgs,
		RunE:  dc.run,
	}

	cmd.Flags().StringVar(&dc.date, "date", "", "Target date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&dc.mountains, "mountains", "", "Mountain list JSON (default <root>/mountains.json)")
	cmd.Flags().BoolVar(&dc.archive, "archive", false, "Also store forecasts in the DuckDB archive")

	return cmd
}

func (dc *DailyCmd) run(cmd *cobra.Command, _ []string) error {
	date := domain.Today()
	if dc.date != "" {
		parsed, err := domain.ParseDate(dc.date)
		if err != nil {
			return err
		}
		date = parsed
	}

	_, err := runDaily(cmd.Context(), dc.env, date, dc.mountains, dc.archive)
	return err
}

// runDaily runs the pipeline once and prints its summary. The daily and
// schedule commands share it.
func runDaily(ctx context.Context, env *Env, date domain.Date, mountainsFile string, archive bool) (*workflow.Result, error) {
	if err := env.Settings.EnsureDirectories(); err != nil {
		return nil, err
	}
	if mountainsFile == "" {
		mountainsFile = env.Settings.MountainsFile
	}
	mountains, err := files.LoadMountains(mountainsFile)
	if err != nil {
		return nil, err
	}

	srcs, err := env.sources()
	if err != nil {
		return nil, err
	}

	var wfArchive *workflow.Archive
	if archive {
		db, a, err := env.openArchive()
		if err != nil {
			return nil, err
		}
		defer db.Close()
		wfArchive = a
	}

	runner := workflow.NewRunner(srcs, files.NewDailyStore(env.Settings.DataDir), wfArchive,
		workflow.RunnerConfig{Workers: env.Settings.Workers})
	result, runErr := runner.Run(ctx, date, mountains)

	summary := export.RunSummary{Run: result.Run, Paths: result.Paths}
	for _, f := range result.Failures {
		summary.Failures = append(summary.Failures, f.Error())
	}
	if err := export.NewRunReporter(env.Out).Handle(summary); err != nil {
		return result, errors.Join(runErr, err)
	}
	if runErr != nil {
		return result, fmt.Errorf("daily pipeline finished with %d failure(s): %w", len(result.Failures), runErr)
	}
	return result, nil
}
