package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/spf13/cobra"
)

type ScheduleCmd struct {
	env       *Env
	at        string
	now       bool
	mountains string
	archive   bool
}

func NewScheduleCmd(env *Env) *cobra.Command {
	sc := &ScheduleCmd{env: env}
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the daily pipeline every day at a fixed time, for hosts without cron",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.at, "at", "05:00", "Local time of day HH:MM")
	cmd.Flags().BoolVar(&sc.now, "now", false, "Also run once right away")
	cmd.Flags().StringVar(&sc.mountains, "mountains", "", "Mountain list JSON (default <root>/mountains.json)")
	cmd.Flags().BoolVar(&sc.archive, "archive", false, "Also store forecasts in the DuckDB archive")

	return cmd
}

func (sc *ScheduleCmd) run(cmd *cobra.Command, _ []string) error {
	at, err := workflow.ParseClock(sc.at)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := workflow.NewScheduler(at, func(ctx context.Context, due time.Time) error {
		_, err := runDaily(ctx, sc.env, domain.DateOf(due), sc.mountains, sc.archive)
		return err
	})
	scheduler.RunImmediately = sc.now
	return scheduler.Run(ctx)
}
