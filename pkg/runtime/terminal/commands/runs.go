package commands

import (
	"github.com/de-tools/backcountry/pkg/runtime/terminal/export"
	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/spf13/cobra"
)

type RunsCmd struct {
	env   *Env
	limit int
}

func NewRunsCmd(env *Env) *cobra.Command {
	rc := &RunsCmd{env: env}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List daily pipeline runs recorded in the archive",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().IntVar(&rc.limit, "limit", 20, "Number of runs to show")

	return cmd
}

func (rc *RunsCmd) run(cmd *cobra.Command, _ []string) error {
	db, archive, err := rc.env.openArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := workflow.NewRunHistory(archive.Runs).ListRuns(cmd.Context(), rc.limit)
	if err != nil {
		return err
	}
	return export.NewRunReporter(rc.env.Out).RunHistory(runs)
}
