package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/backcountry/pkg/services/workflow"
	"github.com/spf13/cobra"
)

type CrontabCmd struct {
	env    *Env
	at     string
	binary string
}

func NewCrontabCmd(env *Env) *cobra.Command {
	cc := &CrontabCmd{env: env}
	cmd := &cobra.Command{
		Use:   "crontab",
		Short: "Print the crontab line that runs the daily pipeline",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.at, "at", "05:00", "Local time of day HH:MM")
	cmd.Flags().StringVar(&cc.binary, "binary", "", "Path to the backcountry binary (default this executable)")

	return cmd
}

func (cc *CrontabCmd) run(_ *cobra.Command, _ []string) error {
	at, err := workflow.ParseClock(cc.at)
	if err != nil {
		return err
	}

	binary := cc.binary
	if binary == "" {
		if binary, err = os.Executable(); err != nil {
			return fmt.Errorf("failed to resolve executable: %w", err)
		}
	}

	fmt.Fprintln(cc.env.Out, CronLine(at, binary, cc.env.Settings.Root, cc.env.Settings.CronLogPath()))
	return nil
}

// CronLine runs the daily pipeline from the project root and appends both
// output streams to the cron log.
func CronLine(at workflow.Clock, binary, root, logPath string) string {
	return fmt.Sprintf("%d %d * * * cd %s && %s daily >> %s 2>&1",
		at.Minute, at.Hour, shellQuote(root), shellQuote(binary), shellQuote(logPath))
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"$`;&|<>()*?") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
