package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type SourcesCmd struct {
	env *Env
}

func NewSourcesCmd(env *Env) *cobra.Command {
	sc := &SourcesCmd{env: env}
	return &cobra.Command{
		Use:   "sources",
		Short: "List known forecast sources",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
}

func (sc *SourcesCmd) run(cmd *cobra.Command, _ []string) error {
	statuses := sc.env.Catalog.Status(sc.env.Settings.Sources)
	if len(statuses) == 0 {
		fmt.Fprintln(sc.env.Out, "No forecast sources registered")
		return nil
	}

	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.Enabled {
			lines = append(lines, s.Name+" (enabled)")
		} else {
			lines = append(lines, s.Name)
		}
	}
	fmt.Fprintf(sc.env.Out, "Registered sources:\n%s\n", strings.Join(lines, "\n"))
	return nil
}
