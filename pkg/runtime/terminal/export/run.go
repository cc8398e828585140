package export

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/dustin/go-humanize"
)

// RunSummary is what the console needs to know about one pipeline run.
type RunSummary struct {
	Run      domain.PipelineRun
	Paths    []string
	Failures []string
}

// RunReporter outputs pipeline runs to the console in a formatted text form
type RunReporter struct {
	writer io.Writer
}

func NewRunReporter(writer io.Writer) *RunReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &RunReporter{writer: writer}
}

func (c *RunReporter) Handle(summary RunSummary) error {
	funcMap := template.FuncMap{
		"elapsed": func(run domain.PipelineRun) string {
			if run.FinishedAt == nil {
				return "unfinished"
			}
			return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		},
		"count": func(n int, word string) string {
			return fmt.Sprintf("%s %s", humanize.Comma(int64(n)), plural(n, word))
		},
	}

	tmpl := `
Daily forecast run {{.Run.TargetDate}} ({{elapsed .Run}})
Stored: {{count .Run.Dailies "forecast"}}, failed: {{count .Run.Failures "pair"}}
{{range .Paths}}
- {{.}}{{end}}
{{if .Failures}}
=== Failures ==={{range .Failures}}
- {{.}}{{end}}
{{end}}`

	t, err := template.New("run").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, summary)
}

// RunHistory prints recorded runs, newest first.
func (c *RunReporter) RunHistory(runs []*domain.PipelineRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(c.writer, "No pipeline runs recorded.")
		return err
	}
	for _, r := range runs {
		status := "ok"
		if r.FinishedAt == nil {
			status = "running"
		} else if r.Error != nil {
			status = "failed"
		}
		if _, err := fmt.Fprintf(c.writer, "%s  %s  %-7s  %d stored, %d failed  (%s)\n",
			r.TargetDate, r.ID, status, r.Dailies, r.Failures, humanize.Time(r.StartedAt)); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
