package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/backcountry/pkg/models/domain"
)

type TableConfig struct {
	MountainWidth int
	ScoreWidth    int
	HeadlineWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MountainWidth: 20,
		ScoreWidth:    8,
		HeadlineWidth: 70,
	}
}

// Reporter prints a plain text digest of a report to the console.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(mountain string, score any, headline string) string {
			return fmt.Sprintf("| %-*s | %*v | %-*s |",
				c.config.MountainWidth, truncate(mountain, c.config.MountainWidth),
				c.config.ScoreWidth, score,
				c.config.HeadlineWidth, truncate(headline, c.config.HeadlineWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+",
				strings.Repeat("-", c.config.MountainWidth+2),
				strings.Repeat("-", c.config.ScoreWidth+2),
				strings.Repeat("-", c.config.HeadlineWidth+2))
		},
		"score": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%.1f", *v)
		},
		"deref": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
	}

	tmpl := `
{{.Title}} ({{.Period.Duration}} days, {{.DailyCount}} forecasts)
{{range .Days}}
=== {{.Date}}{{if .Holiday.IsHoliday}} {{deref .Holiday.HolidayName}}{{else if .Holiday.IsWeekend}} weekend{{end}} ===
{{separator}}
{{formatRow "Mountain" "Score" "Headline"}}
{{separator}}
{{range .Mountains}}{{formatRow .MountainID (score .Summary.AggregateScore) (deref .Summary.Headline)}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
