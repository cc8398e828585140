package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/de-tools/backcountry/pkg/models/domain"
	"github.com/de-tools/backcountry/pkg/services/summary"
)

// TemplateName is the report template looked up in the template directory.
const TemplateName = "daily_report.html"

//go:embed templates/daily_report.html
var defaultTemplates embed.FS

// HTMLRenderer writes reports through html/template. A daily_report.html in
// the template directory replaces the built-in page.
type HTMLRenderer struct {
	templateDir string
}

func NewHTMLRenderer(templateDir string) *HTMLRenderer {
	return &HTMLRenderer{templateDir: templateDir}
}

func (r *HTMLRenderer) Render(w io.Writer, report *domain.Report) error {
	t, err := r.template()
	if err != nil {
		return err
	}
	if err := t.Execute(w, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// TemplateSource names where the template comes from, for logging.
func (r *HTMLRenderer) TemplateSource() string {
	if path, ok := r.customTemplate(); ok {
		return path
	}
	return "built-in " + TemplateName
}

func (r *HTMLRenderer) template() (*template.Template, error) {
	t := template.New(TemplateName).Funcs(funcMap())

	if path, ok := r.customTemplate(); ok {
		parsed, err := t.ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
		}
		return parsed, nil
	}

	parsed, err := t.ParseFS(defaultTemplates, "templates/"+TemplateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return parsed, nil
}

func (r *HTMLRenderer) customTemplate() (string, bool) {
	if r.templateDir == "" {
		return "", false
	}
	path := filepath.Join(r.templateDir, TemplateName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"num": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return strconv.FormatFloat(*v, 'f', -1, 64)
		},
		"deref": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
		"value": func(v any) string {
			switch x := v.(type) {
			case nil:
				return "-"
			case float64:
				return strconv.FormatFloat(x, 'f', -1, 64)
			case *float64:
				if x == nil {
					return "-"
				}
				return strconv.FormatFloat(*x, 'f', -1, 64)
			case *string:
				if x == nil {
					return "-"
				}
				return *x
			default:
				return fmt.Sprint(x)
			}
		},
		"weekday": func(d domain.Date) string {
			return d.Weekday().String()[:3]
		},
		"isFallback": summary.IsFallback,
		"hours":      hourRows,
	}
}

// hourRows returns the hourly rows of a daily loaded from JSON.
func hourRows(d domain.ForecastDaily) []map[string]any {
	raw, ok := d.Summary["hours"].([]any)
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(raw))
	for _, h := range raw {
		if row, ok := h.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
