package sources

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/de-tools/backcountry/pkg/services/sources/htmlq"
	"golang.org/x/net/html"
)

const forecastTableClass = "forecast-table__table--content"

var numRE = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// firstNumber returns the first signed decimal in text.
func firstNumber(text string) (string, bool) {
	m := numRE.FindString(text)
	return m, m != ""
}

func parseNumber(text string) *float64 {
	m, ok := firstNumber(text)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(text string) *int {
	v := parseNumber(text)
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func kmhToMS(kmh float64) float64 {
	return round2(kmh / 3.6)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatDecimal renders a float the way it appears in notes: shortest
// round-trip form, always with a fractional part ("1.0", "-12.0", "0.2").
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// valueAt returns values[i] or "" when out of range.
func valueAt(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func colspan(n *html.Node) int {
	v, ok := htmlq.Attr(n, "colspan")
	if !ok {
		return 1
	}
	span, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || span < 1 {
		return 1
	}
	return span
}

func dataRow(table *html.Node, name string) *html.Node {
	return htmlq.Find(table, htmlq.TagAttr("tr", "data-row", name))
}
