package sources

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownSource is returned by Build for names the catalog cannot serve.
var ErrUnknownSource = errors.New("unknown forecast source")

// Constructor builds a source around the shared fetcher.
type Constructor func(deps Dependencies) Source

// Catalog maps the names accepted by the sources setting to their
// constructors.
type Catalog struct {
	ctors map[string]Constructor
}

func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]Constructor)}
}

// BuiltinCatalog knows the three scraped forecast sites.
func BuiltinCatalog() *Catalog {
	c := NewCatalog()
	c.ctors[SnowForecastName] = func(deps Dependencies) Source { return NewSnowForecast(deps) }
	c.ctors[MountainForecastName] = func(deps Dependencies) Source { return NewMountainForecast(deps) }
	c.ctors[PowderSearchName] = func(deps Dependencies) Source { return NewPowderSearch(deps) }
	return c
}

// Add makes a source available under name. Names are lower case, like the
// sources setting.
func (c *Catalog) Add(name string, ctor Constructor) error {
	if name == "" || name != strings.ToLower(name) {
		return fmt.Errorf("invalid source name %q", name)
	}
	if ctor == nil {
		return fmt.Errorf("source %q has no constructor", name)
	}
	if _, ok := c.ctors[name]; ok {
		return fmt.Errorf("source %q is already in the catalog", name)
	}
	c.ctors[name] = ctor
	return nil
}

// List returns the known source names in sorted order.
func (c *Catalog) List() []string {
	names := make([]string, 0, len(c.ctors))
	for name := range c.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SourceStatus is a catalog entry with whether the settings enable it.
type SourceStatus struct {
	Name    string
	Enabled bool
}

func (c *Catalog) Status(enabled []string) []SourceStatus {
	out := make([]SourceStatus, 0, len(c.ctors))
	for _, name := range c.List() {
		out = append(out, SourceStatus{Name: name, Enabled: slices.Contains(enabled, name)})
	}
	return out
}

// Build constructs the enabled sources in their configured order. Repeated
// names are built once. All unknown names are reported in one error.
func (c *Catalog) Build(enabled []string, deps Dependencies) ([]Source, error) {
	var (
		out     = make([]Source, 0, len(enabled))
		seen    = make(map[string]bool, len(enabled))
		unknown []string
	)
	for _, raw := range enabled {
		name := strings.ToLower(strings.TrimSpace(raw))
		if seen[name] {
			continue
		}
		seen[name] = true

		ctor, ok := c.ctors[name]
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		out = append(out, ctor(deps))
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownSource,
			strings.Join(unknown, ", "), strings.Join(c.List(), ", "))
	}
	if len(out) == 0 {
		return nil, errors.New("no forecast sources enabled")
	}
	return out, nil
}
