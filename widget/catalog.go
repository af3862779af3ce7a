package widget

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Catalog maps widget type strings to families
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCatalog create an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: map[string]Entry{}}
}

// DefaultCatalog the types the bundled handlers understand
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, name := range []string{
		"line", "spline", "step", "area", "area-spline", "area-step",
		"bar", "scatter", "pie", "donut", "gauge", "timeseries",
	} {
		c.Add(name, Entry{Family: Chart})
	}
	c.Add("dendrogram", Entry{Family: Hierarchy})
	c.Add("treemap", Entry{Family: Hierarchy})
	c.Add("voronoi", Entry{Family: Hierarchy})
	c.Add("sparkline", Entry{
		Family:   Sparkline,
		Variants: []string{"line", "bar", "tristate", "discrete", "pie"},
		Default:  "line",
	})
	c.Add("datatable", Entry{Family: Table})
	c.Add("timeline", Entry{Family: Timeline})
	c.Add("iframe", Entry{Family: Frame})
	c.Add("custom", Entry{Family: HTML})
	return c
}

// Add register a type, replacing any previous entry with the same name
func (c *Catalog) Add(name string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToLower(name)] = entry
}

// Remove unregister a type. returns false if the type was unknown
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	name = strings.ToLower(name)
	if _, has := c.entries[name]; !has {
		return false
	}
	delete(c.entries, name)
	return true
}

// Resolve match a type string: the full string first, then the part before the delimiter
func (c *Catalog) Resolve(typ string) (Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := strings.ToLower(strings.TrimSpace(typ))
	if entry, has := c.entries[name]; has {
		return Match{Type: name, Family: entry.Family, Variant: entry.Default}, nil
	}

	prefix, variant, found := strings.Cut(name, Delimiter)
	if found {
		if entry, has := c.entries[prefix]; has && entry.allows(variant) {
			return Match{Type: prefix, Family: entry.Family, Variant: variant}, nil
		}
	}

	return Match{}, &UnknownTypeError{Type: typ, Suggestion: c.suggest(name)}
}

// Has check if the type resolves
func (c *Catalog) Has(typ string) bool {
	_, err := c.Resolve(typ)
	return err == nil
}

// Types the resolvable type strings, variants expanded, sorted
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := []string{}
	for name, entry := range c.entries {
		types = append(types, name)
		for _, variant := range entry.Variants {
			types = append(types, name+Delimiter+variant)
		}
	}
	sort.Strings(types)
	return types
}

func (entry Entry) allows(variant string) bool {
	for _, v := range entry.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// suggest the closest known type within a small edit distance. caller holds the lock
func (c *Catalog) suggest(name string) string {
	best, distance := "", 3
	for known := range c.entries {
		d := levenshtein.ComputeDistance(name, known)
		if d < distance || (d == distance && best != "" && known < best) {
			best, distance = known, d
		}
	}
	return best
}
