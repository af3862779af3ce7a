package widget

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName the DOM-safe identifier derived from the widget name
func (cfg Config) NormalizeName() string {
	name := cfg.Name
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			sb.WriteByte('-')
			dash = true
		}
	}

	id := strings.Trim(sb.String(), "-")
	if id == "" {
		return "widget-" + cfg.GUID
	}
	return id
}

// ElementID the identifier of the element the timeline engine binds to
func (cfg Config) ElementID() string {
	return "widget-" + cfg.GUID
}

// Inner the drawable area: the allotted box minus the fixed margins, never negative
func (cfg Config) Inner() Box {
	return Inner(cfg.Width, cfg.Height)
}

// Inner translate an outer box into the drawable area
func Inner(width, height int) Box {
	return Box{Width: max(0, width-MarginX), Height: max(0, height-MarginY)}
}

// Variant the variant selected by the type suffix, e.g. "bar" for "sparkline-bar"
func (cfg Config) Variant(catalog *Catalog) string {
	match, err := catalog.Resolve(cfg.Type)
	if err != nil {
		return ""
	}
	return match.Variant
}

// Family the family the widget type resolves to
func (cfg Config) Family(catalog *Catalog) (Family, error) {
	match, err := catalog.Resolve(cfg.Type)
	if err != nil {
		return "", err
	}
	return match.Family, nil
}

// Option a string option, or the given default
func (cfg Config) Option(name string, defaults string) string {
	if cfg.Options == nil {
		return defaults
	}
	if v, ok := cfg.Options[name].(string); ok && v != "" {
		return v
	}
	return defaults
}

// Validate check the config before it reaches the dispatcher
func (cfg Config) Validate(catalog *Catalog) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("%w: %s size %dx%d is negative", ErrInvalidConfig, cfg.Name, cfg.Width, cfg.Height)
	}
	if strings.TrimSpace(cfg.DataSource) == "" {
		return fmt.Errorf("%w: %s dataSource is required", ErrInvalidConfig, cfg.Name)
	}
	if catalog != nil {
		if _, err := catalog.Resolve(cfg.Type); err != nil {
			return err
		}
	}
	return nil
}

func (cfg Config) String() string {
	return fmt.Sprintf("%s(%s) %s %dx%d %s", cfg.Name, cfg.GUID, cfg.Type, cfg.Width, cfg.Height, cfg.DataSource)
}
