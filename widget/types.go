package widget

// Margins subtracted from the allotted box to get the drawable area
const (
	MarginX = 20
	MarginY = 60
)

// Delimiter separates a family type from its variant, e.g. "sparkline-bar"
const Delimiter = "-"

// Config the widget instance setting, produced by the dashboard config loader
type Config struct {
	Name       string                 `json:"name" yaml:"name"`
	GUID       string                 `json:"guid" yaml:"guid"`
	Type       string                 `json:"type" yaml:"type"`
	Width      int                    `json:"width" yaml:"width"`
	Height     int                    `json:"height" yaml:"height"`
	DataSource string                 `json:"dataSource" yaml:"dataSource"`
	Options    map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// Box a layout box in pixels
type Box struct {
	Width  int
	Height int
}

// Family the rendering engine family a widget type maps to
type Family string

// The closed set of families
const (
	Chart     Family = "chart"
	Hierarchy Family = "hierarchy"
	Sparkline Family = "sparkline"
	Table     Family = "table"
	Timeline  Family = "timeline"
	Frame     Family = "frame"
	HTML      Family = "html"
)

// Families all the known families, in registration order
var Families = []Family{Chart, Hierarchy, Sparkline, Table, Timeline, Frame, HTML}

// Entry one catalog entry
type Entry struct {
	Family   Family
	Variants []string // closed set of suffixes; empty means the type takes no variant
	Default  string   // variant used when the type carries no suffix
}

// Match the result of resolving a type string against the catalog
type Match struct {
	Type    string // the catalog key that matched
	Family  Family
	Variant string
}
