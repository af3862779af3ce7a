package engine

import "sync"

// Category20c the 20 colour categorical palette, four shades of five hues
var Category20c = []string{
	"#3182bd", "#6baed6", "#9ecae1", "#c6dbef",
	"#e6550d", "#fd8d3c", "#fdae6b", "#fdd0a2",
	"#31a354", "#74c476", "#a1d99b", "#c7e9c0",
	"#756bb1", "#9e9ac8", "#bcbddc", "#dadaeb",
	"#636363", "#969696", "#bdbdbd", "#d9d9d9",
}

// Ordinal map keys to palette colours in order of first use
type Ordinal struct {
	mu      sync.Mutex
	palette []string
	index   map[string]int
}

// NewOrdinal create an ordinal scale over the palette
func NewOrdinal(palette []string) *Ordinal {
	return &Ordinal{palette: palette, index: map[string]int{}}
}

// Color the colour of the key
func (o *Ordinal) Color(key string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	i, has := o.index[key]
	if !has {
		i = len(o.index)
		o.index[key] = i
	}
	return o.palette[i%len(o.palette)]
}
