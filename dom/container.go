package dom

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Container the DOM region the dashboard owns for one widget instance.
// Handlers may change its content but never replace the root element.
type Container struct {
	mu      sync.Mutex
	root    *html.Node
	data    map[string]interface{}
	version uint64
}

// NewContainer create an empty container element <div id="{id}" class="widget">
func NewContainer(id string) *Container {
	root := Element("div", "class", "widget")
	if id != "" {
		SetAttr(root, "id", id)
	}
	return &Container{root: root, data: map[string]interface{}{}}
}

// Wrap use an existing element as the container root
func Wrap(root *html.Node) *Container {
	return &Container{root: root, data: map[string]interface{}{}}
}

// ID the container id
func (c *Container) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Attr(c.root, "id")
}

// Mutate run fn with exclusive access to the root element
func (c *Container) Mutate(fn func(root *html.Node)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.root)
	c.version++
}

// Append append detached nodes to the root
func (c *Container) Append(nodes ...*html.Node) {
	c.Mutate(func(root *html.Node) { Append(root, nodes...) })
}

// AppendInto append nodes into the first element matching the selector.
// returns false if nothing matches
func (c *Container) AppendInto(selector string, nodes ...*html.Node) bool {
	sel := MustSelector(selector)
	appended := false
	c.Mutate(func(root *html.Node) {
		if target := sel.Find(root); target != nil {
			Append(target, nodes...)
			appended = true
		}
	})
	return appended
}

// RemoveAll remove every descendant matching the selector, returns the number removed
func (c *Container) RemoveAll(selector string) int {
	sel := MustSelector(selector)
	removed := 0
	c.Mutate(func(root *html.Node) {
		for _, n := range sel.FindAll(root) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
				removed++
			}
		}
	})
	return removed
}

// RemoveByID remove the descendants whose id attribute equals id, returns the number removed
func (c *Container) RemoveByID(id string) int {
	removed := 0
	c.Mutate(func(root *html.Node) {
		for n := FindByID(root, id); n != nil; n = FindByID(root, id) {
			n.Parent.RemoveChild(n)
			removed++
		}
	})
	return removed
}

// Query run fn over the matching descendants while holding the container
func (c *Container) Query(selector string, fn func(nodes []*html.Node)) {
	sel := MustSelector(selector)
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(sel.FindAll(c.root))
}

// Count the number of matching descendants
func (c *Container) Count(selector string) int {
	count := 0
	c.Query(selector, func(nodes []*html.Node) { count = len(nodes) })
	return count
}

// Attrs the attribute values of the matching descendants
func (c *Container) Attrs(selector, key string) []string {
	values := []string{}
	c.Query(selector, func(nodes []*html.Node) {
		for _, n := range nodes {
			values = append(values, Attr(n, key))
		}
	})
	return values
}

// Version the number of mutations applied so far
func (c *Container) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// SetDatum bind a value to the container
func (c *Container) SetDatum(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// Datum the value bound to the container
func (c *Container) Datum(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, has := c.data[key]
	return value, has
}

// HTML serialize the container, root included
func (c *Container) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, c.root); err != nil {
		return ""
	}
	return buf.String()
}

// Inner serialize the children of the root
func (c *Container) Inner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var buf bytes.Buffer
	for n := c.root.FirstChild; n != nil; n = n.NextSibling {
		if err := html.Render(&buf, n); err != nil {
			return ""
		}
	}
	return buf.String()
}

func (c *Container) String() string {
	return fmt.Sprintf("Container(#%s v%d)", c.ID(), c.Version())
}

// Fragment parse markup into detached nodes, as innerHTML would
func Fragment(markup string) ([]*html.Node, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}
