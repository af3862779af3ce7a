package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector a compiled css selector
type Selector struct {
	text string
	sel  cascadia.Sel
}

// ParseSelector compile a css selector, e.g. "div.treemap > div.node"
func ParseSelector(s string) (Selector, error) {
	sel, err := cascadia.Parse(s)
	if err != nil {
		return Selector{}, fmt.Errorf("dom: selector %q: %s", s, err.Error())
	}
	return Selector{text: s, sel: sel}, nil
}

// MustSelector compile a selector, panic on error
func MustSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func (sel Selector) String() string { return sel.text }

// Match check if the element matches
func (sel Selector) Match(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || sel.sel == nil {
		return false
	}
	return sel.sel.Match(n)
}

// FindAll the matching descendants of root in document order, root excluded
func (sel Selector) FindAll(root *html.Node) []*html.Node {
	if sel.sel == nil {
		return []*html.Node{}
	}
	found := cascadia.QueryAll(root, sel.sel)
	if found == nil {
		return []*html.Node{}
	}
	return found
}

// Find the first matching descendant
func (sel Selector) Find(root *html.Node) *html.Node {
	if sel.sel == nil {
		return nil
	}
	return cascadia.Query(root, sel.sel)
}

// FindByID the first descendant whose id attribute equals id.
// ids come from config data, they are compared as is and never parsed as css
func FindByID(root *html.Node, id string) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && HasAttr(c, "id") && Attr(c, "id") == id {
			return c
		}
		if n := FindByID(c, id); n != nil {
			return n
		}
	}
	return nil
}
