package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element create a detached element. attrs are key, value pairs
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// Text create a text node
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Append append children to the parent and return the parent
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Parent != nil {
			child.Parent.RemoveChild(child)
		}
		parent.AppendChild(child)
	}
	return parent
}

// Attr get an attribute value
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr check if the attribute is set
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr set an attribute, replacing the previous value
func SetAttr(n *html.Node, key, val string) *html.Node {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return n
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}

// Classes the class list
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass check the class list
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass add classes that are not yet present
func AddClass(n *html.Node, classes ...string) *html.Node {
	list := Classes(n)
	for _, class := range classes {
		if !HasClass(n, class) {
			list = append(list, class)
			SetAttr(n, "class", strings.Join(list, " "))
		}
	}
	return n
}

// Style get an inline style property
func Style(n *html.Node, prop string) string {
	return styles(n)[prop]
}

// SetStyle set inline style properties. props are name, value pairs
func SetStyle(n *html.Node, props ...string) *html.Node {
	values := styles(n)
	order := styleOrder(n)
	for i := 0; i+1 < len(props); i += 2 {
		if _, has := values[props[i]]; !has {
			order = append(order, props[i])
		}
		values[props[i]] = props[i+1]
	}

	parts := make([]string, 0, len(order))
	for _, prop := range order {
		parts = append(parts, prop+": "+values[prop])
	}
	return SetAttr(n, "style", strings.Join(parts, "; "))
}

// Children the element children
func Children(n *html.Node) []*html.Node {
	nodes := []*html.Node{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// TextContent the concatenated text of the subtree
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func styles(n *html.Node) map[string]string {
	values := map[string]string{}
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		values[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return values
}

func styleOrder(n *html.Node) []string {
	order := []string{}
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		name, _, found := strings.Cut(decl, ":")
		if found {
			order = append(order, strings.TrimSpace(name))
		}
	}
	return order
}
