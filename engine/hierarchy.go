package engine

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Node a node of a hierarchical data set, {"name": "...", "size": n, "children": [...]}
type Node struct {
	Name     string  `json:"name"`
	Size     float64 `json:"size,omitempty"`
	Children []*Node `json:"children,omitempty"`

	Parent *Node   `json:"-"`
	Depth  int     `json:"-"`
	Value  float64 `json:"-"`
	X      float64 `json:"-"`
	Y      float64 `json:"-"`
	DX     float64 `json:"-"`
	DY     float64 `json:"-"`

	area float64
}

// Link a parent to child edge
type Link struct {
	Source *Node
	Target *Node
}

// ValueFunc the value of a leaf
type ValueFunc func(n *Node) float64

// BySize leaves weigh their size
func BySize(n *Node) float64 { return n.Size }

// ByCount every leaf weighs 1
func ByCount(n *Node) float64 { return 1 }

// ParseTree decode a hierarchy
func ParseTree(data []byte) (*Node, error) {
	root := &Node{}
	if err := jsoniter.Unmarshal(data, root); err != nil {
		return nil, err
	}
	if root.Name == "" && len(root.Children) == 0 {
		return nil, fmt.Errorf("hierarchy root has neither a name nor children")
	}
	return root, nil
}

// IsLeaf check if the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Nodes the nodes in pre-order, parents and depths assigned, values summed with fn
func (n *Node) Nodes(fn ValueFunc) []*Node {
	nodes := []*Node{}
	var visit func(node *Node, parent *Node, depth int)
	visit = func(node *Node, parent *Node, depth int) {
		node.Parent = parent
		node.Depth = depth
		nodes = append(nodes, node)
		for _, child := range node.Children {
			visit(child, node, depth+1)
		}
	}
	visit(n, nil, 0)

	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		if node.IsLeaf() {
			node.Value = 0
			if fn != nil {
				node.Value = fn(node)
			}
		} else {
			node.Value = 0
			for _, child := range node.Children {
				node.Value += child.Value
			}
		}
	}
	return nodes
}

// Links the parent to child edges of the nodes, in node order
func Links(nodes []*Node) []Link {
	links := []Link{}
	for _, node := range nodes {
		for _, child := range node.Children {
			links = append(links, Link{Source: node, Target: child})
		}
	}
	return links
}

// num format a coordinate the way a browser prints a number
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
