package engine

import "fmt"

// Cluster lay the tree out as a dendrogram with every leaf at the same depth.
// size is [breadth, depth]; node X runs along the breadth, Y along the depth.
func Cluster(root *Node, size [2]float64) []*Node {
	nodes := root.Nodes(nil)

	var previous *Node
	x := 0.0
	// post-order walk, leaves from left to right
	var walk func(node *Node)
	walk = func(node *Node) {
		for _, child := range node.Children {
			walk(child)
		}
		if node.IsLeaf() {
			node.X = 0
			if previous != nil {
				x += separation(node, previous)
				node.X = x
			}
			node.Y = 0
			previous = node
			return
		}
		sum, depth := 0.0, 0.0
		for _, child := range node.Children {
			sum += child.X
			depth = max(depth, child.Y)
		}
		node.X = sum / float64(len(node.Children))
		node.Y = 1 + depth
	}
	walk(root)

	left, right := leftmost(root), rightmost(root)
	x0 := left.X - separation(left, right)/2
	x1 := right.X + separation(right, left)/2
	depth := root.Y
	for _, node := range nodes {
		node.X = (node.X - x0) / (x1 - x0) * size[0]
		if depth != 0 {
			node.Y = (1 - node.Y/depth) * size[1]
		} else {
			node.Y = 0
		}
	}
	return nodes
}

// Diagonal a cubic path from source to target with x and y swapped, for left to right trees
func Diagonal(link Link) string {
	s, t := link.Source, link.Target
	m := (s.Y + t.Y) / 2
	return fmt.Sprintf("M%s,%sC%s,%s %s,%s %s,%s",
		num(s.Y), num(s.X),
		num(m), num(s.X),
		num(m), num(t.X),
		num(t.Y), num(t.X))
}

func separation(a, b *Node) float64 {
	if a.Parent == b.Parent {
		return 1
	}
	return 2
}

func leftmost(node *Node) *Node {
	for !node.IsLeaf() {
		node = node.Children[0]
	}
	return node
}

func rightmost(node *Node) *Node {
	for !node.IsLeaf() {
		node = node.Children[len(node.Children)-1]
	}
	return node
}
