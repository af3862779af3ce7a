package engine

import (
	"math"
	"sort"
)

// golden ratio, the target aspect ratio of squarified rows
var phi = 0.5 * (1 + math.Sqrt(5))

// Treemap lay the tree out as nested rectangles filling width x height, areas
// proportional to the leaf values given by fn. Coordinates are rounded to whole pixels.
func Treemap(root *Node, width, height float64, fn ValueFunc) []*Node {
	nodes := root.Nodes(fn)
	for _, node := range nodes {
		if !node.IsLeaf() {
			sort.SliceStable(node.Children, func(i, j int) bool {
				return node.Children[i].Value > node.Children[j].Value
			})
		}
	}
	nodes = root.Nodes(fn)

	root.X, root.Y = 0, 0
	root.DX, root.DY = 0, 0
	if root.Value > 0 {
		root.DX, root.DY = width, height
	}
	scale([]*Node{root}, root.DX*root.DY/root.Value)
	squarify(root)
	return nodes
}

type rect struct{ x, y, dx, dy float64 }

func squarify(node *Node) {
	if node.IsLeaf() {
		return
	}

	r := rect{node.X, node.Y, node.DX, node.DY}
	remaining := append([]*Node{}, node.Children...)
	scale(remaining, r.dx*r.dy/node.Value)

	row, area := []*Node{}, 0.0
	best := math.Inf(1)
	u := math.Min(r.dx, r.dy)
	for len(remaining) > 0 {
		child := remaining[0]
		row = append(row, child)
		area += child.area
		if score := worst(row, area, u); score <= best {
			remaining = remaining[1:]
			best = score
			continue
		}
		row = row[:len(row)-1]
		area -= child.area
		position(row, area, u, &r, false)
		u = math.Min(r.dx, r.dy)
		row, area = row[:0], 0
		best = math.Inf(1)
	}
	if len(row) > 0 {
		position(row, area, u, &r, true)
	}

	for _, child := range node.Children {
		squarify(child)
	}
}

func scale(children []*Node, k float64) {
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		k = 0
	}
	for _, child := range children {
		a := child.Value * k
		if math.IsNaN(a) || a <= 0 {
			a = 0
		}
		child.area = a
	}
}

// worst the worst aspect ratio of the row laid along a side of length u
func worst(row []*Node, area, u float64) float64 {
	rmax, rmin := 0.0, math.Inf(1)
	for _, n := range row {
		if n.area == 0 {
			continue
		}
		rmin = math.Min(rmin, n.area)
		rmax = math.Max(rmax, n.area)
	}
	s := area * area
	u *= u
	if s == 0 {
		return math.Inf(1)
	}
	return math.Max(u*rmax*phi/s, s/(u*rmin*phi))
}

// position place the row along the shorter side of r and shrink r
func position(row []*Node, area, u float64, r *rect, flush bool) {
	x, y := r.x, r.y
	v := 0.0
	if u != 0 {
		v = math.Round(area / u)
	}

	var last *Node
	if u == r.dx {
		if flush || v > r.dy {
			v = r.dy
		}
		for _, o := range row {
			o.X, o.Y, o.DY = x, y, v
			o.DX = 0
			if v != 0 {
				o.DX = math.Min(r.x+r.dx-x, math.Round(o.area/v))
			}
			x += o.DX
			last = o
		}
		last.DX += r.x + r.dx - x
		r.y += v
		r.dy -= v
		return
	}

	if flush || v > r.dx {
		v = r.dx
	}
	for _, o := range row {
		o.X, o.Y, o.DX = x, y, v
		o.DY = 0
		if v != 0 {
			o.DY = math.Min(r.y+r.dy-y, math.Round(o.area/v))
		}
		y += o.DY
		last = o
	}
	last.DY += r.y + r.dy - y
	r.x += v
	r.dx -= v
}
