package engine

import (
	"fmt"
	"strings"
)

// Point a 2d point
type Point [2]float64

// ParsePoints decode [[x, y], ...]
func ParsePoints(values []interface{}) ([]Point, error) {
	points := make([]Point, 0, len(values))
	for i, value := range values {
		pair, ok := value.([]interface{})
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("point #%d is not an [x, y] pair", i)
		}
		x, okx := pair[0].(float64)
		y, oky := pair[1].(float64)
		if !okx || !oky {
			return nil, fmt.Errorf("point #%d is not numeric", i)
		}
		points = append(points, Point{x, y})
	}
	return points, nil
}

// Voronoi the voronoi cell of every site clipped to [0, 0]-[width, height].
// A site outside the extent may get an empty cell, duplicated sites share one.
func Voronoi(sites []Point, width, height float64) [][]Point {
	cells := make([][]Point, len(sites))
	extent := []Point{{0, 0}, {0, height}, {width, height}, {width, 0}}
	for i, site := range sites {
		cell := append([]Point{}, extent...)
		for j, other := range sites {
			if i == j || other == site {
				continue
			}
			cell = clipHalfPlane(cell, site, other)
			if len(cell) == 0 {
				break
			}
		}
		cells[i] = cell
	}
	return cells
}

// Polygon the svg path of a polygon, "M" + points joined by "L" + "Z"
func Polygon(points []Point) string {
	if len(points) == 0 {
		return ""
	}
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, num(p[0])+","+num(p[1]))
	}
	return "M" + strings.Join(parts, "L") + "Z"
}

// clipHalfPlane keep the part of the polygon closer to a than to b
func clipHalfPlane(polygon []Point, a, b Point) []Point {
	// points p with (p - m) . (b - a) <= 0 are on a's side, m the midpoint
	nx, ny := b[0]-a[0], b[1]-a[1]
	mx, my := (a[0]+b[0])/2, (a[1]+b[1])/2
	side := func(p Point) float64 { return (p[0]-mx)*nx + (p[1]-my)*ny }

	clipped := []Point{}
	for i, cur := range polygon {
		prev := polygon[(i+len(polygon)-1)%len(polygon)]
		sc, sp := side(cur), side(prev)
		if sc <= 0 {
			if sp > 0 {
				clipped = append(clipped, intersect(prev, cur, sp, sc))
			}
			clipped = append(clipped, cur)
		} else if sp <= 0 {
			clipped = append(clipped, intersect(prev, cur, sp, sc))
		}
	}
	return clipped
}

func intersect(p, q Point, sp, sq float64) Point {
	t := sp / (sp - sq)
	return Point{p[0] + t*(q[0]-p[0]), p[1] + t*(q[1]-p[1])}
}
