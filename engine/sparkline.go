package engine

import (
	"fmt"
	"math"

	"github.com/chartsbuilder/widgets/dom"
	"golang.org/x/net/html"
)

// SparklineKinds the supported sparkline kinds
var SparklineKinds = []string{"line", "bar", "tristate", "discrete", "pie"}

var sliceColors = []string{"#3366cc", "#dc3912", "#ff9900", "#109618", "#66aa00", "#dd4477", "#0099c6", "#990099"}

// Sparkline draw a word-sized inline svg of the values
func Sparkline(kind string, values []float64, width, height int) (*html.Node, error) {
	known := false
	for _, k := range SparklineKinds {
		known = known || k == kind
	}
	if !known {
		return nil, fmt.Errorf("sparkline kind %s does not support", kind)
	}
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 20
	}
	w, h := float64(width), float64(height)

	svg := dom.Element("svg",
		"class", "sparkline-"+kind,
		"width", fmt.Sprint(width),
		"height", fmt.Sprint(height),
		"viewBox", fmt.Sprintf("0 0 %d %d", width, height),
	)
	if len(values) == 0 {
		return svg, nil
	}

	switch kind {
	case "line":
		return dom.Append(svg, sparkLine(values, w, h)), nil
	case "bar":
		return dom.Append(svg, sparkBars(values, w, h)...), nil
	case "tristate":
		return dom.Append(svg, sparkTristate(values, w, h)...), nil
	case "discrete":
		return dom.Append(svg, sparkDiscrete(values, w, h)...), nil
	case "pie":
		return dom.Append(svg, sparkPie(values, w, h)...), nil
	}
	return svg, nil
}

func bounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// yOf map v into [0, h-1], top is the maximum
func yOf(v, lo, hi, h float64) float64 {
	if hi == lo {
		return math.Round(h / 2)
	}
	return math.Round((h - 1) - (v-lo)/(hi-lo)*(h-1))
}

func sparkLine(values []float64, w, h float64) *html.Node {
	lo, hi := bounds(values)
	points := ""
	for i, v := range values {
		x := w / 2
		if len(values) > 1 {
			x = math.Round(float64(i) * (w - 1) / float64(len(values)-1))
		}
		if i > 0 {
			points += " "
		}
		points += num(x) + "," + num(yOf(v, lo, hi, h))
	}
	return dom.Element("polyline", "points", points, "fill", "none", "stroke", "#00f", "stroke-width", "1")
}

func sparkBars(values []float64, w, h float64) []*html.Node {
	lo, hi := bounds(values)
	lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	if hi == lo {
		hi = lo + 1
	}
	bw := w / float64(len(values))
	zero := (h - 1) - (0-lo)/(hi-lo)*(h-1)

	bars := make([]*html.Node, 0, len(values))
	for i, v := range values {
		y := (h - 1) - (v-lo)/(hi-lo)*(h-1)
		top, height, color := y, zero-y, "#3366cc"
		if v < 0 {
			top, height, color = zero, y-zero, "#f44"
		}
		bars = append(bars, dom.Element("rect",
			"x", num(math.Round(float64(i)*bw)),
			"y", num(math.Round(top)),
			"width", num(math.Max(1, math.Floor(bw)-1)),
			"height", num(math.Max(1, math.Round(height))),
			"fill", color,
		))
	}
	return bars
}

func sparkTristate(values []float64, w, h float64) []*html.Node {
	bw := w / float64(len(values))
	half := math.Floor(h / 2)
	bars := make([]*html.Node, 0, len(values))
	for i, v := range values {
		y, height, color := 0.0, half, "#6f6"
		switch {
		case v < 0:
			y, color = half, "#f44"
		case v == 0:
			y, height, color = half-1, 2, "#999"
		}
		bars = append(bars, dom.Element("rect",
			"x", num(math.Round(float64(i)*bw)),
			"y", num(y),
			"width", num(math.Max(1, math.Floor(bw)-1)),
			"height", num(height),
			"fill", color,
		))
	}
	return bars
}

func sparkDiscrete(values []float64, w, h float64) []*html.Node {
	lo, hi := bounds(values)
	step := w / float64(len(values))
	tick := math.Max(1, math.Round(h*0.3))
	lines := make([]*html.Node, 0, len(values))
	for i, v := range values {
		x := num(math.Round(float64(i)*step + step/2))
		y := math.Min(yOf(v, lo, hi, h), h-tick)
		lines = append(lines, dom.Element("line",
			"x1", x, "x2", x,
			"y1", num(y), "y2", num(y+tick),
			"stroke", "#00f",
		))
	}
	return lines
}

func sparkPie(values []float64, w, h float64) []*html.Node {
	total := 0.0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	r := math.Floor(math.Min(w, h)/2) - 1
	cx, cy := math.Floor(w/2), math.Floor(h/2)
	if total == 0 || r <= 0 {
		return nil
	}

	slices := []*html.Node{}
	start := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		color := sliceColors[i%len(sliceColors)]
		if v == total {
			return []*html.Node{dom.Element("circle", "cx", num(cx), "cy", num(cy), "r", num(r), "fill", color)}
		}
		end := start + v/total*2*math.Pi
		large := 0
		if end-start > math.Pi {
			large = 1
		}
		x0, y0 := cx+r*math.Cos(start), cy+r*math.Sin(start)
		x1, y1 := cx+r*math.Cos(end), cy+r*math.Sin(end)
		d := fmt.Sprintf("M%s,%sL%s,%sA%s,%s 0 %d 1 %s,%sZ",
			num(cx), num(cy), fixed(x0), fixed(y0), num(r), num(r), large, fixed(x1), fixed(y1))
		slices = append(slices, dom.Element("path", "d", d, "fill", color))
		start = end
	}
	return slices
}

func fixed(v float64) string {
	return num(math.Round(v*100) / 100)
}
