package engine

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flare = `{"name": "flare", "children": [{"name": "analytics", "children": [{"name": "cluster", "size": 3938}, {"name": "graph", "size": 3812}]}, {"name": "flex", "size": 4116}]}`

func TestParseTree(t *testing.T) {
	root, err := ParseTree([]byte(flare))
	require.NoError(t, err)
	nodes := root.Nodes(BySize)
	names := []string{}
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"flare", "analytics", "cluster", "graph", "flex"}, names)
	assert.Equal(t, 11866.0, root.Value)
	assert.Equal(t, 7750.0, nodes[1].Value)
	assert.Equal(t, 2, nodes[2].Depth)
	assert.Equal(t, nodes[1], nodes[2].Parent)
	assert.Len(t, Links(nodes), 4)

	root.Nodes(ByCount)
	assert.Equal(t, 3.0, root.Value)

	_, err = ParseTree([]byte(`{}`))
	assert.Error(t, err)
	_, err = ParseTree([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestCluster(t *testing.T) {
	root, err := ParseTree([]byte(flare))
	require.NoError(t, err)

	nodes := Cluster(root, [2]float64{100, 200})
	positions := map[string][2]float64{}
	for _, n := range nodes {
		positions[n.Name] = [2]float64{n.X, n.Y}
	}
	assert.Equal(t, map[string][2]float64{
		"flare":     {55, 0},
		"analytics": {30, 100},
		"cluster":   {20, 200},
		"graph":     {40, 200},
		"flex":      {80, 200},
	}, positions)

	link := Link{Source: &Node{X: 10, Y: 0}, Target: &Node{X: 30, Y: 100}}
	assert.Equal(t, "M0,10C50,10 50,30 100,30", Diagonal(link))
}

func TestClusterSingle(t *testing.T) {
	root := &Node{Name: "alone"}
	nodes := Cluster(root, [2]float64{100, 200})
	require.Len(t, nodes, 1)
	assert.Equal(t, 50.0, root.X)
	assert.Equal(t, 0.0, root.Y)
}

func TestTreemap(t *testing.T) {
	root, err := ParseTree([]byte(`{"name": "root", "children": [{"name": "small", "size": 1}, {"name": "large", "size": 3}]}`))
	require.NoError(t, err)

	nodes := Treemap(root, 400, 100, BySize)
	require.Len(t, nodes, 3)
	assert.Equal(t, "large", root.Children[0].Name)

	rects := map[string][4]float64{}
	for _, n := range nodes {
		rects[n.Name] = [4]float64{n.X, n.Y, n.DX, n.DY}
	}
	assert.Equal(t, [4]float64{0, 0, 400, 100}, rects["root"])
	assert.Equal(t, [4]float64{0, 0, 300, 100}, rects["large"])
	assert.Equal(t, [4]float64{300, 0, 100, 100}, rects["small"])
}

func TestTreemapFill(t *testing.T) {
	root, err := ParseTree([]byte(flare))
	require.NoError(t, err)

	for _, fn := range []ValueFunc{BySize, ByCount} {
		nodes := Treemap(root, 600, 500, fn)
		area := 0.0
		for _, n := range nodes {
			if !n.IsLeaf() {
				continue
			}
			assert.GreaterOrEqual(t, n.X, 0.0)
			assert.GreaterOrEqual(t, n.Y, 0.0)
			assert.LessOrEqual(t, n.X+n.DX, 600.0)
			assert.LessOrEqual(t, n.Y+n.DY, 500.0)
			area += n.DX * n.DY
		}
		assert.Equal(t, 600.0*500.0, area)
	}
}

func TestVoronoi(t *testing.T) {
	cells := Voronoi([]Point{{25, 50}, {75, 50}}, 100, 100)
	require.Len(t, cells, 2)
	for _, p := range cells[0] {
		assert.LessOrEqual(t, p[0], 50.0)
	}
	for _, p := range cells[1] {
		assert.GreaterOrEqual(t, p[0], 50.0)
	}
	assert.InDelta(t, 5000, polygonArea(cells[0]), 1e-9)
	assert.InDelta(t, 5000, polygonArea(cells[1]), 1e-9)
	assert.True(t, strings.HasPrefix(Polygon(cells[0]), "M"))
	assert.True(t, strings.HasSuffix(Polygon(cells[0]), "Z"))
	assert.Equal(t, "", Polygon(nil))

	points, err := ParsePoints([]interface{}{[]interface{}{1.0, 2.0}})
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 2}}, points)
	_, err = ParsePoints([]interface{}{"x"})
	assert.Error(t, err)
	_, err = ParsePoints([]interface{}{[]interface{}{1.0, "2"}})
	assert.Error(t, err)
}

func polygonArea(points []Point) float64 {
	area := 0.0
	for i, p := range points {
		q := points[(i+1)%len(points)]
		area += p[0]*q[1] - q[0]*p[1]
	}
	return math.Abs(area) / 2
}

func TestOrdinal(t *testing.T) {
	color := NewOrdinal([]string{"#a", "#b"})
	assert.Equal(t, "#a", color.Color("x"))
	assert.Equal(t, "#b", color.Color("y"))
	assert.Equal(t, "#a", color.Color("x"))
	assert.Equal(t, "#a", color.Color("z"))
}

func TestSparkline(t *testing.T) {
	svg, err := Sparkline("line", []float64{0, 10}, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, "sparkline-line", dom.Attr(svg, "class"))
	polyline := dom.MustSelector("polyline").Find(svg)
	require.NotNil(t, polyline)
	assert.Equal(t, "0,19 99,0", dom.Attr(polyline, "points"))

	svg, err = Sparkline("bar", []float64{1, -2, 3}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "100", dom.Attr(svg, "width"))
	assert.Equal(t, "20", dom.Attr(svg, "height"))
	rects := dom.MustSelector("rect").FindAll(svg)
	require.Len(t, rects, 3)
	assert.Equal(t, "#f44", dom.Attr(rects[1], "fill"))

	svg, err = Sparkline("tristate", []float64{1, 0, -1}, 30, 20)
	require.NoError(t, err)
	fills := []string{}
	for _, rect := range dom.MustSelector("rect").FindAll(svg) {
		fills = append(fills, dom.Attr(rect, "fill"))
	}
	assert.Equal(t, []string{"#6f6", "#999", "#f44"}, fills)

	svg, err = Sparkline("discrete", []float64{1, 2, 3, 4}, 40, 20)
	require.NoError(t, err)
	assert.Len(t, dom.MustSelector("line").FindAll(svg), 4)

	svg, err = Sparkline("pie", []float64{5}, 20, 20)
	require.NoError(t, err)
	assert.NotNil(t, dom.MustSelector("circle").Find(svg))

	svg, err = Sparkline("pie", []float64{1, 1, 2}, 20, 20)
	require.NoError(t, err)
	assert.Len(t, dom.MustSelector("path").FindAll(svg), 3)

	svg, err = Sparkline("line", nil, 50, 10)
	require.NoError(t, err)
	assert.Nil(t, svg.FirstChild)

	_, err = Sparkline("box", []float64{1}, 50, 10)
	assert.Error(t, err)
}

func TestTimeline(t *testing.T) {
	doc, err := ParseTimeline([]byte(`{"events": [
		{"start_date": {"year": 2012, "month": 6, "day": 3}, "text": {"headline": "Later"}},
		{"start_date": {"year": 2012, "month": 1}, "group": "a", "text": {"headline": "Sooner", "text": "<i>x</i>"}}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "2012-06-03", doc.Events[0].StartDate.String())

	node, err := Timeline("widget-1", doc)
	require.NoError(t, err)
	assert.Equal(t, "widget-1", dom.Attr(node, "id"))
	slides := dom.MustSelector("div.tl-slide").FindAll(node)
	require.Len(t, slides, 2)
	assert.Equal(t, "2012-01", dom.Attr(slides[0], "data-start-date"))
	assert.Equal(t, "a", dom.Attr(slides[0], "data-group"))
	assert.Equal(t, "Sooner", dom.TextContent(dom.MustSelector("h3").Find(slides[0])))
	assert.NotNil(t, dom.MustSelector("i").Find(slides[0]))
	assert.Nil(t, dom.MustSelector("div.tl-title").Find(node))

	_, err = ParseTimeline([]byte(`{"title": {}}`))
	assert.Error(t, err)
	_, err = ParseTimeline([]byte(`{"events": [{"text": {"headline": "no date"}}]}`))
	assert.Error(t, err)
	_, err = ParseTimeline([]byte(`{"events": [{"start_date": {"year": "MMXII"}}]}`))
	assert.Error(t, err)
	_, err = ParseTimeline([]byte(`[]`))
	assert.Error(t, err)
}

func TestColumns(t *testing.T) {
	x, series, err := Columns([]byte(`{"x": [1, 2, 3], "b": [1, 2, 3], "a": [3, 2, 1]}`))
	require.NoError(t, err)
	assert.Len(t, x, 3)
	require.Len(t, series, 2)
	assert.Equal(t, "b", series[0].Name)
	assert.Equal(t, "a", series[1].Name)
	assert.Equal(t, []float64{3, 2, 1}, series[1].Values)

	for _, data := range []string{`[1, 2]`, `{"a": 1}`, `{"a": ["x"]}`, `{"x": [1]}`, `{`} {
		_, _, err := Columns([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestDraw(t *testing.T) {
	_, series, err := Columns([]byte(`{"data1": [30, 200, 100, 40], "data2": [50, 20, 10, 40]}`))
	require.NoError(t, err)

	for _, kind := range []string{"line", "spline", "step", "area", "scatter", "bar", "pie", "donut", "gauge"} {
		var buf bytes.Buffer
		err := Draw(&buf, kind, nil, series, ChartOptions{Width: 400, Height: 300, Legend: true})
		require.NoError(t, err, kind)
		assert.True(t, strings.HasPrefix(buf.String(), "<svg"), kind)
	}

	x, series, err := Columns([]byte(`{"x": ["2021-01-01", "2021-02-01", "2021-03-01"], "users": [3, 5, 4]}`))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Draw(&buf, "timeseries", x, series, ChartOptions{Width: 400, Height: 300}))
	assert.Contains(t, buf.String(), "<svg")

	buf.Reset()
	assert.Error(t, Draw(&buf, "line", nil, series, ChartOptions{}))
	assert.Error(t, Draw(&buf, "timeseries", nil, series, ChartOptions{Width: 400, Height: 300}))
}

func TestSteps(t *testing.T) {
	xs, ys := steps([]float64{0, 1, 2}, []float64{5, 6, 7})
	assert.Equal(t, []float64{0, 1, 1, 2, 2}, xs)
	assert.Equal(t, []float64{5, 5, 6, 6, 7}, ys)
}

func TestChartGenerate(t *testing.T) {
	data := map[string]string{
		"data:chart":  `{"data1": [1, 2, 3]}`,
		"data:broken": `{"data1": "x"}`,
	}
	fetcher := fetch.FetcherFunc(func(ctx context.Context, uri string) (*fetch.Payload, error) {
		if body, has := data[uri]; has {
			return &fetch.Payload{URI: uri, Status: 200, Body: []byte(body)}, nil
		}
		return nil, fmt.Errorf("status 404")
	})

	generate := func(c *dom.Container, url string) (bool, error) {
		done := make(chan error, 1)
		drawn := false
		NewChart(fetcher).Generate(context.Background(), c, ChartOptions{
			BindTo: "#sales", Width: 400, Height: 300, Kind: "line", URL: url, MimeType: "json",
			OnDraw:     func() { drawn = true },
			OnRendered: func() { done <- nil },
			OnError:    func(err error) { done <- err },
		})
		err := <-done
		return drawn, err
	}

	c := dom.NewContainer("board")
	drawn, err := generate(c, "data:chart")
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 1, c.Count("div#sales.c3"))
	assert.Equal(t, 1, c.Count("svg"))

	drawn, err = generate(c, "data:chart")
	require.NoError(t, err)
	assert.True(t, drawn)
	assert.Equal(t, 1, c.Count("svg"))

	drawn, err = generate(c, "data:missing")
	assert.False(t, drawn)
	assert.ErrorIs(t, err, widget.ErrDataLoad)

	_, err = generate(c, "data:broken")
	assert.ErrorIs(t, err, widget.ErrMalformedData)
}
