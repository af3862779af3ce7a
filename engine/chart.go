package engine

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/widget"
	goerrors "github.com/go-errors/errors"
	"github.com/tidwall/gjson"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/net/html"
)

// ChartKinds the aggregate chart kinds
var ChartKinds = []string{"line", "spline", "step", "area", "area-spline", "area-step", "bar", "scatter", "pie", "donut", "gauge", "timeseries"}

// ChartOptions the generate options of an aggregate chart
type ChartOptions struct {
	BindTo     string // "#id" of the element whose content the chart owns
	Width      int
	Height     int
	Kind       string
	URL        string
	MimeType   string // json
	Legend     bool
	Options    map[string]interface{}
	OnDraw     func()
	OnRendered func()
	OnError    func(error)
}

// ChartEngine an aggregate chart engine. Generate returns at once;
// exactly one of OnRendered or OnError fires when the chart is done
type ChartEngine interface {
	Generate(ctx context.Context, c *dom.Container, opts ChartOptions)
}

// Chart the svg chart engine
type Chart struct {
	fetcher fetch.Fetcher
}

// NewChart create a chart engine loading data through the fetcher
func NewChart(fetcher fetch.Fetcher) *Chart {
	return &Chart{fetcher: fetcher}
}

// Series a named data column
type Series struct {
	Name   string
	Values []float64
}

// Generate fetch the data source and draw the chart into the bind target
func (engine *Chart) Generate(ctx context.Context, c *dom.Container, opts ChartOptions) {
	go func() {
		err := engine.generate(ctx, c, opts)
		if err != nil {
			if opts.OnError != nil {
				opts.OnError(err)
			}
			return
		}
		if opts.OnRendered != nil {
			opts.OnRendered()
		}
	}()
}

func (engine *Chart) generate(ctx context.Context, c *dom.Container, opts ChartOptions) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = goerrors.Wrap(recovered, 2)
		}
	}()

	if opts.MimeType != "" && opts.MimeType != "json" {
		return fmt.Errorf("chart mime type %s does not support", opts.MimeType)
	}

	payload, err := engine.fetcher.Fetch(ctx, opts.URL)
	if err != nil {
		return widget.LoadError(opts.URL, err)
	}

	x, series, err := Columns(payload.Body)
	if err != nil {
		return widget.Malformed(opts.URL, "%s", err.Error())
	}

	var buf bytes.Buffer
	if err := Draw(&buf, opts.Kind, x, series, opts); err != nil {
		return widget.Malformed(opts.URL, "%s", err.Error())
	}

	nodes, err := dom.Fragment(buf.String())
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.OnDraw != nil {
		opts.OnDraw()
	}

	id := strings.TrimPrefix(opts.BindTo, "#")
	c.Mutate(func(root *html.Node) {
		target := root
		if dom.Attr(root, "id") != id {
			target = dom.FindByID(root, id)
		}
		if target == nil {
			target = dom.Element("div", "id", id)
			dom.Append(root, target)
		}
		dom.AddClass(target, "c3")
		for child := target.FirstChild; child != nil; child = target.FirstChild {
			target.RemoveChild(child)
		}
		dom.Append(target, nodes...)
	})
	return nil
}

// Columns decode the column object {"x": [...], "series": [numbers...]} keeping the key order.
// The "x" column, when present, holds the x values
func Columns(data []byte) ([]gjson.Result, []Series, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("invalid json")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("chart data is not a column object")
	}

	var x []gjson.Result
	series := []Series{}
	var failed error
	doc.ForEach(func(key, column gjson.Result) bool {
		if !column.IsArray() {
			failed = fmt.Errorf("column %s is not an array", key.String())
			return false
		}
		if key.String() == "x" {
			x = column.Array()
			return true
		}
		values := []float64{}
		for i, cell := range column.Array() {
			if cell.Type != gjson.Number {
				failed = fmt.Errorf("column %s #%d is not a number", key.String(), i)
				return false
			}
			values = append(values, cell.Float())
		}
		series = append(series, Series{Name: key.String(), Values: values})
		return true
	})
	if failed != nil {
		return nil, nil, failed
	}
	if len(series) == 0 {
		return nil, nil, fmt.Errorf("chart data has no series")
	}
	return x, series, nil
}

// Draw render the chart as svg
func Draw(w *bytes.Buffer, kind string, x []gjson.Result, series []Series, opts ChartOptions) error {
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		return fmt.Errorf("chart canvas is empty (%dx%d)", width, height)
	}

	switch kind {
	case "pie", "donut":
		return drawPie(w, series, opts)
	case "gauge":
		return drawGauge(w, series, opts)
	case "bar":
		return drawBar(w, series, opts)
	}

	graph := chart.Chart{Width: width, Height: height}
	lo, hi := math.Inf(1), math.Inf(-1)
	points := 0
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		style := chart.Style{StrokeColor: chart.GetDefaultColor(i), StrokeWidth: 2}
		if strings.HasPrefix(kind, "area") {
			style.FillColor = chart.GetDefaultColor(i).WithAlpha(64)
		}
		if kind == "scatter" {
			style.StrokeWidth = chart.Disabled
			style.DotWidth = 3
			style.DotColor = chart.GetDefaultColor(i)
		}

		xs, ys := xValues(x, len(s.Values)), s.Values
		if kind == "step" || kind == "area-step" {
			xs, ys = steps(xs, ys)
		}
		for _, v := range ys {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		points = max(points, len(s.Values))

		if kind == "timeseries" {
			times, err := timeValues(x, len(s.Values))
			if err != nil {
				return err
			}
			graph.Series = append(graph.Series, chart.TimeSeries{Name: s.Name, Style: style, XValues: times, YValues: ys})
			continue
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{Name: s.Name, Style: style, XValues: xs, YValues: ys})
	}
	if len(graph.Series) == 0 {
		return fmt.Errorf("chart data has no values")
	}

	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	graph.YAxis.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	if kind != "timeseries" {
		x0, x1 := xBounds(x, points)
		graph.XAxis.Range = &chart.ContinuousRange{Min: x0, Max: x1}
	} else {
		graph.XAxis.ValueFormatter = chart.TimeDateValueFormatter
	}

	if opts.Legend {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph.Render(chart.SVG, w)
}

func drawPie(w *bytes.Buffer, series []Series, opts ChartOptions) error {
	values := []chart.Value{}
	for _, s := range series {
		total := 0.0
		for _, v := range s.Values {
			total += v
		}
		if total > 0 {
			values = append(values, chart.Value{Label: s.Name, Value: total})
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("pie data has no positive value")
	}
	pie := chart.PieChart{Width: opts.Width, Height: opts.Height, Values: values}
	return pie.Render(chart.SVG, w)
}

func drawGauge(w *bytes.Buffer, series []Series, opts ChartOptions) error {
	if len(series[0].Values) == 0 {
		return fmt.Errorf("gauge data has no value")
	}
	value := series[0].Values[len(series[0].Values)-1]
	limit := 100.0
	if v, ok := opts.Options["max"].(float64); ok && v > 0 {
		limit = v
	}
	value = math.Max(0, math.Min(value, limit))

	values := []chart.Value{{Label: fmt.Sprintf("%s %s", series[0].Name, num(value)), Value: value, Style: chart.Style{FillColor: chart.GetDefaultColor(0)}}}
	if rest := limit - value; rest > 0 {
		values = append(values, chart.Value{Label: " ", Value: rest, Style: chart.Style{FillColor: drawing.ColorFromHex("e0e0e0")}})
	}
	if value == 0 {
		values = values[1:]
	}
	pie := chart.PieChart{Width: opts.Width, Height: opts.Height, Values: values}
	return pie.Render(chart.SVG, w)
}

func drawBar(w *bytes.Buffer, series []Series, opts ChartOptions) error {
	bars := []chart.Value{}
	lo, hi := 0.0, 0.0
	for i, s := range series {
		for j, v := range s.Values {
			label := s.Name
			if len(s.Values) > 1 {
				label = fmt.Sprintf("%s %d", s.Name, j+1)
			}
			bars = append(bars, chart.Value{Label: label, Value: v, Style: chart.Style{FillColor: chart.GetDefaultColor(i), StrokeColor: chart.GetDefaultColor(i)}})
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if len(bars) == 0 {
		return fmt.Errorf("bar data has no values")
	}
	if lo == hi {
		hi = lo + 1
	}

	barWidth := max(1, opts.Width/(len(bars)*2))
	graph := chart.BarChart{
		Width:    opts.Width,
		Height:   opts.Height,
		BarWidth: barWidth,
		Bars:     bars,
		YAxis:    chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
	}
	return graph.Render(chart.SVG, w)
}

func xValues(x []gjson.Result, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		if i < len(x) && x[i].Type == gjson.Number {
			xs[i] = x[i].Float()
		}
	}
	return xs
}

func xBounds(x []gjson.Result, n int) (float64, float64) {
	xs := xValues(x, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi || len(xs) == 0 {
		return lo - 1, lo + 1
	}
	return lo, hi
}

func timeValues(x []gjson.Result, n int) ([]time.Time, error) {
	if len(x) < n {
		return nil, fmt.Errorf("timeseries needs an x column of %d dates", n)
	}
	times := make([]time.Time, n)
	for i := range times {
		if x[i].Type == gjson.Number {
			times[i] = time.UnixMilli(x[i].Int()).UTC()
			continue
		}
		t, err := parseDate(x[i].String())
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return times, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// steps turn a series into horizontal segments, each value held until the next x
func steps(xs, ys []float64) ([]float64, []float64) {
	if len(xs) < 2 {
		return xs, ys
	}
	sx, sy := []float64{}, []float64{}
	for i := range xs {
		if i > 0 {
			sx = append(sx, xs[i])
			sy = append(sy, ys[i-1])
		}
		sx = append(sx, xs[i])
		sy = append(sy, ys[i])
	}
	return sx, sy
}
