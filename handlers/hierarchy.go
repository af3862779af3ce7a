package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/engine"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
)

// dendrogram room kept on the right for the leaf labels
const dendrogramPadding = 100

// TreemapTransition the duration of a treemap re-layout
const TreemapTransition = "1500ms"

// hierarchyClass marks the svgs drawn by the hierarchy adapter
const hierarchyClass = "hierarchy"

// treemapDatum the key the treemap layout is bound to on the container
const treemapDatum = "treemap"

// Hierarchy the hierarchical diagram adapter: dendrogram, treemap, voronoi
type Hierarchy struct {
	fetcher fetch.Fetcher
}

// NewHierarchy create the hierarchy adapter
func NewHierarchy(fetcher fetch.Fetcher) *Hierarchy {
	return &Hierarchy{fetcher: fetcher}
}

// Family hierarchy
func (a *Hierarchy) Family() widget.Family { return widget.Hierarchy }

// Render remove the svgs and treemaps this adapter drew, then draw the sub type.
// Svgs of other families, e.g. a sparkline or a chart, are left alone
func (a *Hierarchy) Render(task *render.Task, cfg widget.Config) {
	task.Clean(func(c *dom.Container) {
		c.RemoveAll("svg." + hierarchyClass)
		c.RemoveAll(".treemap")
	})

	var draw func(payload *fetch.Payload, box widget.Box) (*html.Node, interface{}, error)
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "dendrogram":
		draw = drawDendrogram
	case "treemap":
		draw = func(payload *fetch.Payload, box widget.Box) (*html.Node, interface{}, error) {
			return drawTreemap(payload, box, cfg.Option("value", "size"))
		}
	case "voronoi":
		draw = drawVoronoi
	default:
		task.Reject(&widget.UnknownTypeError{Type: cfg.Type})
		return
	}

	task.Go(func(ctx context.Context) error {
		payload, err := load(ctx, task, a.fetcher, cfg.DataSource)
		if err != nil {
			return err
		}
		node, datum, err := draw(payload, cfg.Inner())
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}
		return task.Draw(func(c *dom.Container) error {
			if datum != nil {
				c.SetDatum(treemapDatum, datum)
			}
			c.Append(node)
			return nil
		})
	})
}

func drawDendrogram(payload *fetch.Payload, box widget.Box) (*html.Node, interface{}, error) {
	root, err := engine.ParseTree(payload.Body)
	if err != nil {
		return nil, nil, err
	}

	svg := dom.Element("svg", "class", hierarchyClass+" dendrogram", "width", fmt.Sprint(box.Width), "height", fmt.Sprint(box.Height))
	g := dom.Element("g", "transform", "translate(40,0)")
	dom.Append(svg, g)

	nodes := engine.Cluster(root, [2]float64{float64(box.Height), float64(max(0, box.Width-dendrogramPadding))})
	for _, link := range engine.Links(nodes) {
		dom.Append(g, dom.Element("path", "class", "link", "d", engine.Diagonal(link)))
	}
	for _, n := range nodes {
		dx, anchor := "8", "start"
		if !n.IsLeaf() {
			dx, anchor = "-8", "end"
		}
		dom.Append(g, dom.Append(
			dom.Element("g", "class", "node", "transform", fmt.Sprintf("translate(%s,%s)", num(n.Y), num(n.X))),
			dom.Element("circle", "r", "4.5"),
			dom.Append(dom.Element("text", "dx", dx, "dy", "3", "style", "text-anchor: "+anchor), dom.Text(n.Name)),
		))
	}
	return svg, nil, nil
}

// treemapLayout the state a re-layout replays on
type treemapLayout struct {
	root  *engine.Node
	nodes []*engine.Node // in the order of the div.node elements
	box   widget.Box
}

func drawTreemap(payload *fetch.Payload, box widget.Box, mode string) (*html.Node, interface{}, error) {
	root, err := engine.ParseTree(payload.Body)
	if err != nil {
		return nil, nil, err
	}
	value, err := valueFunc(mode)
	if err != nil {
		return nil, nil, err
	}

	div := dom.Element("div", "class", "treemap chart-centered")
	dom.SetStyle(div,
		"position", "relative",
		"width", fmt.Sprintf("%dpx", box.Width),
		"height", fmt.Sprintf("%dpx", box.Height),
	)

	color := engine.NewOrdinal(engine.Category20c)
	nodes := engine.Treemap(root, float64(box.Width), float64(box.Height), value)
	for _, n := range nodes {
		cell := dom.Element("div", "class", "node")
		dom.SetStyle(cell, "position", "absolute", "overflow", "hidden")
		position(cell, n)
		if !n.IsLeaf() {
			dom.SetStyle(cell, "background", color.Color(n.Name))
		} else {
			dom.Append(cell, dom.Text(n.Name))
		}
		dom.Append(div, cell)
	}
	return div, &treemapLayout{root: root, nodes: nodes, box: box}, nil
}

// Relayout replay the treemap positioning of the container with leaves weighing
// their size ("size") or 1 ("count"), animated with a css transition.
// It does not signal completion
func Relayout(c *dom.Container, mode string) error {
	value, err := valueFunc(mode)
	if err != nil {
		return err
	}
	datum, has := c.Datum(treemapDatum)
	layout, ok := datum.(*treemapLayout)
	if !has || !ok {
		return fmt.Errorf("container %s has no treemap", c.ID())
	}

	engine.Treemap(layout.root, float64(layout.box.Width), float64(layout.box.Height), value)

	var failed error
	c.Mutate(func(root *html.Node) {
		treemap := dom.MustSelector("div.treemap").Find(root)
		if treemap == nil {
			failed = fmt.Errorf("container %s has no treemap", c.ID())
			return
		}
		cells := dom.MustSelector("div.node").FindAll(treemap)
		for i, cell := range cells {
			if i >= len(layout.nodes) {
				break
			}
			dom.SetStyle(cell, "transition", "all "+TreemapTransition)
			position(cell, layout.nodes[i])
		}
	})
	return failed
}

func position(cell *html.Node, n *engine.Node) {
	dom.SetStyle(cell,
		"left", num(n.X)+"px",
		"top", num(n.Y)+"px",
		"width", num(max(0, n.DX-1))+"px",
		"height", num(max(0, n.DY-1))+"px",
	)
}

func valueFunc(mode string) (engine.ValueFunc, error) {
	switch mode {
	case "", "size":
		return engine.BySize, nil
	case "count":
		return engine.ByCount, nil
	}
	return nil, fmt.Errorf("treemap value %q does not support", mode)
}

func drawVoronoi(payload *fetch.Payload, box widget.Box) (*html.Node, interface{}, error) {
	var values []interface{}
	if err := jsoniter.Unmarshal(payload.Body, &values); err != nil {
		return nil, nil, fmt.Errorf("voronoi data is not an array of [x, y] points")
	}
	points, err := engine.ParsePoints(values)
	if err != nil {
		return nil, nil, err
	}

	svg := dom.Element("svg", "class", hierarchyClass+" voronoi", "width", fmt.Sprint(box.Width), "height", fmt.Sprint(box.Height))
	g := dom.Element("g")
	dom.Append(svg, g)
	for i, cell := range engine.Voronoi(points, float64(box.Width), float64(box.Height)) {
		if len(cell) == 0 {
			continue
		}
		dom.Append(g, dom.Element("path", "class", fmt.Sprintf("q%d-9", i%9), "d", engine.Polygon(cell)))
	}
	for i, p := range points {
		if i == 0 {
			continue
		}
		dom.Append(svg, dom.Element("circle", "transform", fmt.Sprintf("translate(%s,%s)", num(p[0]), num(p[1])), "r", "1.5"))
	}
	return svg, nil, nil
}
