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

// Sparkline the word-sized chart adapter, the kind is the type suffix
type Sparkline struct {
	fetcher fetch.Fetcher
}

// NewSparkline create the sparkline adapter
func NewSparkline(fetcher fetch.Fetcher) *Sparkline {
	return &Sparkline{fetcher: fetcher}
}

// Family sparkline
func (a *Sparkline) Family() widget.Family { return widget.Sparkline }

// Render draw into the first div of the container, replacing the previous sparkline only
func (a *Sparkline) Render(task *render.Task, cfg widget.Config) {
	kind := "line"
	if _, suffix, found := strings.Cut(strings.ToLower(strings.TrimSpace(cfg.Type)), widget.Delimiter); found && suffix != "" {
		kind = suffix
	}

	task.Clean(func(c *dom.Container) {
		c.Mutate(func(root *html.Node) {
			holder := dom.MustSelector("div").Find(root)
			if holder == nil {
				holder = dom.Element("div")
				dom.Append(root, holder)
			}
			dom.AddClass(holder, "sparkline-container")
			for _, span := range dom.MustSelector("span.sparkline").FindAll(holder) {
				span.Parent.RemoveChild(span)
			}
		})
	})

	task.Go(func(ctx context.Context) error {
		payload, err := load(ctx, task, a.fetcher, cfg.DataSource)
		if err != nil {
			return err
		}

		var values []float64
		if err := jsoniter.Unmarshal(payload.Body, &values); err != nil {
			return widget.Malformed(cfg.DataSource, "sparkline data is not an array of numbers")
		}

		box := cfg.Inner()
		svg, err := engine.Sparkline(kind, values, box.Width, box.Height)
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}

		return task.Draw(func(c *dom.Container) error {
			span := dom.Append(dom.Element("span", "class", "sparkline sparkline-"+kind), svg)
			if !c.AppendInto(".sparkline-container", span) {
				return fmt.Errorf("container %s lost its sparkline holder", c.ID())
			}
			return nil
		})
	})
}
