package handlers

import (
	"context"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
)

// Custom the raw markup adapter, the data source returns an html fragment
type Custom struct {
	fetcher fetch.Fetcher
}

// NewCustom create the custom markup adapter
func NewCustom(fetcher fetch.Fetcher) *Custom {
	return &Custom{fetcher: fetcher}
}

// Family html
func (a *Custom) Family() widget.Family { return widget.HTML }

// Render replace the custom container with the fetched markup
func (a *Custom) Render(task *render.Task, cfg widget.Config) {
	task.Clean(func(c *dom.Container) {
		c.RemoveAll(".custom-container")
	})

	task.Go(func(ctx context.Context) error {
		payload, err := load(ctx, task, a.fetcher, cfg.DataSource)
		if err != nil {
			return err
		}
		if !payload.IsText() {
			return widget.Malformed(cfg.DataSource, "binary payload %s", payload.MIME())
		}
		nodes, err := dom.Fragment(payload.Text())
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}
		holder := dom.Append(dom.Element("div", "class", "custom-container"), nodes...)
		return task.Draw(func(c *dom.Container) error {
			c.Append(holder)
			return nil
		})
	})
}
