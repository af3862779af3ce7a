package handlers

import (
	"context"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/engine"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
)

// Timeline the TimelineJS adapter, bound to #widget-<guid>
type Timeline struct {
	fetcher fetch.Fetcher
}

// NewTimeline create the timeline adapter
func NewTimeline(fetcher fetch.Fetcher) *Timeline {
	return &Timeline{fetcher: fetcher}
}

// Family timeline
func (a *Timeline) Family() widget.Family { return widget.Timeline }

// Render remove the previous timeline element, then build a new one from the document
func (a *Timeline) Render(task *render.Task, cfg widget.Config) {
	id := cfg.ElementID()
	task.Clean(func(c *dom.Container) {
		c.RemoveByID(id)
	})

	task.Go(func(ctx context.Context) error {
		payload, err := load(ctx, task, a.fetcher, cfg.DataSource)
		if err != nil {
			return err
		}
		doc, err := engine.ParseTimeline(payload.Body)
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}
		node, err := engine.Timeline(id, doc)
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}
		return task.Draw(func(c *dom.Container) error {
			c.Append(node)
			return nil
		})
	})
}
