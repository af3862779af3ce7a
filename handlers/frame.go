package handlers

import (
	"context"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
)

// Frame the embedded page adapter. The data source is the frame url, nothing is fetched
type Frame struct{}

// NewFrame create the frame adapter
func NewFrame() *Frame { return &Frame{} }

// Family frame
func (a *Frame) Family() widget.Family { return widget.Frame }

// Render replace the iframe synchronously, completion is signaled before Render returns
func (a *Frame) Render(task *render.Task, cfg widget.Config) {
	task.Run(func(ctx context.Context) error {
		task.Clean(func(c *dom.Container) {
			c.RemoveAll("iframe")
		})
		return task.Draw(func(c *dom.Container) error {
			c.Append(dom.Element("iframe",
				"frameborder", "0",
				"src", cfg.DataSource,
				"height", "100%",
				"width", "100%",
			))
			return nil
		})
	})
}
