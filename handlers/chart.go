package handlers

import (
	"strings"

	"github.com/chartsbuilder/widgets/engine"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
)

// Chart the aggregate chart adapter. The engine owns the bind target
// content, fetches the data itself and reports back when drawn
type Chart struct {
	engine engine.ChartEngine
}

// NewChart create the chart adapter
func NewChart(e engine.ChartEngine) *Chart {
	return &Chart{engine: e}
}

// Family chart
func (a *Chart) Family() widget.Family { return widget.Chart }

// Render generate the chart into #<normalized name>
func (a *Chart) Render(task *render.Task, cfg widget.Config) {
	box := cfg.Inner()
	task.Enter(render.Cleaning)
	task.Enter(render.Fetching)
	a.engine.Generate(task.Context(), task.Container(), engine.ChartOptions{
		BindTo:     "#" + cfg.NormalizeName(),
		Width:      box.Width,
		Height:     box.Height,
		Kind:       strings.ToLower(strings.TrimSpace(cfg.Type)),
		URL:        cfg.DataSource,
		MimeType:   "json",
		Legend:     true,
		Options:    cfg.Options,
		OnDraw:     func() { task.Enter(render.Drawing) },
		OnRendered: task.Resolve,
		OnError:    task.Reject,
	})
}
