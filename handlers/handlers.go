package handlers

import (
	"context"
	"strconv"

	"github.com/chartsbuilder/widgets/engine"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
)

// Env the collaborators the adapters share
type Env struct {
	Fetcher fetch.Fetcher
	Chart   engine.ChartEngine // nil uses the svg engine over Fetcher
}

// All the adapters of every family
func All(env Env) []render.Adapter {
	if env.Fetcher == nil {
		env.Fetcher = fetch.New()
	}
	if env.Chart == nil {
		env.Chart = engine.NewChart(env.Fetcher)
	}
	return []render.Adapter{
		NewChart(env.Chart),
		NewHierarchy(env.Fetcher),
		NewSparkline(env.Fetcher),
		NewTable(env.Fetcher),
		NewTimeline(env.Fetcher),
		NewFrame(),
		NewCustom(env.Fetcher),
	}
}

// load fetch the data source of a widget, every failure is a DataLoadError
func load(ctx context.Context, task *render.Task, fetcher fetch.Fetcher, uri string) (*fetch.Payload, error) {
	task.Enter(render.Fetching)
	payload, err := fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, widget.LoadError(uri, err)
	}
	return payload, nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
