package render

import "github.com/chartsbuilder/widgets/widget"

// Adapter renders one widget family. Render must clean up prior state, draw,
// then fulfill the task exactly once through Resolve or Reject
type Adapter interface {
	Family() widget.Family
	Render(task *Task, cfg widget.Config)
}

// Resolver find the adapter of a widget type
type Resolver interface {
	Resolve(typ string) (Adapter, error)
}

// AdapterFunc adapt a render function to an Adapter of the given family
func AdapterFunc(family widget.Family, fn func(task *Task, cfg widget.Config)) Adapter {
	return &funcAdapter{family: family, fn: fn}
}

type funcAdapter struct {
	family widget.Family
	fn     func(task *Task, cfg widget.Config)
}

func (a *funcAdapter) Family() widget.Family { return a.family }

func (a *funcAdapter) Render(task *Task, cfg widget.Config) { a.fn(task, cfg) }
