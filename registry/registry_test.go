package registry

import (
	"sync"
	"testing"

	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(family widget.Family) render.Adapter {
	return render.AdapterFunc(family, func(task *render.Task, cfg widget.Config) { task.Resolve() })
}

func full(t *testing.T) *Registry {
	r := New(nil)
	for _, family := range widget.Families {
		require.NoError(t, r.Register(noop(family)))
	}
	return r
}

func TestRegister(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(noop(widget.Frame)))
	err := r.Register(noop(widget.Frame))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	assert.ErrorIs(t, r.Register(nil), ErrInvalidAdapter)
	assert.ErrorIs(t, r.Register(noop(widget.Family("globe"))), ErrInvalidAdapter)

	replacement := noop(widget.Frame)
	require.NoError(t, r.Replace(replacement))
	adapter, has := r.Adapter(widget.Frame)
	assert.True(t, has)
	assert.Same(t, replacement, adapter)

	assert.True(t, r.Unregister(widget.Frame))
	assert.False(t, r.Unregister(widget.Frame))
	assert.False(t, r.Exists("iframe"))

	assert.Panics(t, func() { New(nil).MustRegister(noop(widget.HTML), noop(widget.HTML)) })
}

func TestResolveEveryType(t *testing.T) {
	r := full(t)
	for _, typ := range r.Catalog().Types() {
		adapter, err := r.Resolve(typ)
		require.NoError(t, err, typ)
		assert.NotNil(t, adapter, typ)
	}
	assert.Equal(t, r.Catalog().Types(), r.Types())
	assert.Equal(t, widget.Families, r.Families())
}

func TestResolveFamilies(t *testing.T) {
	r := full(t)
	tests := map[string]widget.Family{
		"line":          widget.Chart,
		"area-spline":   widget.Chart,
		"dendrogram":    widget.Hierarchy,
		"treemap":       widget.Hierarchy,
		"sparkline":     widget.Sparkline,
		"sparkline-bar": widget.Sparkline,
		"Sparkline-Pie": widget.Sparkline,
		"datatable":     widget.Table,
		"timeline":      widget.Timeline,
		"iframe":        widget.Frame,
		"custom":        widget.HTML,
	}
	for typ, family := range tests {
		adapter, err := r.Resolve(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, family, adapter.Family(), typ)
	}
}

func TestResolveUnknown(t *testing.T) {
	r := full(t)
	for _, typ := range []string{"", "sunburst", "sparkline-radar", "line-bar", "dendogram"} {
		_, err := r.Resolve(typ)
		assert.ErrorIs(t, err, widget.ErrUnknownWidgetType, typ)
		assert.False(t, r.Exists(typ))
	}

	_, err := r.Resolve("dendogram")
	var unknown *widget.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "dendrogram", unknown.Suggestion)

	// a catalog type without an adapter is unknown too
	partial := New(nil)
	require.NoError(t, partial.Register(noop(widget.Frame)))
	_, err = partial.Resolve("datatable")
	assert.ErrorIs(t, err, widget.ErrUnknownWidgetType)
	assert.Equal(t, []string{"iframe"}, partial.Types())
}

func TestValidate(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(noop(widget.Table)))

	cfg := widget.Config{Name: "rows", Type: "datatable", DataSource: "rows.json", Width: 400, Height: 300}
	assert.NoError(t, r.Validate(cfg))

	cfg.Type = "iframe"
	assert.ErrorIs(t, r.Validate(cfg), widget.ErrUnknownWidgetType)

	cfg.Type = "datatable"
	cfg.DataSource = ""
	assert.ErrorIs(t, r.Validate(cfg), widget.ErrInvalidConfig)
}

func TestConcurrent(t *testing.T) {
	r := full(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Replace(noop(widget.Chart))
		}()
		go func() {
			defer wg.Done()
			_, err := r.Resolve("line")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
