package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/registry"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var testPNG = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 0x49, 0x48, 0x44, 0x52}

var testData = map[string]string{
	"chart.json":  `{"data1": [30, 200, 100, 400], "data2": [50, 20, 10, 40]}`,
	"tree.json":   `{"name": "flare", "children": [{"name": "analytics", "children": [{"name": "cluster", "size": 3938}, {"name": "graph", "size": 3812}]}, {"name": "flex", "size": 4116}]}`,
	"points.json": `[[10, 10], [120, 40], [60, 150], [200, 220]]`,
	"spark.json":  `[1, 3, 2, -1, 0, 4]`,
	"rows.json":   `[{"name": "Tiger Nixon", "office": "Edinburgh", "age": 61}, {"name": "Garrett Winters", "age": 63}]`,
	"empty.json":  `[]`,
	"object.json": `{"name": "Tiger Nixon"}`,
	"timeline.json": `{
		"title": {"text": {"headline": "History", "text": "<p>intro</p>"}},
		"events": [
			{"start_date": {"year": 2012, "month": 6}, "text": {"headline": "Second"}},
			{"start_date": {"year": 1999}, "end_date": {"year": 2001}, "text": {"headline": "First", "text": "<b>bold</b>"}}
		]
	}`,
	"notimeline.json": `{"title": {"text": {"headline": "History"}}}`,
	"custom.html":     `<p class="hello">Hello <b>world</b></p>`,
}

func testServer() *httptest.Server {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard
	router := gin.New()
	router.GET("/data/:name", func(c *gin.Context) {
		name := c.Param("name")
		if name == "image.png" {
			c.Data(200, "image/png", testPNG)
			return
		}
		body, has := testData[name]
		if !has {
			c.String(404, "not found")
			return
		}
		contentType := "application/json"
		if strings.HasSuffix(name, ".html") {
			contentType = "text/html"
		}
		c.Data(200, contentType, []byte(body))
	})
	return httptest.NewServer(router)
}

type recorder struct {
	mu        sync.Mutex
	completed []uint64
	failed    []error
}

func (r *recorder) complete(c *dom.Container) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, c.Version())
}

func (r *recorder) fail(c *dom.Container, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed)
}

func (r *recorder) last() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed[len(r.completed)-1]
}

func testDispatcher(t *testing.T, base string) (*render.Dispatcher, *recorder) {
	rec := &recorder{}
	reg := registry.New(nil).MustRegister(All(Env{Fetcher: fetch.New(fetch.WithBase(base))})...)
	return render.New(reg, render.WithCompletion(rec.complete), render.WithFailure(rec.fail)), rec
}

func renderWait(t *testing.T, d *render.Dispatcher, c *dom.Container, cfg widget.Config) *render.Task {
	task, err := d.Render(context.Background(), c, cfg)
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))
	return task
}

func TestAllFamilies(t *testing.T) {
	adapters := All(Env{})
	families := []widget.Family{}
	for _, adapter := range adapters {
		families = append(families, adapter.Family())
	}
	assert.Equal(t, widget.Families, families)
}

func TestRenderIdempotent(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")

	cases := []struct {
		cfg   widget.Config
		check string
	}{
		{widget.Config{Name: "Sales", Type: "line", Width: 420, Height: 360, DataSource: "chart.json"}, "svg"},
		{widget.Config{Name: "Share", Type: "pie", Width: 420, Height: 360, DataSource: "chart.json"}, "svg"},
		{widget.Config{Name: "Flare", Type: "dendrogram", Width: 620, Height: 560, DataSource: "tree.json"}, "path.link"},
		{widget.Config{Name: "Flare map", Type: "treemap", Width: 620, Height: 560, DataSource: "tree.json"}, "div.node"},
		{widget.Config{Name: "Cells", Type: "voronoi", Width: 320, Height: 300, DataSource: "points.json"}, "path"},
		{widget.Config{Name: "Trend", Type: "sparkline-bar", Width: 120, Height: 80, DataSource: "spark.json"}, "rect"},
		{widget.Config{Name: "Staff", Type: "datatable", DataSource: "rows.json"}, "td"},
		{widget.Config{Name: "History", GUID: "42", Type: "timeline", DataSource: "timeline.json"}, "div.tl-slide"},
		{widget.Config{Name: "Embed", Type: "iframe", DataSource: "https://example.test/page"}, "iframe"},
		{widget.Config{Name: "Note", Type: "custom", DataSource: "custom.html"}, "p.hello"},
	}

	for _, tc := range cases {
		t.Run(tc.cfg.Type, func(t *testing.T) {
			c := dom.NewContainer(tc.cfg.NormalizeName())
			task := renderWait(t, d, c, tc.cfg)
			assert.Equal(t, render.Signaled, task.State())
			assert.Equal(t, c.Version(), task.CompletedVersion())
			assert.Equal(t, c.Version(), rec.last())
			assert.Greater(t, c.Count(tc.check), 0, c.Inner())

			once := c.HTML()
			renderWait(t, d, c, tc.cfg)
			assert.Equal(t, once, c.HTML())
		})
	}

	completed, failed := rec.counts()
	assert.Equal(t, len(cases)*2, completed)
	assert.Equal(t, 0, failed)
}

func TestRenderLoadError(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")

	types := []string{"line", "dendrogram", "treemap", "voronoi", "sparkline", "datatable", "timeline", "custom"}
	for _, typ := range types {
		c := dom.NewContainer("w")
		task, err := d.Render(context.Background(), c, widget.Config{Name: "w", Type: typ, Width: 400, Height: 300, DataSource: "missing.json"})
		require.NoError(t, err)
		err = task.Wait(context.Background())
		assert.ErrorIs(t, err, widget.ErrDataLoad, typ)
		var loadErr *widget.DataLoadError
		require.True(t, errors.As(err, &loadErr), typ)
		assert.Equal(t, "missing.json", loadErr.URI, typ)
		assert.Contains(t, err.Error(), "Could not load url: missing.json", typ)
		assert.Equal(t, render.Failed, task.State())
	}

	c := dom.NewContainer("w")
	task, err := d.Render(context.Background(), c, widget.Config{Name: "w", Type: "datatable", DataSource: "http://127.0.0.1:1/rows.json"})
	require.NoError(t, err)
	assert.ErrorIs(t, task.Wait(context.Background()), widget.ErrDataLoad)

	completed, failed := rec.counts()
	assert.Equal(t, 0, completed)
	assert.Equal(t, len(types)+1, failed)
}

func TestDendrogramUnreachable(t *testing.T) {
	d, rec := testDispatcher(t, "")
	cfg := widget.Config{Name: "Flare", Type: "dendrogram", Width: 620, Height: 560, DataSource: "http://127.0.0.1:1/flare.json"}

	c := dom.NewContainer("flare")
	task, err := d.Render(context.Background(), c, cfg)
	require.NoError(t, err)
	err = task.Wait(context.Background())

	var loadErr *widget.DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, cfg.DataSource, loadErr.URI)
	assert.Equal(t, render.Failed, task.State())
	assert.Equal(t, uint64(0), task.CompletedVersion())
	assert.Equal(t, 0, c.Count("svg"))

	completed, failed := rec.counts()
	assert.Equal(t, 0, completed)
	assert.Equal(t, 1, failed)
}

// each family cleans what it drew, the content of other families stays
func TestTypeChange(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")
	c := dom.NewContainer("cell")

	spark := widget.Config{Name: "Cell", Type: "sparkline", Width: 120, Height: 80, DataSource: "spark.json"}
	renderWait(t, d, c, spark)
	assert.Equal(t, 1, c.Count("span.sparkline svg"))

	tree := widget.Config{Name: "Cell", Type: "dendrogram", Width: 620, Height: 560, DataSource: "tree.json"}
	renderWait(t, d, c, tree)
	renderWait(t, d, c, tree)
	assert.Equal(t, 1, c.Count("svg.dendrogram"))
	assert.Equal(t, 1, c.Count("span.sparkline svg"))

	renderWait(t, d, c, widget.Config{Name: "Cell", Type: "datatable", DataSource: "rows.json"})
	assert.Equal(t, 1, c.Count("table"))
	assert.Equal(t, 0, c.Count("div.sparkline-container"))
	assert.Equal(t, 1, c.Count("svg.dendrogram"))

	note := widget.Config{Name: "Cell", Type: "custom", DataSource: "custom.html"}
	renderWait(t, d, c, note)
	renderWait(t, d, c, note)
	assert.Equal(t, 1, c.Count("div.custom-container"))
	assert.Equal(t, 1, c.Count("p.hello"))
	assert.Equal(t, 1, c.Count("table"))

	renderWait(t, d, c, tree)
	assert.Equal(t, 1, c.Count("svg.dendrogram"))
	assert.Equal(t, 1, c.Count("table"))

	completed, failed := rec.counts()
	assert.Equal(t, 7, completed)
	assert.Equal(t, 0, failed)
}

func TestRenderMalformed(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")

	cases := []widget.Config{
		{Name: "w", Type: "line", Width: 400, Height: 300, DataSource: "rows.json"},
		{Name: "w", Type: "dendrogram", Width: 400, Height: 300, DataSource: "spark.json"},
		{Name: "w", Type: "voronoi", Width: 400, Height: 300, DataSource: "tree.json"},
		{Name: "w", Type: "sparkline-pie", DataSource: "rows.json"},
		{Name: "w", Type: "datatable", DataSource: "object.json"},
		{Name: "w", Type: "datatable", DataSource: "spark.json"},
		{Name: "w", GUID: "1", Type: "timeline", DataSource: "notimeline.json"},
		{Name: "w", Type: "custom", DataSource: "image.png"},
	}
	for _, cfg := range cases {
		c := dom.NewContainer("w")
		task, err := d.Render(context.Background(), c, cfg)
		require.NoError(t, err)
		assert.ErrorIs(t, task.Wait(context.Background()), widget.ErrMalformedData, cfg.String())
	}

	completed, failed := rec.counts()
	assert.Equal(t, 0, completed)
	assert.Equal(t, len(cases), failed)
}

func TestFrameSync(t *testing.T) {
	d, rec := testDispatcher(t, "")
	c := dom.NewContainer("embed")

	task, err := d.Render(context.Background(), c, widget.Config{Name: "Embed", Type: "iframe", DataSource: "https://example.test/page"})
	require.NoError(t, err)

	completed, _ := rec.counts()
	assert.Equal(t, 1, completed)
	assert.Equal(t, []render.State{render.Idle, render.Cleaning, render.Drawing, render.Signaled}, task.Transitions())
	assert.Equal(t, []string{"https://example.test/page"}, c.Attrs("iframe", "src"))
	assert.Equal(t, []string{"0"}, c.Attrs("iframe", "frameborder"))
	assert.Equal(t, []string{"100%"}, c.Attrs("iframe", "width"))
}

func TestTable(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("staff")
	c.Append(dom.Element("div", "class", "stale"), dom.Element("table"))
	renderWait(t, d, c, widget.Config{Name: "Staff", Type: "datatable", DataSource: "rows.json"})

	assert.Equal(t, 0, c.Count(".stale"))
	assert.Equal(t, 1, c.Count("table"))
	assert.Equal(t, []string{"table table-striped table-bordered"}, c.Attrs("table", "class"))

	headers := []string{}
	cells := []string{}
	c.Query("th", func(nodes []*html.Node) {
		for _, n := range nodes {
			headers = append(headers, dom.TextContent(n))
		}
	})
	c.Query("td", func(nodes []*html.Node) {
		for _, n := range nodes {
			cells = append(cells, dom.TextContent(n))
		}
	})
	assert.Equal(t, []string{"name", "office", "age"}, headers)
	assert.Equal(t, []string{"Tiger Nixon", "Edinburgh", "61", "Garrett Winters", "", "63"}, cells)

	renderWait(t, d, c, widget.Config{Name: "Staff", Type: "datatable", DataSource: "empty.json"})
	assert.Equal(t, 1, c.Count("table"))
	assert.Equal(t, 0, c.Count("th"))
	assert.Equal(t, 0, c.Count("td"))
}

func TestDendrogramSize(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("flare")
	renderWait(t, d, c, widget.Config{Name: "Flare", Type: "dendrogram", Width: 620, Height: 560, DataSource: "tree.json"})
	assert.Equal(t, []string{"600"}, c.Attrs("svg", "width"))
	assert.Equal(t, []string{"500"}, c.Attrs("svg", "height"))
	assert.Equal(t, 5, c.Count("g.node"))
	assert.Equal(t, 4, c.Count("path.link"))
}

func TestTreemapRelayout(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("flare-map")
	renderWait(t, d, c, widget.Config{Name: "Flare map", Type: "treemap", Width: 620, Height: 560, DataSource: "tree.json"})
	before := c.Attrs("div.node", "style")
	assert.Len(t, before, 5)

	require.NoError(t, Relayout(c, "count"))
	after := c.Attrs("div.node", "style")
	assert.Len(t, after, 5)
	assert.NotEqual(t, before, after)
	for _, style := range after {
		assert.Contains(t, style, "transition: all "+TreemapTransition)
	}

	completed, _ := rec.counts()
	assert.Equal(t, 1, completed)

	assert.Error(t, Relayout(c, "weight"))
	assert.Error(t, Relayout(dom.NewContainer("empty"), "size"))
}

func TestSparklineHolder(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("trend")
	c.Append(dom.Append(dom.Element("div"), dom.Element("em")))
	renderWait(t, d, c, widget.Config{Name: "Trend", Type: "sparkline", Width: 120, Height: 80, DataSource: "spark.json"})
	renderWait(t, d, c, widget.Config{Name: "Trend", Type: "sparkline", Width: 120, Height: 80, DataSource: "spark.json"})

	assert.Equal(t, 1, c.Count("div.sparkline-container"))
	assert.Equal(t, 1, c.Count("em"))
	assert.Equal(t, 1, c.Count("span.sparkline"))
	assert.Equal(t, 1, c.Count("svg.sparkline-line"))
	assert.Equal(t, 1, c.Count("polyline"))
	assert.Equal(t, []string{"100"}, c.Attrs("svg", "width"))
	assert.Equal(t, []string{"20"}, c.Attrs("svg", "height"))
}

func TestTimelineOrder(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("history")
	renderWait(t, d, c, widget.Config{Name: "History", GUID: "7", Type: "timeline", DataSource: "timeline.json"})
	assert.Equal(t, []string{"1999", "2012-06"}, c.Attrs("div.tl-slide", "data-start-date"))
	assert.Equal(t, []string{"2001", ""}, c.Attrs("div.tl-slide", "data-end-date"))
	assert.Equal(t, 1, c.Count("div#widget-7.tl-timeline"))
	assert.Equal(t, 1, c.Count("h2.tl-headline"))
	assert.Equal(t, 2, c.Count("h3.tl-headline"))
}

func TestTimelineGUID(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, rec := testDispatcher(t, server.URL+"/data/")

	for _, guid := range []string{"v1.2", "team a", "a,b", "x#y > z"} {
		c := dom.NewContainer("history")
		cfg := widget.Config{Name: "History", GUID: guid, Type: "timeline", DataSource: "timeline.json"}
		renderWait(t, d, c, cfg)
		once := c.HTML()
		renderWait(t, d, c, cfg)
		assert.Equal(t, once, c.HTML(), guid)
		assert.Equal(t, 1, c.Count("div.tl-timeline"), guid)
		assert.Equal(t, []string{"widget-" + guid}, c.Attrs("div.tl-timeline", "id"), guid)
	}

	completed, failed := rec.counts()
	assert.Equal(t, 8, completed)
	assert.Equal(t, 0, failed)
}

func TestChartGUIDName(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("cell")
	cfg := widget.Config{Name: "!!!", GUID: "v1.2 b", Type: "bar", Width: 420, Height: 360, DataSource: "chart.json"}
	renderWait(t, d, c, cfg)
	renderWait(t, d, c, cfg)
	assert.Equal(t, []string{"c3"}, c.Attrs("div.c3", "class"))
	assert.Equal(t, []string{"widget-v1.2 b"}, c.Attrs("div.c3", "id"))
}

func TestChartBindTarget(t *testing.T) {
	server := testServer()
	defer server.Close()
	d, _ := testDispatcher(t, server.URL+"/data/")

	c := dom.NewContainer("board-cell")
	renderWait(t, d, c, widget.Config{Name: "Sales Report", Type: "bar", Width: 420, Height: 360, DataSource: "chart.json"})
	assert.Equal(t, 1, c.Count("div#sales-report.c3"))
	assert.Greater(t, c.Count("svg"), 0)
}
