package widgets

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/store"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() (*httptest.Server, *int32) {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard
	hits := int32(0)
	router := gin.New()
	router.GET("/rows.json", func(c *gin.Context) {
		atomic.AddInt32(&hits, 1)
		c.Data(200, "application/json", []byte(`[{"name": "Tiger Nixon", "age": 61}]`))
	})
	return httptest.NewServer(router), &hits
}

func TestNew(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Nil(t, r.Store)
	assert.Len(t, r.Registry.Families(), len(widget.Families))
	for _, typ := range r.Registry.Types() {
		assert.True(t, r.Registry.Exists(typ), typ)
	}
}

func TestRenderConfig(t *testing.T) {
	server, hits := testServer()
	defer server.Close()

	completed := int32(0)
	r, err := New(
		WithBase(server.URL),
		WithCacheTTL(time.Minute),
		WithCompletion(func(c *dom.Container) { atomic.AddInt32(&completed, 1) }),
	)
	require.NoError(t, err)
	require.NotNil(t, r.Store)

	cfg := widget.Config{Name: "Staff", GUID: "1", Type: "datatable", DataSource: "rows.json"}
	c, err := r.RenderConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "staff", c.ID())
	assert.Equal(t, 2, c.Count("td"))

	_, err = r.RenderConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, int32(2), atomic.LoadInt32(&completed))

	_, err = r.RenderConfig(context.Background(), widget.Config{Name: "x", Type: "sunburst"})
	assert.ErrorIs(t, err, widget.ErrUnknownWidgetType)
}

func TestWithFetcher(t *testing.T) {
	kv, err := store.New(store.Option{Type: "lru", Size: 8})
	require.NoError(t, err)

	failed := int32(0)
	r, err := New(
		WithStore(kv),
		WithFetcher(fetch.FetcherFunc(func(ctx context.Context, uri string) (*fetch.Payload, error) {
			return &fetch.Payload{URI: uri, Status: 200, Body: []byte(`<p>hello</p>`)}, nil
		})),
		WithFailure(func(c *dom.Container, err error) { atomic.AddInt32(&failed, 1) }),
		WithTimeout(time.Second),
	)
	require.NoError(t, err)

	c, err := r.RenderConfig(context.Background(), widget.Config{Name: "Note", Type: "custom", DataSource: "memory://note"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count("p"))
	assert.True(t, kv.Has("fetch:memory://note"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&failed))
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "board.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
widgets:
  - name: Staff
    type: datatable
    width: 400
    height: 300
    dataSource: rows.json
  - name: Embed
    type: iframe
    dataSource: https://example.test/x
`), 0644))

	r, err := New()
	require.NoError(t, err)
	configs, err := r.Load(file)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "datatable", configs[0].Type)
	assert.NotEmpty(t, configs[0].GUID)
	assert.Equal(t, widget.Box{Width: 380, Height: 240}, configs[0].Inner())
}
