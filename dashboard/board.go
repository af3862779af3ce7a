package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/handlers"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/yaoapp/kun/log"
)

// ErrCellNotFound the board has no widget of that name
var ErrCellNotFound = errors.New("widget does not exist")

// Renderer the render entry point a board dispatches through
type Renderer interface {
	Render(ctx context.Context, c *dom.Container, cfg widget.Config) (*render.Task, error)
}

// Board a dashboard: widget configs and the containers they render into
type Board struct {
	Title    string
	Live     bool // the page refreshes its widgets from /ws and posts treemap relayouts
	renderer Renderer
	cells    []*Cell
	mu       sync.Mutex
	onUpdate func(cell *Cell)
}

// Cell one widget of the board
type Cell struct {
	Config    widget.Config
	Container *dom.Container
	mu        sync.Mutex
	task      *render.Task
}

// New create a board, one container per widget named after it
func New(title string, renderer Renderer, configs []widget.Config) *Board {
	board := &Board{Title: title, renderer: renderer, cells: []*Cell{}}
	seen := map[string]int{}
	for _, cfg := range configs {
		id := cfg.NormalizeName()
		if n := seen[id]; n > 0 {
			id = cfg.ElementID()
		}
		seen[id]++
		board.cells = append(board.cells, &Cell{Config: cfg, Container: dom.NewContainer(id)})
	}
	return board
}

// Cells the widgets in board order
func (board *Board) Cells() []*Cell {
	return board.cells
}

// Cell the widget with the given name
func (board *Board) Cell(name string) (*Cell, bool) {
	for _, cell := range board.cells {
		if cell.Config.Name == name {
			return cell, true
		}
	}
	return nil, false
}

// Render start rendering the cell, unless its previous render is still running
func (board *Board) Render(ctx context.Context, cell *Cell) (*render.Task, bool, error) {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	if cell.task != nil && !cell.task.State().Terminal() {
		return cell.task, false, nil
	}
	task, err := board.renderer.Render(ctx, cell.Container, cell.Config)
	if err != nil {
		return nil, false, err
	}
	cell.task = task
	go func() {
		<-task.Done()
		board.notify(cell)
	}()
	return task, true, nil
}

// OnUpdate the callback fired after a cell render ended or its treemap was re-laid out
func (board *Board) OnUpdate(fn func(cell *Cell)) {
	board.mu.Lock()
	defer board.mu.Unlock()
	board.onUpdate = fn
}

func (board *Board) notify(cell *Cell) {
	board.mu.Lock()
	fn := board.onUpdate
	board.mu.Unlock()
	if fn != nil {
		fn(cell)
	}
}

// Relayout re-lay out the treemap of the named widget, leaves weigh "size" or "count"
func (board *Board) Relayout(name string, mode string) (*Cell, error) {
	cell, has := board.Cell(name)
	if !has {
		return nil, fmt.Errorf("%s: %w", name, ErrCellNotFound)
	}
	if !isTreemap(cell.Config) {
		return nil, fmt.Errorf("%s is a %s, not a treemap", name, cell.Config.Type)
	}
	if err := handlers.Relayout(cell.Container, mode); err != nil {
		return nil, err
	}
	log.Trace("[Dashboard] %s relayout by %s", name, mode)
	board.notify(cell)
	return cell, nil
}

func isTreemap(cfg widget.Config) bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Type), "treemap")
}

// Task the last render task of the cell, nil if it never rendered
func (cell *Cell) Task() *render.Task {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.task
}

// RenderAll render every widget and wait for all of them.
// The returned error joins the failures, one per widget
func (board *Board) RenderAll(ctx context.Context) error {
	tasks := make([]*render.Task, len(board.cells))
	errs := []error{}
	for i, cell := range board.cells {
		task, _, err := board.Render(ctx, cell)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cell.Config.Name, err))
			continue
		}
		tasks[i] = task
	}

	for i, task := range tasks {
		if task == nil {
			continue
		}
		if err := task.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", board.cells[i].Config.Name, err))
		}
	}

	if len(errs) > 0 {
		log.Warn("[Dashboard] %s: %d of %d widgets failed", board.Title, len(errs), len(board.cells))
	}
	return errors.Join(errs...)
}

// Page the board as a standalone html page
func (board *Board) Page() string {
	var sb strings.Builder
	title := html.EscapeString(board.Title)
	sb.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	sb.WriteString(title)
	sb.WriteString("</title></head><body><h1>")
	sb.WriteString(title)
	sb.WriteString("</h1><div class=\"dashboard\">")
	for _, cell := range board.cells {
		fmt.Fprintf(&sb, "<div class=\"widget widget-%s\" data-type=\"%s\" style=\"width: %dpx; height: %dpx\">",
			html.EscapeString(cell.Config.GUID), html.EscapeString(cell.Config.Type), cell.Config.Width, cell.Config.Height)
		if cell.Config.Name != "" {
			fmt.Fprintf(&sb, "<h2>%s</h2>", html.EscapeString(cell.Config.Name))
		}
		if isTreemap(cell.Config) {
			valueControl(&sb, cell)
		}
		sb.WriteString(cell.Container.HTML())
		sb.WriteString("</div>")
	}
	sb.WriteString("</div>")
	if board.Live {
		sb.WriteString(liveScript)
	}
	sb.WriteString("</body></html>\n")
	return sb.String()
}

// valueControl the size / count switch of a treemap
func valueControl(sb *strings.Builder, cell *Cell) {
	mode := cell.Config.Option("value", "size")
	group := html.EscapeString("value-" + cell.Config.GUID)
	fmt.Fprintf(sb, "<form class=\"treemap-value\" data-widget=\"%s\">", html.EscapeString(url.PathEscape(cell.Config.Name)))
	for _, value := range [][2]string{{"size", "Size"}, {"count", "Count"}} {
		checked := ""
		if value[0] == mode {
			checked = " checked"
		}
		fmt.Fprintf(sb, "<label><input type=\"radio\" name=\"%s\" value=\"%s\"%s> %s</label>", group, value[0], checked, value[1])
	}
	sb.WriteString("</form>")
}

const liveScript = `<script>
document.querySelectorAll("form.treemap-value input").forEach(function (input) {
  input.addEventListener("change", function () {
    fetch("/widgets/" + input.form.dataset.widget + "/relayout?value=" + input.value, {method: "POST"});
  });
});
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = function (e) {
    e.data.split("\n").forEach(function (line) {
      var update = JSON.parse(line);
      var el = document.getElementById(update.id);
      if (el) { el.outerHTML = update.html; }
    });
  };
})();
</script>`
