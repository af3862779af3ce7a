package handlers

import (
	"context"
	"fmt"

	"github.com/chartsbuilder/widgets/dom"
	"github.com/chartsbuilder/widgets/fetch"
	"github.com/chartsbuilder/widgets/render"
	"github.com/chartsbuilder/widgets/widget"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// Table the data table adapter. It owns every div and table of the container
type Table struct {
	fetcher fetch.Fetcher
}

// NewTable create the table adapter
func NewTable(fetcher fetch.Fetcher) *Table {
	return &Table{fetcher: fetcher}
}

// Family table
func (a *Table) Family() widget.Family { return widget.Table }

// Render fetch the rows and draw them, columns in the key order of the first row
func (a *Table) Render(task *render.Task, cfg widget.Config) {
	task.Clean(func(c *dom.Container) {
		c.RemoveAll("div")
		c.RemoveAll("table")
	})

	task.Go(func(ctx context.Context) error {
		payload, err := load(ctx, task, a.fetcher, cfg.DataSource)
		if err != nil {
			return err
		}

		columns, rows, err := tableRows(payload.Body)
		if err != nil {
			return widget.Malformed(cfg.DataSource, "%s", err.Error())
		}

		wrapper := dom.Append(dom.Element("div", "class", "dataTables_wrapper"), drawTable(cfg.NormalizeName(), columns, rows))
		return task.Draw(func(c *dom.Container) error {
			c.Append(wrapper)
			return nil
		})
	})
}

func tableRows(body []byte) ([]string, []gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, nil, fmt.Errorf("invalid json")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, nil, fmt.Errorf("table data is not an array of rows")
	}

	rows := doc.Array()
	for i, row := range rows {
		if !row.IsObject() {
			return nil, nil, fmt.Errorf("row #%d is not an object", i)
		}
	}

	columns := []string{}
	if len(rows) > 0 {
		rows[0].ForEach(func(key, _ gjson.Result) bool {
			columns = append(columns, key.String())
			return true
		})
	}
	return columns, rows, nil
}

func drawTable(id string, columns []string, rows []gjson.Result) *html.Node {
	table := dom.Element("table", "id", id, "class", "table table-striped table-bordered")
	dom.SetStyle(table, "width", "100%")

	head := dom.Element("tr")
	for _, column := range columns {
		dom.Append(head, dom.Append(dom.Element("th"), dom.Text(column)))
	}

	body := dom.Element("tbody")
	for _, row := range rows {
		tr := dom.Element("tr")
		for _, column := range columns {
			dom.Append(tr, dom.Append(dom.Element("td"), dom.Text(cell(row.Get(gjson.Escape(column))))))
		}
		dom.Append(body, tr)
	}

	return dom.Append(table, dom.Append(dom.Element("thead"), head), body)
}

func cell(value gjson.Result) string {
	switch value.Type {
	case gjson.Null:
		return ""
	case gjson.JSON:
		return value.Raw
	}
	return value.String()
}
