package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kndndrj/dbeelink/core"
)

var _ core.Formatter = (*Table)(nil)

type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	tableHeaders := make(table.Row, len(header))
	for i, h := range header {
		tableHeaders[i] = h
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRow := make(table.Row, len(row))
		for j, val := range row {
			s, ok := render(opts, j, val)
			if !ok {
				s = "NULL"
			}
			tableRow[j] = s
		}
		tableRows[i] = tableRow
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeaders)
	t.AppendRows(tableRows)
	t.AppendSeparator()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false

	return []byte(t.Render() + "\n"), nil
}
