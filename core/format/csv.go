package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kndndrj/dbeelink/core"
)

var _ core.Formatter = (*CSV)(nil)

type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) parse(header core.Header, rows []core.Row, opts *core.FormatterOptions) [][]string {
	data := [][]string{
		header,
	}
	for _, row := range rows {
		csvRow := make([]string, len(row))
		for i, rec := range row {
			// NULL is an empty field
			csvRow[i], _ = render(opts, i, rec)
		}
		data = append(data, csvRow)
	}

	return data
}

func (cf *CSV) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	data := cf.parse(header, rows, opts)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	err := w.WriteAll(data)
	if err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}

	return b.Bytes(), nil
}
