package format

import (
	"encoding/json"
	"fmt"

	"github.com/kndndrj/dbeelink/core"
)

var _ core.Formatter = (*JSON)(nil)

type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) parse(header core.Header, rows []core.Row, opts *core.FormatterOptions) []map[string]any {
	data := []map[string]any{}

	for _, row := range rows {
		record := make(map[string]any, len(row))
		for i, val := range row {
			var h string
			if i < len(header) {
				h = header[i]
			} else {
				h = fmt.Sprintf("<unknown-field-%d>", i)
			}
			record[h] = jf.value(opts, i, val)
		}
		data = append(data, record)
	}

	return data
}

func (jf *JSON) value(opts *core.FormatterOptions, i int, val any) any {
	if opts == nil {
		return Value(nil, i, val)
	}
	return Value(opts.Shape, i, val)
}

func (jf *JSON) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	data := jf.parse(header, rows, opts)

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}

	return out, nil
}
