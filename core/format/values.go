// Package format renders rows of host values.
package format

import (
	"fmt"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
)

var parser = host.NewParser()

// render renders the value of column i in the host's text form. The second
// return value is false for NULL.
func render(opts *core.FormatterOptions, i int, value any) (string, bool) {
	if value == nil {
		return "", false
	}

	if opts != nil && i < len(opts.Shape) {
		out, ok, err := parser.Format(opts.Shape[i], value)
		if err == nil {
			return out, ok
		}
	}

	if b, ok := value.([]byte); ok {
		return fmt.Sprintf(`\x%x`, b), true
	}
	return fmt.Sprint(value), true
}

// Value returns the scalar form of a host value. Numbers, booleans and NULL
// are kept, everything else is rendered as text.
func Value(shape host.TupleDesc, i int, val any) any {
	switch val.(type) {
	case nil, bool, int16, int32, int64, float32, float64:
		return val
	}

	s, _ := render(&core.FormatterOptions{Shape: shape}, i, val)
	return s
}
