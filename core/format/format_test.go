package format_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/format"
	"github.com/kndndrj/dbeelink/core/host"
)

var (
	header = core.Header{"id", "price", "day", "note"}
	shape  = host.TupleDesc{
		{Name: "id", Type: host.Int4},
		{Name: "price", Type: host.Numeric},
		{Name: "day", Type: host.Date},
		{Name: "note", Type: host.Text},
	}
	rows = []core.Row{
		{
			int32(1),
			pgtype.Numeric{Int: big.NewInt(1050), Exp: -2, Valid: true},
			pgtype.Date{Time: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Valid: true},
			"first, with comma",
		},
		{int32(2), nil, nil, nil},
	}
)

func TestCSV(t *testing.T) {
	r := require.New(t)

	out, err := format.NewCSV().Format(header, rows, &core.FormatterOptions{Shape: shape})
	r.NoError(err)
	r.Equal("id,price,day,note\n1,10.50,2024-02-29,\"first, with comma\"\n2,,,\n", string(out))
}

func TestJSON(t *testing.T) {
	r := require.New(t)

	out, err := format.NewJSON().Format(header, rows, &core.FormatterOptions{Shape: shape})
	r.NoError(err)
	r.JSONEq(`[
		{"id": 1, "price": "10.50", "day": "2024-02-29", "note": "first, with comma"},
		{"id": 2, "price": null, "day": null, "note": null}
	]`, string(out))

	out, err = format.NewJSON().Format(header, nil, &core.FormatterOptions{})
	r.NoError(err)
	r.JSONEq(`[]`, string(out))
}

func TestJSON_WithoutShape(t *testing.T) {
	r := require.New(t)

	out, err := format.NewJSON().Format(core.Header{"a"}, []core.Row{{[]byte{0xbe, 0xef}}, {"x", "extra"}}, nil)
	r.NoError(err)
	r.JSONEq(`[{"a": "\\xbeef"}, {"a": "x", "<unknown-field-1>": "extra"}]`, string(out))
}

func TestTable(t *testing.T) {
	r := require.New(t)

	out, err := format.NewTable().Format(header, rows, &core.FormatterOptions{Shape: shape})
	r.NoError(err)

	s := string(out)
	for _, expected := range []string{"id", "price", "10.50", "2024-02-29", "first, with comma", "NULL"} {
		r.Contains(s, expected)
	}
}
