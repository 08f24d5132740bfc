package handler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
	"github.com/kndndrj/dbeelink/core/mock"
	"github.com/kndndrj/dbeelink/handler"
)

const fruitQuery = "SELECT id, name FROM fruit"

var (
	fruitTable = &mock.Table{
		Columns: []*core.ColumnDescriptor{
			{Name: "id", Type: core.SQLInteger, Size: 10},
			{Name: "name", Type: core.SQLVarchar, Size: 20},
		},
		Rows: [][]any{
			{int32(1), "apple"},
			{int32(2), "pear"},
			{int32(3), nil},
		},
	}
	fruitShape = host.TupleDesc{
		{Name: "id", Type: host.Int4},
		{Name: "name", Type: host.Text},
	}
)

func newHandler(t *testing.T, opts ...mock.DriverOption) (*handler.Handler, *mock.Driver) {
	t.Helper()

	opts = append([]mock.DriverOption{mock.DriverWithTable(fruitQuery, fruitTable)}, opts...)
	d := mock.NewDriver(opts...)
	h := handler.New(nil, new(mock.Logger), core.NewRegistry(d))

	return h, d
}

func requireBalanced(t *testing.T, d *mock.Driver) {
	t.Helper()

	stats := d.Stats()
	require.Equal(t, stats.EnvAllocs, stats.EnvFrees, "environment handles")
	require.Equal(t, stats.ConnAllocs, stats.ConnFrees, "connection handles")
	require.Equal(t, stats.StmtAllocs, stats.StmtFrees, "statement handles")
}

func TestHandler_Connect(t *testing.T) {
	r := require.New(t)

	h, d := newHandler(t, mock.DriverWithSource("warehouse", "alice", "secret"))

	handle, err := h.Connect(context.Background(), "warehouse", "alice", "secret")
	r.NoError(err)
	r.Equal(1, handle)

	handle, err = h.DriverConnect(context.Background(), "DSN=warehouse")
	r.NoError(err)
	r.Equal(2, handle)

	_, err = h.Connect(context.Background(), "warehouse", "alice", "wrong")
	var diag *core.Diagnostic
	r.ErrorAs(err, &diag)
	r.Equal("28000", diag.State)

	conns := h.Connections()
	r.GreaterOrEqual(len(conns), 2)
	r.Equal(1, conns[0].Handle)
	r.True(conns[0].Live)
	r.Equal("warehouse", *conns[0].Source)
	r.Equal("alice", *conns[0].User)
	r.Nil(conns[0].ConnString)
	r.Equal("DSN=warehouse", *conns[1].ConnString)
	for _, conn := range conns[2:] {
		r.False(conn.Live)
	}

	r.NoError(h.Disconnect(1))
	r.Error(h.Disconnect(1))

	h.Close()
	requireBalanced(t, d)
}

func TestHandler_Query(t *testing.T) {
	r := require.New(t)

	h, d := newHandler(t)

	stream, err := h.QueryCredentials(context.Background(), "warehouse", "u", "p", fruitQuery, fruitShape)
	r.NoError(err)
	r.Equal(core.Header{"id", "name"}, stream.Header())

	res := new(core.Result)
	r.NoError(res.SetIter(stream))
	r.Equal(3, res.Len())

	// same credentials reuse the connection
	stream, err = h.QueryCredentials(context.Background(), "warehouse", "u", "p", fruitQuery, fruitShape)
	r.NoError(err)
	stream.Close()
	r.Equal(1, d.Stats().Connects)

	stream, err = h.QueryConnString(context.Background(), "DSN=warehouse", fruitQuery, fruitShape)
	r.NoError(err)
	stream.Close()
	r.Equal(2, d.Stats().Connects)

	_, err = h.Query(context.Background(), 1, "SELECT * FROM missing", fruitShape)
	var qerr *core.QueryError
	r.ErrorAs(err, &qerr)
	r.Equal("SELECT * FROM missing", qerr.Query)

	// no such connection
	_, err = h.Query(context.Background(), 7, fruitQuery, fruitShape)
	r.Error(err)

	h.Close()
	requireBalanced(t, d)
}

func TestHandler_CursorFetch(t *testing.T) {
	r := require.New(t)

	h, d := newHandler(t)

	id, err := h.OpenCursorConnString(context.Background(), "DSN=warehouse", fruitQuery, fruitShape)
	r.NoError(err)

	_, err = h.CursorFetch(id, 0)
	r.Error(err)

	batch, err := h.CursorFetch(id, 2)
	r.NoError(err)
	r.False(batch.Done)
	r.Equal([]core.Row{{int32(1), "apple"}, {int32(2), "pear"}}, batch.Rows)
	r.Equal(fruitShape, batch.Shape)

	cursors := h.Cursors()
	r.Len(cursors, 1)
	r.Equal(id, cursors[0].ID)
	r.Equal(1, cursors[0].Handle)
	r.Equal(2, cursors[0].Rows)
	r.Equal(core.StatementStreaming, cursors[0].State)

	batch, err = h.CursorFetch(id, 2)
	r.NoError(err)
	r.True(batch.Done)
	r.Equal([]core.Row{{int32(3), nil}}, batch.Rows)

	// done cursors are gone
	r.Empty(h.Cursors())
	_, err = h.CursorFetch(id, 1)
	r.ErrorIs(err, handler.ErrUnknownCursor)
	r.ErrorIs(h.CursorClose(id), handler.ErrUnknownCursor)

	h.Close()
	requireBalanced(t, d)
}

func TestHandler_CursorFetchFailure(t *testing.T) {
	r := require.New(t)

	h, d := newHandler(t, mock.DriverWithFetchFailure(fruitQuery, 1, &core.Diagnostic{State: "08S01", Message: "link failure"}))

	handle, err := h.DriverConnect(context.Background(), "DSN=warehouse")
	r.NoError(err)

	id, err := h.OpenCursor(context.Background(), handle, fruitQuery, fruitShape)
	r.NoError(err)

	_, err = h.CursorFetch(id, 10)
	var diag *core.Diagnostic
	r.ErrorAs(err, &diag)
	r.Equal("08S01", diag.State)
	r.Empty(h.Cursors())

	h.Close()
	requireBalanced(t, d)
}

func TestHandler_DisconnectClosesCursors(t *testing.T) {
	r := require.New(t)

	h, d := newHandler(t)

	first, err := h.DriverConnect(context.Background(), "DSN=first")
	r.NoError(err)
	second, err := h.DriverConnect(context.Background(), "DSN=second")
	r.NoError(err)

	_, err = h.OpenCursor(context.Background(), first, fruitQuery, fruitShape)
	r.NoError(err)
	_, err = h.OpenCursor(context.Background(), first, fruitQuery, fruitShape)
	r.NoError(err)
	kept, err := h.OpenCursor(context.Background(), second, fruitQuery, fruitShape)
	r.NoError(err)
	r.Len(h.Cursors(), 3)

	r.NoError(h.Disconnect(first))

	cursors := h.Cursors()
	r.Len(cursors, 1)
	r.Equal(kept, cursors[0].ID)

	stats := d.Stats()
	r.Equal(3, stats.StmtAllocs)
	r.Equal(2, stats.StmtFrees)

	r.NoError(h.CursorClose(kept))
	r.Empty(h.Cursors())

	h.Close()
	requireBalanced(t, d)
}

func TestHandler_CursorStoreResult(t *testing.T) {
	type testCase struct {
		name     string
		format   string
		expected string
	}

	testCases := []testCase{
		{
			name:     "csv",
			format:   "csv",
			expected: "id,name\n1,apple\n2,pear\n3,\n",
		},
		{
			name:   "json",
			format: "json",
			expected: `[
  {
    "id": 1,
    "name": "apple"
  },
  {
    "id": 2,
    "name": "pear"
  },
  {
    "id": 3,
    "name": null
  }
]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			h, d := newHandler(t)

			id, err := h.OpenCursorConnString(context.Background(), "DSN=warehouse", fruitQuery, fruitShape)
			r.NoError(err)

			path := filepath.Join(t.TempDir(), "out")
			r.NoError(h.CursorStoreResult(id, tc.format, "file", path))

			out, err := os.ReadFile(path)
			r.NoError(err)
			if tc.format == "json" {
				r.JSONEq(tc.expected, string(out))
			} else {
				r.Equal(tc.expected, string(out))
			}

			r.Empty(h.Cursors())

			h.Close()
			requireBalanced(t, d)
		})
	}
}

func TestHandler_CursorStoreResultErrors(t *testing.T) {
	h, d := newHandler(t)
	defer func() {
		h.Close()
		requireBalanced(t, d)
	}()

	open := func() handler.CursorID {
		id, err := h.OpenCursorConnString(context.Background(), "DSN=warehouse", fruitQuery, fruitShape)
		require.NoError(t, err)
		return id
	}

	assert.ErrorContains(t, h.CursorStoreResult(open(), "xml", "file", "/tmp/out"), "not supported")
	assert.ErrorContains(t, h.CursorStoreResult(open(), "csv", "file"), "no output path")
	assert.ErrorContains(t, h.CursorStoreResult(open(), "csv", "buffer", int64(1)), "needs an editor")
	assert.ErrorContains(t, h.CursorStoreResult(open(), "csv", "yank"), "needs an editor")
	assert.ErrorContains(t, h.CursorStoreResult(open(), "csv", "printer"), "not supported")
	assert.ErrorIs(t, h.CursorStoreResult("nope", "csv", "file", "/tmp/out"), handler.ErrUnknownCursor)

	// failed stores close the cursor too
	assert.Empty(t, h.Cursors())
}
