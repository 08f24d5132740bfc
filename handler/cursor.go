package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/neovim/go-client/nvim"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/format"
	"github.com/kndndrj/dbeelink/core/host"
)

type CursorID string

var ErrUnknownCursor = errors.New("unknown cursor")

// cursor keeps a streaming statement open between fetch requests.
type cursor struct {
	id     CursorID
	handle int
	query  string

	mu     sync.Mutex
	stream *core.Statement
	rows   int
}

// Cursor is a snapshot of an open cursor.
type Cursor struct {
	ID      CursorID
	Handle  int
	Query   string
	State   core.StatementState
	Rows    int
	Columns core.Header
}

func (h *Handler) OpenCursor(ctx context.Context, handle int, query string, shape host.TupleDesc) (CursorID, error) {
	return h.openCursor(ctx, toSlot(handle), query, shape)
}

func (h *Handler) OpenCursorCredentials(ctx context.Context, source, user, secret, query string, shape host.TupleDesc) (CursorID, error) {
	slot, err := h.credentialsSlot(ctx, source, user, secret)
	if err != nil {
		return "", err
	}
	return h.openCursor(ctx, slot, query, shape)
}

func (h *Handler) OpenCursorConnString(ctx context.Context, connString, query string, shape host.TupleDesc) (CursorID, error) {
	slot, err := h.connStringSlot(ctx, connString)
	if err != nil {
		return "", err
	}
	return h.openCursor(ctx, slot, query, shape)
}

func (h *Handler) openCursor(ctx context.Context, slot int, query string, shape host.TupleDesc) (CursorID, error) {
	stream, err := h.query(ctx, slot, query, shape)
	if err != nil {
		return "", err
	}

	c := &cursor{
		id:     CursorID(uuid.New().String()),
		handle: toHandle(slot),
		query:  query,
		stream: stream,
	}

	h.mu.Lock()
	h.lookupCursor[c.id] = c
	h.lookupConnectionCursor[slot] = append(h.lookupConnectionCursor[slot], c.id)
	h.mu.Unlock()

	h.log.Debugf("opened cursor %q on handle %d", c.id, c.handle)
	h.events.CursorStateChanged(c.id, core.StatementStreaming)
	return c.id, nil
}

func (h *Handler) getCursor(id CursorID) (*cursor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.lookupCursor[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCursor, id)
	}
	return c, nil
}

// Batch is one CursorFetch result. Done reports that the cursor reached the
// end of its result.
type Batch struct {
	Shape host.TupleDesc
	Rows  []core.Row
	Done  bool
}

// CursorFetch returns up to n rows. A cursor that is done or failed is closed.
func (h *Handler) CursorFetch(id CursorID, n int) (*Batch, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid fetch size: %d", n)
	}

	c, err := h.getCursor(id)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		Shape: c.stream.Meta().Shape,
	}

	c.mu.Lock()
	for len(batch.Rows) < n && c.stream.HasNext() {
		row, err := c.stream.Next()
		if err != nil {
			c.mu.Unlock()
			h.removeCursor(id)
			return nil, fmt.Errorf("stream.Next: %w", err)
		}
		batch.Rows = append(batch.Rows, row)
	}
	c.rows += len(batch.Rows)
	batch.Done = !c.stream.HasNext()
	c.mu.Unlock()

	if batch.Done {
		h.removeCursor(id)
	}
	return batch, nil
}

func (h *Handler) CursorClose(id CursorID) error {
	if _, err := h.getCursor(id); err != nil {
		return err
	}
	h.removeCursor(id)
	return nil
}

// Cursors returns the open cursors ordered by handle.
func (h *Handler) Cursors() []*Cursor {
	h.mu.Lock()
	cursors := make([]*cursor, 0, len(h.lookupCursor))
	for _, c := range h.lookupCursor {
		cursors = append(cursors, c)
	}
	h.mu.Unlock()

	snapshots := make([]*Cursor, len(cursors))
	for i, c := range cursors {
		c.mu.Lock()
		snapshots[i] = &Cursor{
			ID:      c.id,
			Handle:  c.handle,
			Query:   c.query,
			State:   c.stream.State(),
			Rows:    c.rows,
			Columns: c.stream.Header(),
		}
		c.mu.Unlock()
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Handle != snapshots[j].Handle {
			return snapshots[i].Handle < snapshots[j].Handle
		}
		return snapshots[i].ID < snapshots[j].ID
	})
	return snapshots
}

// CursorStoreResult drains the rest of the cursor, formats it and writes it
// to output. The cursor is closed afterwards.
func (h *Handler) CursorStoreResult(id CursorID, fmat, output string, arg ...any) error {
	c, err := h.getCursor(id)
	if err != nil {
		return err
	}
	defer h.removeCursor(id)

	var formatter core.Formatter
	switch fmat {
	case "json":
		formatter = format.NewJSON()
	case "csv":
		formatter = format.NewCSV()
	case "table":
		formatter = format.NewTable()
	default:
		return fmt.Errorf("store format: %q is not supported", fmat)
	}

	writer, cleanup, err := h.getStoreWriter(output, arg...)
	if err != nil {
		return err
	}
	defer cleanup()

	res := new(core.Result)
	c.mu.Lock()
	err = res.SetIter(c.stream)
	c.rows += res.Len()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("res.SetIter: %w", err)
	}

	text, err := res.Format(formatter, 0, -1)
	if err != nil {
		return fmt.Errorf("res.Format: %w", err)
	}

	_, err = writer.Write(text)
	if err != nil {
		return fmt.Errorf("writer.Write: %w", err)
	}

	return nil
}

func (h *Handler) getStoreWriter(output string, arg ...any) (writer io.Writer, cleanup func(), err error) {
	switch output {
	case "file":
		if len(arg) < 1 || arg[0] == "" {
			return nil, func() {}, fmt.Errorf("no output path provided")
		}

		path, ok := arg[0].(string)
		if !ok {
			return nil, func() {}, fmt.Errorf("invalid output path: not a string")
		}

		writer, err := os.Create(path)
		if err != nil {
			return nil, func() {}, err
		}

		return writer, func() { writer.Close() }, nil
	case "buffer":
		if h.vim == nil {
			return nil, func() {}, fmt.Errorf("store output: %q needs an editor", output)
		}
		if len(arg) < 1 {
			return nil, func() {}, fmt.Errorf("no buffer provided")
		}

		buf, ok := arg[0].(int64)
		if ok {
			return newBuffer(h.vim, nvim.Buffer(buf)), func() {}, nil
		}

		bufstr, ok := arg[0].(string)
		if ok {
			buf, err := strconv.ParseInt(bufstr, 10, 64)
			return newBuffer(h.vim, nvim.Buffer(buf)), func() {}, err
		}

		return nil, func() {}, fmt.Errorf("buffer number not an int")
	case "yank":
		if h.vim == nil {
			return nil, func() {}, fmt.Errorf("store output: %q needs an editor", output)
		}
		register := ""
		if len(arg) > 0 {
			register, _ = arg[0].(string)
		}

		return newYankRegister(h.vim, register), func() {}, nil
	}

	return nil, func() {}, fmt.Errorf("store output: %q is not supported", output)
}

func (h *Handler) removeCursor(id CursorID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCursor(id)
}

// closeCursor closes the cursor and drops it from the lookups. h.mu must be
// held.
func (h *Handler) closeCursor(id CursorID) {
	c, ok := h.lookupCursor[id]
	if !ok {
		return
	}
	delete(h.lookupCursor, id)

	slot := toSlot(c.handle)
	ids := h.lookupConnectionCursor[slot]
	for i, cid := range ids {
		if cid == id {
			h.lookupConnectionCursor[slot] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(h.lookupConnectionCursor[slot]) == 0 {
		delete(h.lookupConnectionCursor, slot)
	}

	c.mu.Lock()
	c.stream.Close()
	state := c.stream.State()
	c.mu.Unlock()

	h.events.CursorStateChanged(id, state)
}
