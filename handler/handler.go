package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/neovim/go-client/nvim"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
)

// Handler is the entry point of the bridge. Connections are exposed as
// positive handles, the registry slot plus one.
type Handler struct {
	vim      *nvim.Nvim
	log      core.Logger
	events   *eventBus
	registry *core.Registry
	stmtOpts []core.StatementOption

	mu                     sync.Mutex
	lookupCursor           map[CursorID]*cursor
	lookupConnectionCursor map[int][]CursorID
}

// New creates a handler over registry. vim may be nil when no editor is
// attached.
func New(vim *nvim.Nvim, logger core.Logger, registry *core.Registry, opts ...core.StatementOption) *Handler {
	if logger == nil {
		logger = core.NopLogger{}
	}

	return &Handler{
		vim: vim,
		log: logger,
		events: &eventBus{
			vim: vim,
			log: logger,
		},
		registry: registry,
		// the logger goes first so callers can replace it
		stmtOpts: append([]core.StatementOption{core.WithLogger(logger)}, opts...),

		lookupCursor:           make(map[CursorID]*cursor),
		lookupConnectionCursor: make(map[int][]CursorID),
	}
}

// Close closes every cursor and disconnects every connection.
func (h *Handler) Close() {
	h.mu.Lock()
	for id := range h.lookupCursor {
		h.closeCursor(id)
	}
	h.mu.Unlock()

	h.registry.Shutdown()
}

func toHandle(slot int) int {
	return slot + 1
}

func toSlot(handle int) int {
	return handle - 1
}

func (h *Handler) Connect(ctx context.Context, source, user, secret string) (int, error) {
	slot, err := h.registry.ConnectCredentials(ctx, source, user, secret)
	if err != nil {
		return 0, fmt.Errorf("registry.ConnectCredentials: %w", err)
	}

	h.log.Infof("connected to %q as %q with handle %d", source, user, toHandle(slot))
	h.events.ConnectionsChanged()
	return toHandle(slot), nil
}

func (h *Handler) DriverConnect(ctx context.Context, connString string) (int, error) {
	slot, err := h.registry.ConnectString(ctx, connString)
	if err != nil {
		return 0, fmt.Errorf("registry.ConnectString: %w", err)
	}

	h.log.Infof("connected by connection string with handle %d", toHandle(slot))
	h.events.ConnectionsChanged()
	return toHandle(slot), nil
}

// Connection is one entry of the connection table. Identity fields that do
// not apply are nil.
type Connection struct {
	Handle     int
	Live       bool
	Source     *string
	User       *string
	Secret     *string
	ConnString *string
}

func (h *Handler) Connections() []*Connection {
	infos := h.registry.List()

	conns := make([]*Connection, len(infos))
	for i, info := range infos {
		conns[i] = &Connection{
			Handle:     toHandle(info.Slot),
			Live:       info.Live,
			Source:     info.Source,
			User:       info.User,
			Secret:     info.Secret,
			ConnString: info.ConnString,
		}
	}
	return conns
}

// Disconnect closes the cursors open on the connection and disconnects it.
func (h *Handler) Disconnect(handle int) error {
	slot := toSlot(handle)

	h.mu.Lock()
	for _, id := range h.lookupConnectionCursor[slot] {
		h.closeCursor(id)
	}
	delete(h.lookupConnectionCursor, slot)
	h.mu.Unlock()

	if err := h.registry.Disconnect(slot); err != nil {
		return fmt.Errorf("registry.Disconnect: %w", err)
	}

	h.log.Infof("disconnected handle %d", handle)
	h.events.ConnectionsChanged()
	return nil
}

// Query runs query on an open connection. The returned stream yields rows of
// shape and must be closed.
func (h *Handler) Query(ctx context.Context, handle int, query string, shape host.TupleDesc) (core.ResultStream, error) {
	return h.query(ctx, toSlot(handle), query, shape)
}

// QueryCredentials runs query on the live connection opened with exactly
// these credentials, connecting first if there is none.
func (h *Handler) QueryCredentials(ctx context.Context, source, user, secret, query string, shape host.TupleDesc) (core.ResultStream, error) {
	slot, err := h.credentialsSlot(ctx, source, user, secret)
	if err != nil {
		return nil, err
	}
	return h.query(ctx, slot, query, shape)
}

// QueryConnString runs query on the live connection opened with exactly this
// connection string, connecting first if there is none.
func (h *Handler) QueryConnString(ctx context.Context, connString, query string, shape host.TupleDesc) (core.ResultStream, error) {
	slot, err := h.connStringSlot(ctx, connString)
	if err != nil {
		return nil, err
	}
	return h.query(ctx, slot, query, shape)
}

func (h *Handler) credentialsSlot(ctx context.Context, source, user, secret string) (int, error) {
	if slot, ok := h.registry.FindCredentials(source, user, secret); ok {
		return slot, nil
	}

	handle, err := h.Connect(ctx, source, user, secret)
	if err != nil {
		return 0, err
	}
	return toSlot(handle), nil
}

func (h *Handler) connStringSlot(ctx context.Context, connString string) (int, error) {
	if slot, ok := h.registry.FindString(connString); ok {
		return slot, nil
	}

	handle, err := h.DriverConnect(ctx, connString)
	if err != nil {
		return 0, err
	}
	return toSlot(handle), nil
}

func (h *Handler) query(ctx context.Context, slot int, query string, shape host.TupleDesc) (*core.Statement, error) {
	conn, err := h.registry.Conn(slot)
	if err != nil {
		return nil, fmt.Errorf("registry.Conn: %w", err)
	}

	stmt, err := core.OpenStatement(ctx, conn, query, shape, h.stmtOpts...)
	if err != nil {
		return nil, fmt.Errorf("core.OpenStatement: %w", err)
	}

	return stmt, nil
}
