package core

import (
	"context"
	"fmt"
	"sync"
)

// DefaultConnectionChunk is the number of slots the registry grows by.
const DefaultConnectionChunk = 4

type identity struct {
	source     string
	user       string
	secret     string
	connString string
	byString   bool
}

type slot struct {
	live bool
	id   identity
	env  EnvHandle
	conn ConnHandle
}

// ConnectionInfo is a snapshot of one registry slot. Identity fields that do
// not apply are nil.
type ConnectionInfo struct {
	Slot       int
	Live       bool
	Source     *string
	User       *string
	Secret     *string
	ConnString *string
}

type RegistryOption func(*Registry)

// WithConnectionChunk sets the number of slots the table grows by.
func WithConnectionChunk(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.chunk = n
		}
	}
}

// WithMaxSlots bounds the size of the slot table. 0 means unbounded.
func WithMaxSlots(n int) RegistryOption {
	return func(r *Registry) {
		r.maxSlots = n
	}
}

func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		r.log = logger
	}
}

// Registry owns the foreign connections. Slot indices are 0-based and stable
// while the connection is live; freed slots are reused before the table grows.
type Registry struct {
	driver   Driver
	chunk    int
	maxSlots int
	log      Logger

	mu    sync.Mutex
	slots []slot
}

func NewRegistry(driver Driver, opts ...RegistryOption) *Registry {
	r := &Registry{
		driver: driver,
		chunk:  DefaultConnectionChunk,
		log:    NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConnectCredentials opens a connection to a configured data source.
func (r *Registry) ConnectCredentials(ctx context.Context, source, user, secret string) (int, error) {
	id := identity{
		source: source,
		user:   user,
		secret: secret,
	}
	return r.connect(id, func(conn ConnHandle) error {
		return conn.Connect(ctx, source, user, secret)
	})
}

// ConnectString opens a connection with a driver connection string.
func (r *Registry) ConnectString(ctx context.Context, connString string) (int, error) {
	id := identity{
		connString: connString,
		byString:   true,
	}
	return r.connect(id, func(conn ConnHandle) error {
		return conn.DriverConnect(ctx, connString)
	})
}

func (r *Registry) connect(id identity, dial func(ConnHandle) error) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.freeSlot()
	if err != nil {
		return -1, err
	}

	env, conn, err := r.open(dial)
	if err != nil {
		return -1, err
	}

	r.slots[idx] = slot{
		live: true,
		id:   id,
		env:  env,
		conn: conn,
	}

	r.log.Debugf("connection opened in slot %d", idx)
	return idx, nil
}

// freeSlot returns the lowest free slot, growing the table by one chunk when
// every slot is live.
func (r *Registry) freeSlot() (int, error) {
	for i := range r.slots {
		if !r.slots[i].live {
			return i, nil
		}
	}

	n := len(r.slots)
	if r.maxSlots > 0 && n+r.chunk > r.maxSlots {
		return -1, fmt.Errorf("%w: table of %d slots is at its limit of %d", ErrRegistryFull, n, r.maxSlots)
	}

	r.slots = append(r.slots, make([]slot, r.chunk)...)
	return n, nil
}

// open allocates the environment and connection handles and establishes the
// session. Nothing is retained on failure.
func (r *Registry) open(dial func(ConnHandle) error) (EnvHandle, ConnHandle, error) {
	env, err := r.driver.AllocEnv()
	if err != nil {
		return nil, nil, &ConnectionError{Op: "allocate environment", Diag: diagnose(err)}
	}

	ok := false
	defer func() {
		if !ok {
			r.freeEnv(env)
		}
	}()

	conn, err := env.AllocConn()
	if err != nil {
		return nil, nil, &ConnectionError{Op: "allocate connection", Diag: diagnose(err)}
	}
	defer func() {
		if !ok {
			r.freeConn(conn)
		}
	}()

	if err := dial(conn); err != nil {
		return nil, nil, &ConnectionError{Op: "connect", Diag: diagnose(err)}
	}

	ok = true
	return env, conn, nil
}

func (r *Registry) freeEnv(env EnvHandle) {
	if err := env.Free(); err != nil {
		r.log.Warnf("unsuccessful free environment call: %s", diagnose(err))
	}
}

func (r *Registry) freeConn(conn ConnHandle) {
	if err := conn.Free(); err != nil {
		r.log.Warnf("unsuccessful free connection call: %s", diagnose(err))
	}
}

// FindCredentials returns the live slot opened with exactly these credentials.
func (r *Registry) FindCredentials(source, user, secret string) (int, bool) {
	return r.find(func(id identity) bool {
		return !id.byString && id.source == source && id.user == user && id.secret == secret
	})
}

// FindString returns the live slot opened with exactly this connection string.
func (r *Registry) FindString(connString string) (int, bool) {
	return r.find(func(id identity) bool {
		return id.byString && id.connString == connString
	})
}

func (r *Registry) find(match func(identity) bool) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i].live && match(r.slots[i].id) {
			return i, true
		}
	}
	return -1, false
}

// Conn returns the connection handle of a live slot.
func (r *Registry) Conn(idx int) (ConnHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLive(idx); err != nil {
		return nil, err
	}
	return r.slots[idx].conn, nil
}

func (r *Registry) checkLive(idx int) error {
	if idx < 0 || idx >= len(r.slots) || !r.slots[idx].live {
		return fmt.Errorf("slot %d: %w", idx, ErrInvalidHandle)
	}
	return nil
}

// Disconnect closes a live connection and frees its slot. Foreign failures
// during the teardown are logged.
func (r *Registry) Disconnect(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLive(idx); err != nil {
		return err
	}

	r.release(idx)
	return nil
}

func (r *Registry) release(idx int) {
	s := r.slots[idx]
	r.slots[idx] = slot{}

	if err := s.conn.Disconnect(); err != nil {
		r.log.Warnf("unsuccessful disconnect call on slot %d: %s", idx, diagnose(err))
	}
	r.freeConn(s.conn)
	r.freeEnv(s.env)

	r.log.Debugf("connection in slot %d closed", idx)
}

// List returns a snapshot of every slot.
func (r *Registry) List() []*ConnectionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]*ConnectionInfo, len(r.slots))
	for i, s := range r.slots {
		info := &ConnectionInfo{
			Slot: i,
			Live: s.live,
		}
		if s.live {
			if s.id.byString {
				info.ConnString = ptr(s.id.connString)
			} else {
				info.Source = ptr(s.id.source)
				info.User = ptr(s.id.user)
				info.Secret = ptr(s.id.secret)
			}
		}
		infos[i] = info
	}

	return infos
}

func ptr[T any](v T) *T {
	return &v
}

// Size returns the number of slots in the table.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Shutdown disconnects every live connection and drops the table.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		if r.slots[i].live {
			r.release(i)
		}
	}
	r.slots = nil
}
