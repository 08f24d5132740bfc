package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

var (
	diagSequence   = &core.Diagnostic{State: "HY010", Message: "function sequence error"}
	diagNotOpen    = &core.Diagnostic{State: "08003", Message: "connection not open"}
	diagInUse      = &core.Diagnostic{State: "08002", Message: "connection name in use"}
	diagBadColumn  = &core.Diagnostic{State: "07009", Message: "invalid descriptor index"}
	diagNoRow      = &core.Diagnostic{State: "24000", Message: "invalid cursor state"}
	diagNoDriver   = &core.Diagnostic{State: "IM002", Message: "data source name not found and no default driver specified"}
	diagBadConnStr = func(err error) *core.Diagnostic {
		return &core.Diagnostic{State: "01S00", Message: "invalid connection string attribute: " + err.Error()}
	}
)

type ManagerOption func(*Manager)

// WithSources adds data sources to the catalog. Later entries replace earlier
// ones with the same name.
func WithSources(sources ...*core.SourceParams) ManagerOption {
	return func(m *Manager) {
		for _, src := range sources {
			m.sources[src.Name] = src
		}
	}
}

func WithManagerLogger(logger core.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = logger
	}
}

var _ core.Driver = (*Manager)(nil)

// Manager is a call-level driver over database/sql. Connections are resolved
// through the data source catalog or a driver connection string and opened
// with the adapter registered for the driver alias.
type Manager struct {
	mux     *Mux
	sources map[string]*core.SourceParams
	log     core.Logger
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		mux:     new(Mux),
		sources: make(map[string]*core.SourceParams),
		log:     core.NopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sources returns the catalog ordered by name.
func (m *Manager) Sources() []*core.SourceParams {
	sources := make([]*core.SourceParams, 0, len(m.sources))
	for _, src := range m.sources {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name < sources[j].Name
	})
	return sources
}

func (m *Manager) AllocEnv() (core.EnvHandle, error) {
	return &environment{m: m}, nil
}

type environment struct {
	m *Manager

	mu    sync.Mutex
	conns int
	freed bool
}

func (e *environment) AllocConn() (core.ConnHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.freed {
		return nil, diagSequence
	}
	e.conns++
	return &connection{env: e}, nil
}

func (e *environment) Free() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.freed || e.conns > 0 {
		return diagSequence
	}
	e.freed = true
	return nil
}

func (e *environment) connFreed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns--
}

type connection struct {
	env     *environment
	adapter Adapter
	client  *builders.Client
	freed   bool
}

func (c *connection) Connect(ctx context.Context, source, user, secret string) error {
	if c.freed {
		return diagSequence
	}
	if c.client != nil {
		return diagInUse
	}

	params, ok := c.env.m.sources[source]
	if !ok {
		return diagNoDriver
	}

	return c.open(ctx, params, &core.Credentials{
		User:     user,
		Password: secret,
	})
}

// DriverConnect connects with "DSN=name;UID=user;PWD=secret" through the
// catalog or with "DRIVER=alias;URL=url;UID=user;PWD=secret" directly.
func (c *connection) DriverConnect(ctx context.Context, connString string) error {
	if c.freed {
		return diagSequence
	}
	if c.client != nil {
		return diagInUse
	}

	attrs, err := ParseConnString(connString)
	if err != nil {
		return diagBadConnStr(err)
	}
	user, _ := attrs.Get(keyUser)
	password, _ := attrs.Get(keyPass)

	if dsn, ok := attrs.Get(keyDSN); ok && dsn != "" {
		params, ok := c.env.m.sources[dsn]
		if !ok {
			return diagNoDriver
		}
		return c.open(ctx, params, &core.Credentials{
			User:     user,
			Password: password,
		})
	}

	driver, _ := attrs.Get(keyDriver)
	url, _ := attrs.Get(keyURL)
	if driver == "" {
		return diagNoDriver
	}

	url, err = injectUserInfo(url, user, password)
	if err != nil {
		return diagBadConnStr(err)
	}

	return c.open(ctx, &core.SourceParams{
		Name:   driver,
		Driver: driver,
		URL:    url,
	}, nil)
}

func (c *connection) open(ctx context.Context, params *core.SourceParams, creds *core.Credentials) error {
	log := c.env.m.log

	if creds != nil {
		expanded, err := params.Expand(creds)
		if err != nil {
			return &core.Diagnostic{State: "HY000", Message: err.Error()}
		}
		params = expanded
	}

	adapter, err := c.env.m.mux.GetAdapter(params.Driver)
	if err != nil {
		return &core.Diagnostic{State: diagNoDriver.State, Message: fmt.Sprintf("%s: %q", err, params.Driver)}
	}

	client, err := adapter.Connect(params.URL)
	if err != nil {
		return diagnose(adapter, err, "08001")
	}

	if err := client.Ping(ctx); err != nil {
		if cerr := client.Close(); cerr != nil {
			log.Warnf("closing unreachable %s client: %s", params.Driver, cerr)
		}
		return diagnose(adapter, err, "08001")
	}

	log.Debugf("connected to %q through the %s adapter", params.Name, params.Driver)
	c.adapter = adapter
	c.client = client
	return nil
}

func (c *connection) AllocStmt() (core.StmtHandle, error) {
	if c.freed {
		return nil, diagSequence
	}
	if c.client == nil {
		return nil, diagNotOpen
	}
	return &statement{conn: c}, nil
}

// Disconnect closes the client. The connection is closed even when the
// driver reports a failure.
func (c *connection) Disconnect() error {
	if c.client == nil {
		return diagNotOpen
	}

	client, adapter := c.client, c.adapter
	c.client = nil
	c.adapter = nil

	if err := client.Close(); err != nil {
		return diagnose(adapter, err, "01002")
	}
	return nil
}

func (c *connection) Free() error {
	if c.freed || c.client != nil {
		return diagSequence
	}
	c.freed = true
	c.env.connFreed()
	return nil
}
