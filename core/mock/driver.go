// Package mock provides a scripted in-memory call-level driver. Every handle
// allocation and release is counted so tests can check that nothing leaks and
// nothing is released twice.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kndndrj/dbeelink/core"
)

var (
	diagSequence  = &core.Diagnostic{State: "HY010", Message: "function sequence error"}
	diagNoTable   = func(q string) *core.Diagnostic { return &core.Diagnostic{State: "42S02", Native: 1, Message: "no such table for query: " + q} }
	diagNoSource  = &core.Diagnostic{State: "28000", Native: 18456, Message: "invalid authorization specification"}
	diagNoDSN     = &core.Diagnostic{State: "IM002", Message: "data source name not found"}
	diagNotOpen   = &core.Diagnostic{State: "08003", Message: "connection not open"}
	diagBadColumn = &core.Diagnostic{State: "07009", Message: "invalid descriptor index"}
)

// Table is the scripted result of one query. Values are nil (NULL), integers,
// floats, bools, strings or []byte.
type Table struct {
	Columns []*core.ColumnDescriptor
	Rows    [][]any
}

// Stats counts calls made to the driver.
type Stats struct {
	EnvAllocs   int
	EnvFrees    int
	ConnAllocs  int
	ConnFrees   int
	Connects    int
	Disconnects int
	StmtAllocs  int
	StmtFrees   int
	Executions  int
	Fetches     int
	GetData     int
}

var _ core.Driver = (*Driver)(nil)

type Driver struct {
	config *driverConfig

	mu    sync.Mutex
	stats Stats
}

func NewDriver(opts ...DriverOption) *Driver {
	config := &driverConfig{
		tables:           make(map[string]*Table),
		querySideEffects: make(map[string]func(context.Context) error),
		sources:          make(map[[3]string]bool),
		connStrings:      make(map[string]bool),
		failures:         make(map[Op]*core.Diagnostic),
		fetchFailures:    make(map[string]map[int]*core.Diagnostic),
		getDataFailures:  make(map[string]map[cell]*core.Diagnostic),
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Driver{
		config: config,
	}
}

// Stats returns a snapshot of the call counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Driver) count(fn func(*Stats)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.stats)
}

func (d *Driver) failure(op Op) error {
	diag, ok := d.config.failures[op]
	if !ok {
		return nil
	}
	return diag
}

func (d *Driver) AllocEnv() (core.EnvHandle, error) {
	if err := d.failure(OpAllocEnv); err != nil {
		return nil, err
	}
	d.count(func(s *Stats) { s.EnvAllocs++ })
	return &env{d: d}, nil
}

type env struct {
	d     *Driver
	freed bool
}

func (e *env) AllocConn() (core.ConnHandle, error) {
	if e.freed {
		return nil, diagSequence
	}
	if err := e.d.failure(OpAllocConn); err != nil {
		return nil, err
	}
	e.d.count(func(s *Stats) { s.ConnAllocs++ })
	return &conn{d: e.d}, nil
}

func (e *env) Free() error {
	e.d.count(func(s *Stats) { s.EnvFrees++ })
	if e.freed {
		return diagSequence
	}
	e.freed = true
	return e.d.failure(OpFreeEnv)
}

type conn struct {
	d         *Driver
	connected bool
	freed     bool
}

func (c *conn) Connect(_ context.Context, source, user, secret string) error {
	c.d.count(func(s *Stats) { s.Connects++ })
	if err := c.d.failure(OpConnect); err != nil {
		return err
	}
	if len(c.d.config.sources) > 0 && !c.d.config.sources[[3]string{source, user, secret}] {
		return diagNoSource
	}
	c.connected = true
	return nil
}

func (c *conn) DriverConnect(_ context.Context, connString string) error {
	c.d.count(func(s *Stats) { s.Connects++ })
	if err := c.d.failure(OpConnect); err != nil {
		return err
	}
	if len(c.d.config.connStrings) > 0 && !c.d.config.connStrings[connString] {
		return diagNoDSN
	}
	c.connected = true
	return nil
}

func (c *conn) AllocStmt() (core.StmtHandle, error) {
	if !c.connected {
		return nil, diagNotOpen
	}
	if err := c.d.failure(OpAllocStmt); err != nil {
		return nil, err
	}
	c.d.count(func(s *Stats) { s.StmtAllocs++ })
	return newStatement(c.d), nil
}

func (c *conn) Disconnect() error {
	c.d.count(func(s *Stats) { s.Disconnects++ })
	if !c.connected {
		return diagNotOpen
	}
	c.connected = false
	return c.d.failure(OpDisconnect)
}

func (c *conn) Free() error {
	c.d.count(func(s *Stats) { s.ConnFrees++ })
	if c.freed {
		return diagSequence
	}
	c.freed = true
	return c.d.failure(OpFreeConn)
}

// NewStatement returns a statement handle positioned on a table, without a
// connection. It is meant for exercising GetData consumers directly.
func NewStatement(table *Table) *Statement {
	d := NewDriver()
	s := newStatement(d)
	s.query = ""
	s.table = table
	return s
}

// Statement is a scripted statement handle.
type Statement struct {
	d       *Driver
	query   string
	table   *Table
	row     int
	offsets map[int]int
	freed   bool
	// GetData requests per column (1-based) for the current row
	requests map[int]int
}

func newStatement(d *Driver) *Statement {
	return &Statement{
		d:        d,
		row:      -1,
		offsets:  make(map[int]int),
		requests: make(map[int]int),
	}
}

// Requests returns the number of GetData calls made for a column of the
// current row.
func (s *Statement) Requests(column int) int {
	return s.requests[column]
}

func (s *Statement) ExecDirect(ctx context.Context, query string) error {
	if s.freed {
		return diagSequence
	}
	s.d.count(func(st *Stats) { st.Executions++ })

	if eff, ok := s.d.config.querySideEffects[query]; ok {
		if err := eff(ctx); err != nil {
			return fmt.Errorf("side effect error: %w", err)
		}
	}
	if err := s.d.failure(OpExecDirect); err != nil {
		return err
	}

	table, ok := s.d.config.tables[query]
	if !ok {
		return diagNoTable(query)
	}

	s.query = query
	s.table = table
	s.row = -1
	return nil
}

func (s *Statement) NumResultCols() (int, error) {
	if s.table == nil {
		return 0, diagSequence
	}
	if err := s.d.failure(OpNumResultCols); err != nil {
		return 0, err
	}
	return len(s.table.Columns), nil
}

func (s *Statement) DescribeCol(ordinal int) (*core.ColumnDescriptor, error) {
	if s.table == nil {
		return nil, diagSequence
	}
	if err := s.d.failure(OpDescribeCol); err != nil {
		return nil, err
	}
	if ordinal < 1 || ordinal > len(s.table.Columns) {
		return nil, diagBadColumn
	}
	desc := *s.table.Columns[ordinal-1]
	return &desc, nil
}

func (s *Statement) Fetch() error {
	s.d.count(func(st *Stats) { st.Fetches++ })
	if s.freed || s.table == nil {
		return diagSequence
	}

	next := s.row + 1
	if diag, ok := s.d.config.fetchFailures[s.query][next]; ok {
		return diag
	}
	if next >= len(s.table.Rows) {
		return core.ErrNoData
	}

	s.row = next
	s.offsets = make(map[int]int)
	s.requests = make(map[int]int)
	return nil
}

func (s *Statement) GetData(ordinal int, target core.CType, dst any) (core.Indicator, error) {
	s.d.count(func(st *Stats) { st.GetData++ })
	s.requests[ordinal]++

	if s.freed || s.table == nil || s.row < 0 || s.row >= len(s.table.Rows) {
		return 0, diagSequence
	}
	if diag, ok := s.d.config.getDataFailures[s.query][cell{row: s.row, column: ordinal}]; ok {
		return 0, diag
	}

	values := s.table.Rows[s.row]
	if ordinal < 1 || ordinal > len(values) {
		return 0, diagBadColumn
	}

	value := values[ordinal-1]
	if value == nil {
		return core.NullData, nil
	}

	if target == core.CChar {
		buf, ok := dst.([]byte)
		if !ok {
			return 0, fmt.Errorf("invalid buffer %T for %s", dst, target)
		}

		data := toBytes(value)
		offset := s.offsets[ordinal]
		if offset > 0 && offset >= len(data) {
			return 0, core.ErrNoData
		}

		n := copy(buf, data[offset:])
		s.offsets[ordinal] = offset + n
		return core.Indicator(n), nil
	}

	return convertFixed(value, target, dst)
}

func (s *Statement) Free() error {
	s.d.count(func(st *Stats) { st.StmtFrees++ })
	if s.freed {
		return diagSequence
	}
	s.freed = true
	return s.d.failure(OpFreeStmt)
}
