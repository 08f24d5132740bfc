package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kndndrj/dbeelink/core/host"
)

type StatementState int

const (
	StatementOpening StatementState = iota
	StatementStreaming
	StatementExhausted
	StatementFailed
)

func (s StatementState) String() string {
	switch s {
	case StatementOpening:
		return "opening"
	case StatementStreaming:
		return "streaming"
	case StatementExhausted:
		return "exhausted"
	case StatementFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type statementConfig struct {
	valueChunk int
	parser     *host.Parser
	logger     Logger
}

type StatementOption func(*statementConfig)

// WithValueChunk sets the transfer size for variable-length values.
func WithValueChunk(size int) StatementOption {
	return func(c *statementConfig) {
		c.valueChunk = size
	}
}

func WithParser(parser *host.Parser) StatementOption {
	return func(c *statementConfig) {
		c.parser = parser
	}
}

func WithLogger(logger Logger) StatementOption {
	return func(c *statementConfig) {
		c.logger = logger
	}
}

// Statement is one remote query bound to the row shape the caller expects.
// It produces one host row per Next call and owns its statement handle until
// the result is exhausted, a fetch or coercion fails, or it is closed.
type Statement struct {
	query   string
	shape   host.TupleDesc
	stmt    StmtHandle
	columns []*ColumnDescriptor
	coercer *Coercer
	log     Logger

	state StatementState
	// a row has been fetched and not yet returned by Next
	fetched bool
	// fetch failure waiting to be returned by Next
	pending error
	rows    int

	release sync.Once
}

// OpenStatement allocates a statement on conn, executes query and checks the
// remote columns against shape. On failure the statement handle is already
// released and the returned error is a *QueryError.
func OpenStatement(ctx context.Context, conn ConnHandle, query string, shape host.TupleDesc, opts ...StatementOption) (*Statement, error) {
	cfg := &statementConfig{
		valueChunk: DefaultValueChunk,
		logger:     NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	stmt, err := conn.AllocStmt()
	if err != nil {
		return nil, &QueryError{
			Query: query,
			Err:   &ConnectionError{Op: "allocate statement", Diag: diagnose(err)},
		}
	}

	s := &Statement{
		query:   query,
		shape:   shape,
		stmt:    stmt,
		coercer: NewCoercer(cfg.parser, cfg.valueChunk),
		log:     cfg.logger,
		state:   StatementOpening,
	}

	if err := s.open(ctx); err != nil {
		s.fail()
		return nil, &QueryError{Query: query, Err: err}
	}

	s.state = StatementStreaming
	return s, nil
}

func (s *Statement) open(ctx context.Context) error {
	if err := s.stmt.ExecDirect(ctx, s.query); err != nil {
		return fmt.Errorf("unsuccessful execute call: %w", diagnose(err))
	}

	n, err := s.stmt.NumResultCols()
	if err != nil {
		return fmt.Errorf("unsuccessful number of result columns call: %w", diagnose(err))
	}

	s.columns = make([]*ColumnDescriptor, n)
	for i := range s.columns {
		col, err := s.stmt.DescribeCol(i + 1)
		if err != nil {
			return fmt.Errorf("unsuccessful describe column call: %w", diagnose(err))
		}
		s.columns[i] = col
	}

	if err := CheckCompatibility(s.columns, s.shape); err != nil {
		s.log.Warnf("%s", err)
		return err
	}

	return nil
}

func (s *Statement) fail() {
	s.state = StatementFailed
	s.releaseHandle()
}

func (s *Statement) releaseHandle() {
	s.release.Do(func() {
		if err := s.stmt.Free(); err != nil {
			s.log.Warnf("unsuccessful free statement call: %s", diagnose(err))
		}
	})
}

func (s *Statement) Meta() *Meta {
	return &Meta{
		Shape: s.shape,
	}
}

func (s *Statement) Header() Header {
	return s.shape.Names()
}

// Columns returns the remote column descriptors.
func (s *Statement) Columns() []*ColumnDescriptor {
	return s.columns
}

func (s *Statement) State() StatementState {
	return s.state
}

// RowCount returns the number of rows returned so far.
func (s *Statement) RowCount() int {
	return s.rows
}

// HasNext fetches the next remote row if none is waiting. It never calls the
// driver once the statement is exhausted or failed.
func (s *Statement) HasNext() bool {
	switch s.state {
	case StatementStreaming:
	case StatementFailed:
		return s.pending != nil
	default:
		return false
	}

	if s.fetched {
		return true
	}

	err := s.stmt.Fetch()
	if errors.Is(err, ErrNoData) {
		s.state = StatementExhausted
		s.releaseHandle()
		return false
	}
	if err != nil {
		s.pending = &FetchError{Diag: diagnose(err)}
		s.fail()
		return true
	}

	s.fetched = true
	return true
}

// Next returns the next row coerced to the statement's shape.
func (s *Statement) Next() (Row, error) {
	if !s.HasNext() {
		return nil, ErrNoNextRow
	}
	if s.pending != nil {
		err := s.pending
		s.pending = nil
		return nil, err
	}

	s.fetched = false

	row := make(Row, len(s.shape))
	for i, attr := range s.shape {
		value, isNull, err := s.coercer.Coerce(s.stmt, i+1, s.columns[i].Type, attr)
		if err != nil {
			s.fail()
			return nil, err
		}
		if !isNull {
			row[i] = value
		}
	}

	s.rows++
	return row, nil
}

// Close releases the statement handle if it is still held. A statement closed
// while streaming is treated as exhausted.
func (s *Statement) Close() {
	if s.state == StatementStreaming || s.state == StatementOpening {
		s.state = StatementExhausted
	}
	s.fetched = false
	s.releaseHandle()
}
