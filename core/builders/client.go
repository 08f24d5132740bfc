package builders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kndndrj/dbeelink/core"
)

// default sql client used by other specific implementations
type Client struct {
	db             *sql.DB
	typeProcessors map[string]func(any) any
	typeTags       map[string]core.SQLType
}

func NewClient(db *sql.DB, opts ...ClientOption) *Client {
	config := clientConfig{
		typeProcessors: make(map[string]func(any) any),
		typeTags:       make(map[string]core.SQLType),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Client{
		db:             db,
		typeProcessors: config.typeProcessors,
		typeTags:       config.typeTags,
	}
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) getTypeProcessor(typ string) func(any) any {
	proc, ok := c.typeProcessors[strings.ToLower(typ)]
	if ok {
		return proc
	}

	return func(val any) any {
		return val
	}
}

// Query executes a query and returns a row cursor.
func (c *Client) Query(ctx context.Context, query string) (*Rows, error) {
	dbRows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	dbCols, err := dbRows.ColumnTypes()
	if err != nil {
		_ = dbRows.Close()
		return nil, fmt.Errorf("dbRows.ColumnTypes: %w", err)
	}

	columns := make([]*core.ColumnDescriptor, len(dbCols))
	processors := make([]func(any) any, len(dbCols))
	for i, ct := range dbCols {
		columns[i] = DescribeColumn(ct, c.typeTags)
		processors[i] = c.getTypeProcessor(ct.DatabaseTypeName())
	}

	return &Rows{
		rows:       dbRows,
		columns:    columns,
		processors: processors,
	}, nil
}

// Rows is a forward-only cursor over a query result.
type Rows struct {
	rows       *sql.Rows
	columns    []*core.ColumnDescriptor
	processors []func(any) any
	current    []any
}

func (r *Rows) Columns() []*core.ColumnDescriptor {
	return r.columns
}

// Next advances to the next row and scans it. It returns false at the end of
// the result.
func (r *Rows) Next() (bool, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return false, err
		}
		return false, nil
	}

	values := make([]any, len(r.columns))
	pointers := make([]any, len(r.columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := r.rows.Scan(pointers...); err != nil {
		return false, err
	}

	for i := range values {
		values[i] = r.processors[i](values[i])
	}

	r.current = values
	return true, nil
}

// Value returns the value of a column (0-based) of the current row.
func (r *Rows) Value(i int) (any, error) {
	if r.current == nil {
		return nil, errors.New("no current row")
	}
	if i < 0 || i >= len(r.current) {
		return nil, fmt.Errorf("column index %d out of range", i)
	}
	return r.current[i], nil
}

func (r *Rows) Close() error {
	r.current = nil
	return r.rows.Close()
}
