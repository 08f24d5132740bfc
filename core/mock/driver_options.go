package mock

import (
	"context"

	"github.com/kndndrj/dbeelink/core"
)

// Op names a foreign call that can be made to fail.
type Op string

const (
	OpAllocEnv      Op = "alloc_env"
	OpAllocConn     Op = "alloc_conn"
	OpConnect       Op = "connect"
	OpAllocStmt     Op = "alloc_stmt"
	OpExecDirect    Op = "exec_direct"
	OpNumResultCols Op = "num_result_cols"
	OpDescribeCol   Op = "describe_col"
	OpDisconnect    Op = "disconnect"
	OpFreeConn      Op = "free_conn"
	OpFreeEnv       Op = "free_env"
	OpFreeStmt      Op = "free_stmt"
)

type cell struct {
	row    int
	column int
}

type driverConfig struct {
	tables           map[string]*Table
	querySideEffects map[string]func(context.Context) error
	sources          map[[3]string]bool
	connStrings      map[string]bool
	failures         map[Op]*core.Diagnostic
	fetchFailures    map[string]map[int]*core.Diagnostic
	getDataFailures  map[string]map[cell]*core.Diagnostic
}

type DriverOption func(*driverConfig)

// DriverWithTable registers the result of a query.
func DriverWithTable(query string, table *Table) DriverOption {
	return func(c *driverConfig) {
		_, ok := c.tables[query]
		if ok {
			panic("table already registered for query: " + query)
		}

		c.tables[query] = table
	}
}

// DriverWithQuerySideEffect runs a function when the query is executed. A
// returned error fails the execution.
func DriverWithQuerySideEffect(query string, sideEffect func(context.Context) error) DriverOption {
	return func(c *driverConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

// DriverWithSource restricts Connect to the registered credentials.
// Without any registered source every Connect succeeds.
func DriverWithSource(source, user, secret string) DriverOption {
	return func(c *driverConfig) {
		c.sources[[3]string{source, user, secret}] = true
	}
}

// DriverWithConnString restricts DriverConnect to the registered strings.
// Without any registered string every DriverConnect succeeds.
func DriverWithConnString(connString string) DriverOption {
	return func(c *driverConfig) {
		c.connStrings[connString] = true
	}
}

// DriverWithFailure makes every call of op fail with diag.
func DriverWithFailure(op Op, diag *core.Diagnostic) DriverOption {
	return func(c *driverConfig) {
		c.failures[op] = diag
	}
}

// DriverWithFetchFailure makes the fetch of row (0-based) of the query fail.
func DriverWithFetchFailure(query string, row int, diag *core.Diagnostic) DriverOption {
	return func(c *driverConfig) {
		if c.fetchFailures[query] == nil {
			c.fetchFailures[query] = make(map[int]*core.Diagnostic)
		}
		c.fetchFailures[query][row] = diag
	}
}

// DriverWithGetDataFailure makes GetData of row (0-based) and column (1-based)
// of the query fail.
func DriverWithGetDataFailure(query string, row, column int, diag *core.Diagnostic) DriverOption {
	return func(c *driverConfig) {
		if c.getDataFailures[query] == nil {
			c.getDataFailures[query] = make(map[cell]*core.Diagnostic)
		}
		c.getDataFailures[query][cell{row: row, column: column}] = diag
	}
}
