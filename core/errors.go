package core

import (
	"errors"
	"fmt"

	"github.com/kndndrj/dbeelink/core/host"
)

var (
	ErrInvalidHandle = errors.New("no such connection")
	ErrRegistryFull  = errors.New("cannot allocate new connections")
	ErrNoNextRow     = errors.New("no next row")
)

// ConnectionError is a failed foreign allocate or connect call.
type ConnectionError struct {
	Op   string
	Diag *Diagnostic
}

func (e *ConnectionError) Error() string {
	if e.Diag == nil {
		return fmt.Sprintf("unsuccessful %s call", e.Op)
	}
	return fmt.Sprintf("unsuccessful %s call: %s", e.Op, e.Diag)
}

func (e *ConnectionError) Unwrap() error {
	if e.Diag == nil {
		return nil
	}
	return e.Diag
}

// SchemaMismatchError reports the first remote column that cannot be produced
// as the expected host column. Ordinal is 0-based, -1 for a column count mismatch.
type SchemaMismatchError struct {
	Ordinal int
	Column  string
	Remote  SQLType
	Host    host.Type
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	if e.Ordinal < 0 {
		return "return and sql tuple descriptions are incompatible: " + e.Reason
	}
	return fmt.Sprintf("return and sql tuple descriptions are incompatible: field index %d (%q) input type %s output type %s: %s",
		e.Ordinal, e.Column, e.Remote, e.Host, e.Reason)
}

// QueryError is a failure while opening a statement. The statement handle has
// already been released when it is returned.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %s", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// FetchError is a foreign fetch failure in the middle of a result stream.
type FetchError struct {
	Diag *Diagnostic
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unsuccessful fetch call: %s", e.Diag)
}

func (e *FetchError) Unwrap() error {
	return e.Diag
}

// CoercionError is a failure converting one remote value to its host type.
// Ordinal is 0-based.
type CoercionError struct {
	Ordinal int
	Remote  SQLType
	Host    host.Type
	Err     error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field index %d: cannot convert %s to %s: %s", e.Ordinal, e.Remote, e.Host, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// NumericOverflowError is a NUMERIC/DECIMAL value whose integer part does not
// fit the target integer width.
type NumericOverflowError struct {
	Bits int
	Text string
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("too large decimal value for %d-bit integer: %q", e.Bits, e.Text)
}
