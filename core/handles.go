package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoData is returned by StmtHandle.Fetch when the result set is exhausted
// and by StmtHandle.GetData once a value has been fully transferred.
var ErrNoData = errors.New("no data")

type (
	// Driver is the entry point of a call-level database interface.
	Driver interface {
		AllocEnv() (EnvHandle, error)
	}

	// EnvHandle is a foreign environment handle.
	EnvHandle interface {
		AllocConn() (ConnHandle, error)
		Free() error
	}

	// ConnHandle is a foreign connection handle. It is usable for statements
	// only after a successful Connect or DriverConnect.
	ConnHandle interface {
		Connect(ctx context.Context, source, user, secret string) error
		DriverConnect(ctx context.Context, connString string) error
		AllocStmt() (StmtHandle, error)
		Disconnect() error
		Free() error
	}

	// StmtHandle is a foreign statement handle. Column ordinals are 1-based.
	StmtHandle interface {
		ExecDirect(ctx context.Context, query string) error
		NumResultCols() (int, error)
		DescribeCol(ordinal int) (*ColumnDescriptor, error)
		// Fetch advances to the next row and returns ErrNoData at the end.
		Fetch() error
		// GetData transfers the value of a column of the current row into dst.
		//
		//	CShort  -> *int16
		//	CLong   -> *int32
		//	CBigint -> *int64
		//	CFloat  -> *float32
		//	CDouble -> *float64
		//	CChar   -> []byte (one chunk, repeated calls return the next piece)
		GetData(ordinal int, target CType, dst any) (Indicator, error)
		Free() error
	}
)

// Indicator is the length/null indicator returned by GetData.
type Indicator int64

// NullData marks a SQL NULL value.
const NullData Indicator = -1

// CType is the buffer type GetData converts a value to.
type CType int

const (
	CChar CType = iota
	CShort
	CLong
	CBigint
	CFloat
	CDouble
)

func (t CType) String() string {
	switch t {
	case CChar:
		return "SQL_C_CHAR"
	case CShort:
		return "SQL_C_SSHORT"
	case CLong:
		return "SQL_C_SLONG"
	case CBigint:
		return "SQL_C_SBIGINT"
	case CFloat:
		return "SQL_C_FLOAT"
	case CDouble:
		return "SQL_C_DOUBLE"
	default:
		return fmt.Sprintf("SQL_C_UNKNOWN(%d)", int(t))
	}
}

// SQLType is the remote type tag reported by DescribeCol.
type SQLType int

const (
	SQLUnknown SQLType = iota
	SQLChar
	SQLVarchar
	SQLLongVarchar
	SQLNumeric
	SQLDecimal
	SQLSmallint
	SQLInteger
	SQLBigint
	SQLFloat
	SQLReal
	SQLDouble
	SQLDate
	SQLTime
	SQLTimestamp
	SQLBit
	SQLBinary
	SQLVarbinary
	SQLLongVarbinary
)

var sqlTypeNames = map[SQLType]string{
	SQLUnknown:       "UNKNOWN",
	SQLChar:          "CHAR",
	SQLVarchar:       "VARCHAR",
	SQLLongVarchar:   "LONGVARCHAR",
	SQLNumeric:       "NUMERIC",
	SQLDecimal:       "DECIMAL",
	SQLSmallint:      "SMALLINT",
	SQLInteger:       "INTEGER",
	SQLBigint:        "BIGINT",
	SQLFloat:         "FLOAT",
	SQLReal:          "REAL",
	SQLDouble:        "DOUBLE",
	SQLDate:          "DATE",
	SQLTime:          "TIME",
	SQLTimestamp:     "TIMESTAMP",
	SQLBit:           "BIT",
	SQLBinary:        "BINARY",
	SQLVarbinary:     "VARBINARY",
	SQLLongVarbinary: "LONGVARBINARY",
}

func (t SQLType) String() string {
	name, ok := sqlTypeNames[t]
	if !ok {
		return sqlTypeNames[SQLUnknown]
	}
	return name
}

type Nullability int

const (
	NullableUnknown Nullability = iota
	NoNulls
	Nullable
)

// ColumnDescriptor describes one remote result column.
type ColumnDescriptor struct {
	Name     string
	Type     SQLType
	Size     int64
	Decimals int
	Nullable Nullability
}

// Diagnostic is the diagnostic record of a failed foreign call.
type Diagnostic struct {
	State   string
	Native  int
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[%s] [%d] [%s]", d.State, d.Native, d.Message)
}

// diagnose extracts the diagnostic record of a foreign failure.
func diagnose(err error) *Diagnostic {
	if err == nil {
		return nil
	}
	var diag *Diagnostic
	if errors.As(err, &diag) {
		return diag
	}
	return &Diagnostic{
		State:   "HY000",
		Message: err.Error(),
	}
}
