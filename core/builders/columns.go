package builders

import (
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/kndndrj/dbeelink/core"
)

// defaultTypeTags maps database type names, as reported by
// sql.ColumnType.DatabaseTypeName, to remote type tags.
var defaultTypeTags = map[string]core.SQLType{
	"CHAR":      core.SQLChar,
	"BPCHAR":    core.SQLChar,
	"NCHAR":     core.SQLChar,
	"CHARACTER": core.SQLChar,

	"VARCHAR":   core.SQLVarchar,
	"NVARCHAR":  core.SQLVarchar,
	"VARCHAR2":  core.SQLVarchar,
	"NVARCHAR2": core.SQLVarchar,

	"TEXT":       core.SQLLongVarchar,
	"NTEXT":      core.SQLLongVarchar,
	"TINYTEXT":   core.SQLLongVarchar,
	"MEDIUMTEXT": core.SQLLongVarchar,
	"LONGTEXT":   core.SQLLongVarchar,
	"CLOB":       core.SQLLongVarchar,
	"NCLOB":      core.SQLLongVarchar,
	"STRING":     core.SQLLongVarchar,

	"NUMERIC": core.SQLNumeric,
	"NUMBER":  core.SQLNumeric,
	"DECIMAL": core.SQLDecimal,

	"TINYINT":   core.SQLSmallint,
	"SMALLINT":  core.SQLSmallint,
	"INT2":      core.SQLSmallint,
	"MEDIUMINT": core.SQLInteger,
	"INT":       core.SQLInteger,
	"INT4":      core.SQLInteger,
	"INTEGER":   core.SQLInteger,
	"BIGINT":    core.SQLBigint,
	"INT8":      core.SQLBigint,

	"FLOAT":            core.SQLFloat,
	"REAL":             core.SQLReal,
	"FLOAT4":           core.SQLReal,
	"DOUBLE":           core.SQLDouble,
	"FLOAT8":           core.SQLDouble,
	"DOUBLE PRECISION": core.SQLDouble,

	"DATE":           core.SQLDate,
	"TIME":           core.SQLTime,
	"TIMETZ":         core.SQLTime,
	"TIMESTAMP":      core.SQLTimestamp,
	"TIMESTAMPTZ":    core.SQLTimestamp,
	"DATETIME":       core.SQLTimestamp,
	"DATETIME2":      core.SQLTimestamp,
	"SMALLDATETIME":  core.SQLTimestamp,
	"DATETIMEOFFSET": core.SQLTimestamp,

	"BIT":     core.SQLBit,
	"BOOL":    core.SQLBit,
	"BOOLEAN": core.SQLBit,

	"BINARY":     core.SQLBinary,
	"VARBINARY":  core.SQLVarbinary,
	"BYTEA":      core.SQLLongVarbinary,
	"BLOB":       core.SQLLongVarbinary,
	"TINYBLOB":   core.SQLLongVarbinary,
	"MEDIUMBLOB": core.SQLLongVarbinary,
	"LONGBLOB":   core.SQLLongVarbinary,
	"IMAGE":      core.SQLLongVarbinary,
}

// normalizeTypeName upper-cases a type name and strips wrappers and
// modifiers: "Nullable(Int32)" -> "INT32", "decimal(10,2)" -> "DECIMAL".
func normalizeTypeName(typ string) string {
	name := strings.ToUpper(strings.TrimSpace(typ))

	for _, wrapper := range []string{"NULLABLE(", "LOWCARDINALITY("} {
		for strings.HasPrefix(name, wrapper) && strings.HasSuffix(name, ")") {
			name = name[len(wrapper) : len(name)-1]
		}
	}

	if open := strings.IndexByte(name, '('); open >= 0 {
		name = name[:open]
	}
	name = strings.TrimPrefix(name, "UNSIGNED ")
	name = strings.TrimSuffix(name, " UNSIGNED")

	return strings.Join(strings.Fields(name), " ")
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// tagFromScanType guesses the remote tag from the Go type the driver scans into.
func tagFromScanType(t reflect.Type) core.SQLType {
	if t == nil {
		return core.SQLUnknown
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return core.SQLTimestamp
	case t == bytesType:
		return core.SQLVarbinary
	}

	switch t.Kind() {
	case reflect.Bool:
		return core.SQLBit
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return core.SQLSmallint
	case reflect.Int32, reflect.Uint16:
		return core.SQLInteger
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return core.SQLBigint
	case reflect.Float32:
		return core.SQLReal
	case reflect.Float64:
		return core.SQLDouble
	case reflect.String:
		return core.SQLVarchar
	default:
		return core.SQLUnknown
	}
}

// DescribeColumn converts a database/sql column type to a remote column
// descriptor, resolving the type name through tags first.
func DescribeColumn(ct *sql.ColumnType, tags map[string]core.SQLType) *core.ColumnDescriptor {
	name := normalizeTypeName(ct.DatabaseTypeName())

	tag, ok := tags[name]
	if !ok {
		tag, ok = defaultTypeTags[name]
	}
	if !ok {
		tag = tagFromScanType(ct.ScanType())
	}

	desc := &core.ColumnDescriptor{
		Name: ct.Name(),
		Type: tag,
	}

	if length, ok := ct.Length(); ok {
		desc.Size = length
	}
	if precision, scale, ok := ct.DecimalSize(); ok {
		desc.Size = precision
		desc.Decimals = int(scale)
	}
	if nullable, ok := ct.Nullable(); ok {
		desc.Nullable = core.NoNulls
		if nullable {
			desc.Nullable = core.Nullable
		}
	}

	return desc
}
