package adapters

import (
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&Clickhouse{}, "clickhouse")
}

var (
	_ Adapter   = (*Clickhouse)(nil)
	_ Diagnoser = (*Clickhouse)(nil)
)

type Clickhouse struct{}

// clickhouseTags overrides the default table where ClickHouse names collide
// with other engines: Int8 is one byte wide here.
var clickhouseTags = map[string]core.SQLType{
	"Int8":        core.SQLSmallint,
	"Int16":       core.SQLSmallint,
	"Int32":       core.SQLInteger,
	"Int64":       core.SQLBigint,
	"UInt8":       core.SQLSmallint,
	"UInt16":      core.SQLInteger,
	"UInt32":      core.SQLBigint,
	"UInt64":      core.SQLNumeric,
	"Int128":      core.SQLNumeric,
	"Int256":      core.SQLNumeric,
	"UInt128":     core.SQLNumeric,
	"UInt256":     core.SQLNumeric,
	"Float32":     core.SQLReal,
	"Float64":     core.SQLDouble,
	"FixedString": core.SQLChar,
	"Date32":      core.SQLDate,
	"DateTime64":  core.SQLTimestamp,
	"UUID":        core.SQLVarchar,
	"Enum8":       core.SQLVarchar,
	"Enum16":      core.SQLVarchar,
	"IPv4":        core.SQLVarchar,
	"IPv6":        core.SQLVarchar,
}

func (*Clickhouse) Connect(url string) (*builders.Client, error) {
	options, err := clickhouse.ParseDSN(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w", err)
	}

	opts := make([]builders.ClientOption, 0, len(clickhouseTags)+1)
	opts = append(opts, builders.WithCustomTypeProcessor("json", compactJSON))
	for typ, tag := range clickhouseTags {
		opts = append(opts, builders.WithTypeTag(typ, tag))
	}

	return builders.NewClient(clickhouse.OpenDB(options), opts...), nil
}

func (*Clickhouse) Diagnose(err error) (*core.Diagnostic, bool) {
	var exc *clickhouse.Exception
	if !errors.As(err, &exc) {
		return nil, false
	}

	return &core.Diagnostic{
		Native:  int(exc.Code),
		Message: exc.Message,
	}, true
}
