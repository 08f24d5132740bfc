//go:build cgo && ((darwin && (amd64 || arm64)) || (linux && (amd64 || arm64 || riscv64)))

package adapters

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&Duck{}, "duck", "duckdb")
}

var _ Adapter = (*Duck)(nil)

type Duck struct{}

func (*Duck) Connect(url string) (*builders.Client, error) {
	db, err := sql.Open("duckdb", url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to duckdb database: %v", err)
	}

	return builders.NewClient(db,
		builders.WithCustomTypeProcessor("uuid", duckUUID),
		builders.WithTypeTag("hugeint", core.SQLNumeric),
		builders.WithTypeTag("ubigint", core.SQLNumeric),
		builders.WithTypeTag("uinteger", core.SQLBigint),
		builders.WithTypeTag("usmallint", core.SQLInteger),
		builders.WithTypeTag("utinyint", core.SQLSmallint),
		builders.WithTypeTag("timestamp_s", core.SQLTimestamp),
		builders.WithTypeTag("timestamp_ms", core.SQLTimestamp),
		builders.WithTypeTag("timestamp_ns", core.SQLTimestamp),
		builders.WithTypeTag("timestamp with time zone", core.SQLTimestamp),
		builders.WithTypeTag("uuid", core.SQLVarchar),
	), nil
}

// duckUUID renders 16 byte uuid values as text.
func duckUUID(a any) any {
	if b, ok := a.([]byte); ok && len(b) == 16 {
		return uuid.UUID(b).String()
	}

	v := reflect.ValueOf(a)
	if v.Kind() != reflect.Array || v.Len() != 16 || v.Type().Elem().Kind() != reflect.Uint8 {
		return a
	}

	var id uuid.UUID
	reflect.Copy(reflect.ValueOf(id[:]), v)
	return id.String()
}
