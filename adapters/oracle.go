package adapters

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/sijms/go-ora/v2"
	"github.com/sijms/go-ora/v2/network"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&Oracle{}, "oracle")
}

var (
	_ Adapter   = (*Oracle)(nil)
	_ Diagnoser = (*Oracle)(nil)
)

type Oracle struct{}

func (*Oracle) Connect(url string) (*builders.Client, error) {
	db, err := sql.Open("oracle", url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to oracle database: %v", err)
	}

	return builders.NewClient(db,
		builders.WithTypeTag("long", core.SQLLongVarchar),
		builders.WithTypeTag("raw", core.SQLVarbinary),
		builders.WithTypeTag("long raw", core.SQLLongVarbinary),
		builders.WithTypeTag("binary_float", core.SQLReal),
		builders.WithTypeTag("binary_double", core.SQLDouble),
		builders.WithTypeTag("timestamp with time zone", core.SQLTimestamp),
		builders.WithTypeTag("timestamp with local time zone", core.SQLTimestamp),
		builders.WithTypeTag("rowid", core.SQLVarchar),
	), nil
}

// Diagnose reports the ORA- error number.
func (*Oracle) Diagnose(err error) (*core.Diagnostic, bool) {
	var oraErr *network.OracleError
	if !errors.As(err, &oraErr) {
		return nil, false
	}

	return &core.Diagnostic{
		Native:  oraErr.ErrCode,
		Message: oraErr.ErrMsg,
	}, true
}
