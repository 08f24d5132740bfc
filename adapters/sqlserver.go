package adapters

import (
	"database/sql"
	"errors"
	"fmt"
	nurl "net/url"

	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	_ "github.com/microsoft/go-mssqldb/integratedauth/krb5"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&SQLServer{}, "sqlserver", "mssql")
}

var (
	_ Adapter   = (*SQLServer)(nil)
	_ Diagnoser = (*SQLServer)(nil)
)

type SQLServer struct{}

func (*SQLServer) Connect(url string) (*builders.Client, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w: ", err)
	}

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlserver database: %v", err)
	}

	return builders.NewClient(db,
		builders.WithCustomTypeProcessor("uniqueidentifier", mssqlUUID),
		builders.WithTypeTag("uniqueidentifier", core.SQLChar),
		builders.WithTypeTag("money", core.SQLDecimal),
		builders.WithTypeTag("smallmoney", core.SQLDecimal),
		builders.WithTypeTag("xml", core.SQLLongVarchar),
	), nil
}

// mssqlUUID renders uniqueidentifier bytes as text. The server stores the
// first three groups little endian.
func mssqlUUID(a any) any {
	b, ok := a.([]byte)
	if !ok || len(b) != 16 {
		return a
	}

	swapped := make([]byte, 16)
	copy(swapped, b)
	swapped[0], swapped[1], swapped[2], swapped[3] = b[3], b[2], b[1], b[0]
	swapped[4], swapped[5] = b[5], b[4]
	swapped[6], swapped[7] = b[7], b[6]

	id, err := uuid.FromBytes(swapped)
	if err != nil {
		return a
	}

	return id.String()
}

func (*SQLServer) Diagnose(err error) (*core.Diagnostic, bool) {
	var msErr mssql.Error
	if !errors.As(err, &msErr) {
		return nil, false
	}

	return &core.Diagnostic{
		Native:  int(msErr.Number),
		Message: msErr.Message,
	}, true
}
