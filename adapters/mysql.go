package adapters

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&MySQL{}, "mysql", "mariadb")
}

var (
	_ Adapter   = (*MySQL)(nil)
	_ Diagnoser = (*MySQL)(nil)
)

type MySQL struct{}

var mysqlParam = regexp.MustCompile(`[\?][\w]+=[\w-]+`)

func (*MySQL) Connect(url string) (*builders.Client, error) {
	// time values are scanned as time.Time instead of bytes
	sep := "?"
	if mysqlParam.MatchString(url) {
		sep = "&"
	}

	db, err := sql.Open("mysql", url+sep+"parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mysql database: %v", err)
	}

	return builders.NewClient(db,
		builders.WithTypeTag("year", core.SQLSmallint),
		builders.WithTypeTag("json", core.SQLLongVarchar),
		builders.WithTypeTag("enum", core.SQLVarchar),
		builders.WithTypeTag("set", core.SQLVarchar),
	), nil
}

// Diagnose reports the server error number. The driver does not always carry
// a SQLSTATE, the caller picks one.
func (*MySQL) Diagnose(err error) (*core.Diagnostic, bool) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil, false
	}

	return &core.Diagnostic{
		Native:  int(myErr.Number),
		Message: myErr.Message,
	}, true
}
