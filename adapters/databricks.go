package adapters

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"
	dbsqlerr "github.com/databricks/databricks-sql-go/errors"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&Databricks{}, "databricks")
}

var (
	_ Adapter   = (*Databricks)(nil)
	_ Diagnoser = (*Databricks)(nil)
)

type Databricks struct{}

// Connect opens a DSN in the format of:
//
// token:[my_token]@[hostname]:[port]/[endpoint http path]?param=value
//
// requires the 'catalog' parameter to be set.
//
// see https://github.com/databricks/databricks-sql-go for more information.
func (*Databricks) Connect(connectionURL string) (*builders.Client, error) {
	parsedURL, err := url.Parse(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w: ", err)
	}

	if parsedURL.Query().Get("catalog") == "" {
		return nil, errors.New("required parameter '?catalog=<catalog>' is missing")
	}

	db, err := sql.Open("databricks", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("invalid databricks connection string: %w", err)
	}

	return builders.NewClient(db,
		builders.WithTypeTag("float", core.SQLReal),
		builders.WithTypeTag("interval", core.SQLVarchar),
		builders.WithTypeTag("void", core.SQLUnknown),
	), nil
}

// Diagnose reports the SQLSTATE of a failed statement execution.
func (*Databricks) Diagnose(err error) (*core.Diagnostic, bool) {
	var execErr dbsqlerr.DBExecutionError
	if !errors.As(err, &execErr) {
		return nil, false
	}

	return &core.Diagnostic{
		State:   execErr.SqlState(),
		Message: execErr.Error(),
	}, true
}
