package adapters

import (
	"database/sql"
	"fmt"
	nurl "net/url"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// init registers the Redshift adapter. Redshift speaks the postgres wire
// protocol and reports postgres error codes.
func init() {
	_ = register(&Redshift{}, "redshift")
}

var (
	_ Adapter   = (*Redshift)(nil)
	_ Diagnoser = (*Redshift)(nil)
)

type Redshift struct {
	Postgres
}

func (r *Redshift) Connect(rawURL string) (*builders.Client, error) {
	connURL, err := nurl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if connURL.Scheme != "postgres" && connURL.Scheme != "postgresql" && connURL.Scheme != "redshift" {
		return nil, fmt.Errorf("unsupported scheme %q", connURL.Scheme)
	}
	connURL.Scheme = "postgres"

	db, err := sql.Open("postgres", connURL.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to redshift: %w", err)
	}

	return builders.NewClient(db,
		builders.WithCustomTypeProcessor("super", compactJSON),
		builders.WithTypeTag("super", core.SQLLongVarchar),
		builders.WithTypeTag("varbyte", core.SQLVarbinary),
		builders.WithTypeTag("name", core.SQLVarchar),
		builders.WithTypeTag("interval", core.SQLVarchar),
	), nil
}
