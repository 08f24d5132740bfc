package adapters

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	nurl "net/url"

	"github.com/lib/pq"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&Postgres{}, "postgres", "postgresql", "pg")
}

var (
	_ Adapter   = (*Postgres)(nil)
	_ Diagnoser = (*Postgres)(nil)
)

type Postgres struct{}

func (p *Postgres) Connect(url string) (*builders.Client, error) {
	u, err := nurl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse db connection string: %w: ", err)
	}

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to postgres database: %w", err)
	}

	return builders.NewClient(db,
		builders.WithCustomTypeProcessor("json", compactJSON),
		builders.WithTypeTag("json", core.SQLLongVarchar),
		builders.WithTypeTag("jsonb", core.SQLLongVarchar),
		builders.WithTypeTag("xml", core.SQLLongVarchar),
		builders.WithTypeTag("uuid", core.SQLVarchar),
		builders.WithTypeTag("name", core.SQLVarchar),
		builders.WithTypeTag("interval", core.SQLVarchar),
		builders.WithTypeTag("money", core.SQLVarchar),
	), nil
}

// Diagnose reports the SQLSTATE of a server error.
func (*Postgres) Diagnose(err error) (*core.Diagnostic, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil, false
	}

	return &core.Diagnostic{
		State:   string(pqErr.Code),
		Message: pqErr.Message,
	}, true
}

// compactJSON strips the insignificant whitespace json columns keep.
func compactJSON(a any) any {
	b, ok := a.([]byte)
	if !ok {
		return a
	}

	var out bytes.Buffer
	if err := json.Compact(&out, b); err != nil {
		return a
	}
	return out.Bytes()
}
