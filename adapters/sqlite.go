//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// Register client
func init() {
	_ = register(&SQLite{}, "sqlite", "sqlite3")
}

var (
	_ Adapter   = (*SQLite)(nil)
	_ Diagnoser = (*SQLite)(nil)
)

type SQLite struct{}

func (*SQLite) Connect(url string) (*builders.Client, error) {
	db, err := sql.Open("sqlite", url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to sqlite database: %v", err)
	}

	return builders.NewClient(db), nil
}

func (*SQLite) Diagnose(err error) (*core.Diagnostic, bool) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return nil, false
	}

	return &core.Diagnostic{
		Native:  liteErr.Code(),
		Message: liteErr.Error(),
	}, true
}
