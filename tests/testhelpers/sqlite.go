package testhelpers

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kndndrj/dbeelink/core"
)

// NewSQLiteDatabase creates a seeded sqlite database file in dir and
// describes it as the data source named name.
func NewSQLiteDatabase(dir, name string) (*core.SourceParams, error) {
	seedFile, err := GetTestDataFile("sqlite_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	seed, err := io.ReadAll(seedFile)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.Exec(string(seed)); err != nil {
		return nil, fmt.Errorf("seeding %s: %w", path, err)
	}

	return &core.SourceParams{
		Name:   name,
		Driver: "sqlite",
		URL:    path,
	}, nil
}
