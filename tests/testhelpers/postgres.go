package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	tcpsql "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/kndndrj/dbeelink/core"
)

const (
	PostgresUser     = "dbeelink"
	PostgresPassword = "secret"
)

type PostgresContainer struct {
	*tcpsql.PostgresContainer
	// ConnURL carries the credentials
	ConnURL string
	// Source is a catalog entry whose url expects the credentials
	Source *core.SourceParams
}

// NewPostgresContainer starts a seeded postgres container and describes it
// as the data source named name.
func NewPostgresContainer(ctx context.Context, name string) (*PostgresContainer, error) {
	seedFile, err := GetTestDataFile("postgres_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcpsql.Run(
		ctx,
		"postgres:16-alpine",
		tcpsql.BasicWaitStrategies(),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcpsql.WithInitScripts(seedFile.Name()),
		tcpsql.WithDatabase("dev"),
		tcpsql.WithUsername(PostgresUser),
		tcpsql.WithPassword(PostgresPassword),
	)
	if err != nil {
		return nil, err
	}

	connURL, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		PostgresContainer: ctr,
		ConnURL:           connURL,
		Source: &core.SourceParams{
			Name:   name,
			Driver: "postgres",
			URL:    fmt.Sprintf("postgres://{{ .User }}:{{ .Password }}@%s:%s/dev?sslmode=disable", host, port.Port()),
		},
	}, nil
}
