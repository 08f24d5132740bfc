package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/kndndrj/dbeelink/core"
)

const (
	MySQLUser     = "dbeelink"
	MySQLPassword = "secret"
)

type MySQLContainer struct {
	*tcmysql.MySQLContainer
	// Source is a catalog entry whose url expects the credentials
	Source *core.SourceParams
}

// NewMySQLContainer starts a seeded mysql container and describes it as the
// data source named name.
func NewMySQLContainer(ctx context.Context, name string) (*MySQLContainer, error) {
	seedFile, err := GetTestDataFile("mysql_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcmysql.Run(
		ctx,
		"mysql:8.4",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		tcmysql.WithDatabase("dev"),
		tcmysql.WithUsername(MySQLUser),
		tcmysql.WithPassword(MySQLPassword),
		tcmysql.WithScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "3306/tcp")
	if err != nil {
		return nil, err
	}

	return &MySQLContainer{
		MySQLContainer: ctr,
		Source: &core.SourceParams{
			Name:   name,
			Driver: "mysql",
			URL:    fmt.Sprintf("{{ .User }}:{{ .Password }}@tcp(%s:%s)/dev?tls=skip-verify", host, port.Port()),
		},
	}, nil
}
