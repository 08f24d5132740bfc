package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	tcmssql "github.com/testcontainers/testcontainers-go/modules/mssql"

	"github.com/kndndrj/dbeelink/core"
)

const (
	SQLServerUser = "sa"
	// no characters that need escaping in a url
	SQLServerPassword = "Dbee_Link1x"
)

type SQLServerContainer struct {
	*tcmssql.MSSQLServerContainer
	// Source is a catalog entry whose url expects the credentials
	Source *core.SourceParams
}

// NewSQLServerContainer starts a seeded sql server container and describes
// it as the data source named name.
func NewSQLServerContainer(ctx context.Context, name string) (*SQLServerContainer, error) {
	seedFile, err := GetTestDataFile("sqlserver_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := tcmssql.Run(
		ctx,
		"mcr.microsoft.com/mssql/server:2022-CU17-ubuntu-22.04",
		tcmssql.WithAcceptEULA(),
		tcmssql.WithPassword(SQLServerPassword),
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ContainerRequest: tc.ContainerRequest{
				Files: []tc.ContainerFile{
					{
						Reader:            seedFile,
						ContainerFilePath: seedFile.Name(),
						FileMode:          0o644,
					},
				},
			},
			ProviderType: GetContainerProvider(),
		}),
		tc.WithAfterReadyCommand(
			tc.NewRawCommand([]string{
				"/opt/mssql-tools18/bin/sqlcmd",
				"-S", "localhost",
				"-U", SQLServerUser,
				"-P", SQLServerPassword,
				"-No",
				"-i", seedFile.Name(),
			}),
		),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "1433/tcp")
	if err != nil {
		return nil, err
	}

	return &SQLServerContainer{
		MSSQLServerContainer: ctr,
		Source: &core.SourceParams{
			Name:   name,
			Driver: "mssql",
			URL: fmt.Sprintf("sqlserver://{{ .User }}:{{ .Password }}@%s:%s?database=master&encrypt=false&TrustServerCertificate=true",
				host, port.Port()),
		},
	}, nil
}
