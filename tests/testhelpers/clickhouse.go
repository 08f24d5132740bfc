package testhelpers

import (
	"context"
	"fmt"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/kndndrj/dbeelink/core"
)

const (
	ClickHouseUser     = "admin"
	ClickHousePassword = "secret"
)

type ClickHouseContainer struct {
	*clickhouse.ClickHouseContainer
	// Source is a catalog entry whose url expects the credentials
	Source *core.SourceParams
}

// NewClickHouseContainer starts a seeded clickhouse container and describes
// it as the data source named name.
func NewClickHouseContainer(ctx context.Context, name string) (*ClickHouseContainer, error) {
	seedFile, err := GetTestDataFile("clickhouse_seed.sql")
	if err != nil {
		return nil, err
	}
	defer seedFile.Close()

	ctr, err := clickhouse.Run(
		ctx,
		"clickhouse/clickhouse-server:25.1-alpine",
		tc.CustomizeRequest(tc.GenericContainerRequest{
			ProviderType: GetContainerProvider(),
		}),
		clickhouse.WithUsername(ClickHouseUser),
		clickhouse.WithPassword(ClickHousePassword),
		clickhouse.WithDatabase("dev"),
		clickhouse.WithInitScripts(seedFile.Name()),
	)
	if err != nil {
		return nil, err
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return nil, err
	}

	return &ClickHouseContainer{
		ClickHouseContainer: ctr,
		Source: &core.SourceParams{
			Name:   name,
			Driver: "clickhouse",
			URL:    fmt.Sprintf("clickhouse://{{ .User }}:{{ .Password }}@%s:%s/dev", host, port.Port()),
		},
	}, nil
}
