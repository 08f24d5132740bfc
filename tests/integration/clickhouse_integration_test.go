package integration

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
	"github.com/kndndrj/dbeelink/handler"
	th "github.com/kndndrj/dbeelink/tests/testhelpers"
)

// ClickHouseTestSuite is the test suite for the clickhouse adapter.
type ClickHouseTestSuite struct {
	tsuite.Suite
	ctr *th.ClickHouseContainer
	ctx context.Context
	h   *handler.Handler
}

func TestClickHouseTestSuite(t *testing.T) {
	tsuite.Run(t, new(ClickHouseTestSuite))
}

func (suite *ClickHouseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewClickHouseContainer(suite.ctx, "test-clickhouse")
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.h = th.NewHandler([]*core.SourceParams{ctr.Source})
}

func (suite *ClickHouseTestSuite) TearDownSuite() {
	suite.h.Close()
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *ClickHouseTestSuite) query(query, shape string) (core.ResultStream, error) {
	desc, err := host.ParseTupleDesc(shape)
	suite.Require().NoError(err)

	return suite.h.QueryCredentials(suite.ctx, "test-clickhouse", th.ClickHouseUser, th.ClickHousePassword, query, desc)
}

func (suite *ClickHouseTestSuite) TestShouldReturnTypedRows() {
	t := suite.T()

	stream, err := suite.query(
		"SELECT id, username, active FROM test_table ORDER BY id",
		"id int4, username text, active bool",
	)
	require.NoError(t, err)

	want := "id,username,active\n" +
		"1,john_doe,t\n" +
		"2,jane_smith,f\n" +
		"3,bob_wilson,\n"
	assert.Equal(t, want, th.CSV(t, stream))
}

func (suite *ClickHouseTestSuite) TestShouldTruncateDecimals() {
	t := suite.T()

	stream, err := suite.query("SELECT id, balance FROM test_table ORDER BY id", "id int8, balance int4")
	require.NoError(t, err)

	assert.Equal(t, []core.Row{
		{int64(1), int32(1050)},
		{int64(2), int32(-3)},
		{int64(3), int32(0)},
	}, drain(t, stream))
}

func (suite *ClickHouseTestSuite) TestShouldErrorInvalidQuery() {
	t := suite.T()

	_, err := suite.query("invalid sql", "n int4")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "42000", diag.State)
	assert.Equal(t, 62, diag.Native)
}

func (suite *ClickHouseTestSuite) TestShouldErrorWrongCredentials() {
	t := suite.T()

	_, err := suite.h.Connect(suite.ctx, "test-clickhouse", th.ClickHouseUser, "wrong")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "08001", diag.State)
}
