package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tsuite "github.com/stretchr/testify/suite"
	tc "github.com/testcontainers/testcontainers-go"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
	"github.com/kndndrj/dbeelink/handler"
	th "github.com/kndndrj/dbeelink/tests/testhelpers"
)

// MySQLTestSuite is the test suite for the mysql adapter.
type MySQLTestSuite struct {
	tsuite.Suite
	ctr *th.MySQLContainer
	ctx context.Context
	h   *handler.Handler
}

func TestMySQLTestSuite(t *testing.T) {
	tsuite.Run(t, new(MySQLTestSuite))
}

func (suite *MySQLTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewMySQLContainer(suite.ctx, "test-mysql")
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	suite.h = th.NewHandler([]*core.SourceParams{ctr.Source}, core.WithValueChunk(4))
}

func (suite *MySQLTestSuite) TearDownSuite() {
	suite.h.Close()
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *MySQLTestSuite) query(h *handler.Handler, query, shape string) (core.ResultStream, error) {
	desc, err := host.ParseTupleDesc(shape)
	suite.Require().NoError(err)

	return h.QueryCredentials(suite.ctx, "test-mysql", th.MySQLUser, th.MySQLPassword, query, desc)
}

func (suite *MySQLTestSuite) TestShouldReturnTypedRows() {
	t := suite.T()

	stream, err := suite.query(suite.h,
		"SELECT id, username, balance, ratio, active, avatar FROM test_table ORDER BY id",
		"id int4, username varchar(20), balance numeric, ratio float8, active int2, avatar bytea",
	)
	require.NoError(t, err)

	want := "id,username,balance,ratio,active,avatar\n" +
		`1,john_doe,1050.257,0.5,1,\xdeadbeef` + "\n" +
		"2,jane_smith,-3.900,1.25,0,\n" +
		"3,bob_wilson,0.000,,,\n"
	assert.Equal(t, want, th.CSV(t, stream))
}

func (suite *MySQLTestSuite) TestShouldTruncateDecimals() {
	t := suite.T()

	stream, err := suite.query(suite.h, "SELECT id, balance FROM test_table ORDER BY id", "id int4, balance int4")
	require.NoError(t, err)
	defer stream.Close()

	var got []core.Row
	for stream.HasNext() {
		row, err := stream.Next()
		require.NoError(t, err)
		got = append(got, row)
	}

	assert.Equal(t, []core.Row{
		{int32(1), int32(1050)},
		{int32(2), int32(-3)},
		{int32(3), int32(0)},
	}, got)
}

func (suite *MySQLTestSuite) TestShouldRejectDecimalOverflow() {
	t := suite.T()

	stream, err := suite.query(suite.h, "SELECT CAST(99999.5 AS DECIMAL(10, 1)) AS big", "big int2")
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.HasNext())
	_, err = stream.Next()

	var overflow *core.NumericOverflowError
	require.True(t, errors.As(err, &overflow), err)
	assert.Equal(t, 16, overflow.Bits)
	assert.False(t, stream.HasNext())
}

// Instants must not move when the session zone is not UTC.
func (suite *MySQLTestSuite) TestShouldKeepInstantsInSessionZone() {
	t := suite.T()

	parser := host.NewParser(host.WithLocation(time.FixedZone("", 2*3600)))
	h := th.NewHandler([]*core.SourceParams{suite.ctr.Source}, core.WithParser(parser))
	defer h.Close()

	stream, err := suite.query(h, "SELECT seen FROM test_table ORDER BY id", "seen timestamptz")
	require.NoError(t, err)
	defer stream.Close()

	want := []time.Time{
		time.Date(2024, 2, 29, 12, 4, 5, 120000000, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	var got []core.Row
	for stream.HasNext() {
		row, err := stream.Next()
		require.NoError(t, err)
		got = append(got, row)
	}
	require.Len(t, got, 3)

	for i, w := range want {
		ts, ok := got[i][0].(pgtype.Timestamptz)
		require.True(t, ok, "row %d: %T", i, got[i][0])
		assert.True(t, w.Equal(ts.Time), "row %d: want %s, got %s", i, w, ts.Time)
	}
	assert.Nil(t, got[2][0])
}

func (suite *MySQLTestSuite) TestShouldConnectWithConnString() {
	t := suite.T()

	connString := fmt.Sprintf("DSN=test-mysql;UID=%s;PWD={%s}", th.MySQLUser, th.MySQLPassword)
	handle, err := suite.h.DriverConnect(suite.ctx, connString)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, suite.h.Disconnect(handle))
	}()

	desc, err := host.ParseTupleDesc("id int8, username text")
	require.NoError(t, err)

	stream, err := suite.h.Query(suite.ctx, handle, "SELECT id, username FROM test_view", desc)
	require.NoError(t, err)
	assert.Equal(t, "id,username\n2,jane_smith\n", th.CSV(t, stream))
}

func (suite *MySQLTestSuite) TestShouldErrorInvalidQuery() {
	t := suite.T()

	_, err := suite.query(suite.h, "invalid sql", "n int4")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "42000", diag.State)
	assert.Equal(t, 1064, diag.Native)
	assert.Contains(t, diag.Message, "You have an error in your SQL syntax")
}

func (suite *MySQLTestSuite) TestShouldErrorWrongCredentials() {
	t := suite.T()

	_, err := suite.h.Connect(suite.ctx, "test-mysql", th.MySQLUser, "wrong")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "08001", diag.State)
	assert.Equal(t, 1045, diag.Native)
}
