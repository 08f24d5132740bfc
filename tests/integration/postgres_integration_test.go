package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
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

// PostgresTestSuite is the test suite for the postgres adapter.
type PostgresTestSuite struct {
	tsuite.Suite
	// ctr is the postgres testcontainer
	ctr *th.PostgresContainer
	ctx context.Context
	h   *handler.Handler
}

// TestPostgresTestSuite is the entrypoint for go test.
//
// testify/suite can't handle parallel tests, see
// https://github.com/stretchr/testify/issues/934
func TestPostgresTestSuite(t *testing.T) {
	tsuite.Run(t, new(PostgresTestSuite))
}

func (suite *PostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	ctr, err := th.NewPostgresContainer(suite.ctx, "test-postgres")
	if err != nil {
		log.Fatal(err)
	}

	suite.ctr = ctr
	// small chunks so longer values are retrieved piece by piece
	suite.h = th.NewHandler([]*core.SourceParams{ctr.Source}, core.WithValueChunk(8))
}

func (suite *PostgresTestSuite) TearDownSuite() {
	suite.h.Close()
	tc.CleanupContainer(suite.T(), suite.ctr)
}

func (suite *PostgresTestSuite) query(query, shape string) (core.ResultStream, error) {
	desc, err := host.ParseTupleDesc(shape)
	suite.Require().NoError(err)

	return suite.h.QueryCredentials(suite.ctx, "test-postgres", th.PostgresUser, th.PostgresPassword, query, desc)
}

func (suite *PostgresTestSuite) TestShouldReturnTypedRows() {
	t := suite.T()

	stream, err := suite.query(
		"SELECT id, username, bio, balance, ratio, active, born, avatar FROM test_table ORDER BY id",
		"id int4, username varchar(20), bio text, balance numeric, ratio float8, active bool, born date, avatar bytea",
	)
	require.NoError(t, err)

	want := "id,username,bio,balance,ratio,active,born,avatar\n" +
		`1,john_doe,likes long walks,1050.25,0.5,t,1990-01-15,\xdeadbeef` + "\n" +
		"2,jane_smith,,-3.10,1.25,f,1985-07-04,\n" +
		"3,bob_wilson," + strings.Repeat("x", 100) + `,0.00,,,,\x` + "\n"
	assert.Equal(t, want, th.CSV(t, stream))
}

func (suite *PostgresTestSuite) TestShouldReturnInstants() {
	t := suite.T()

	stream, err := suite.query("SELECT seen FROM test_table ORDER BY id", "seen timestamptz")
	require.NoError(t, err)
	defer stream.Close()

	want := []time.Time{
		time.Date(2024, 2, 29, 12, 4, 5, 120000000, time.UTC),
		time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC),
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

func (suite *PostgresTestSuite) TestShouldReturnOneRow() {
	t := suite.T()

	stream, err := suite.query("SELECT id, username FROM test_view", "id int8, username text")
	require.NoError(t, err)

	assert.Equal(t, "id,username\n2,jane_smith\n", th.CSV(t, stream))
}

func (suite *PostgresTestSuite) TestShouldStreamCursorInBatches() {
	t := suite.T()

	desc, err := host.ParseTupleDesc("n int4")
	require.NoError(t, err)

	id, err := suite.h.OpenCursorCredentials(suite.ctx, "test-postgres", th.PostgresUser, th.PostgresPassword,
		"SELECT n FROM generate_series(1, 7) AS n", desc)
	require.NoError(t, err)

	var sizes []int
	var total int32
	for {
		batch, err := suite.h.CursorFetch(id, 3)
		require.NoError(t, err)

		sizes = append(sizes, len(batch.Rows))
		for _, row := range batch.Rows {
			total += row[0].(int32)
		}
		if batch.Done {
			break
		}
	}

	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.EqualValues(t, 28, total)
	assert.Empty(t, suite.h.Cursors())
}

func (suite *PostgresTestSuite) TestShouldReuseConnection() {
	t := suite.T()

	for i := 0; i < 3; i++ {
		stream, err := suite.query("SELECT 1", "n int4")
		require.NoError(t, err)
		stream.Close()
	}

	live := 0
	for _, conn := range suite.h.Connections() {
		if conn.Live && conn.Source != nil && *conn.Source == "test-postgres" {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func (suite *PostgresTestSuite) TestShouldConnectWithConnString() {
	t := suite.T()

	connString := fmt.Sprintf("DSN=test-postgres;UID=%s;PWD={%s}", th.PostgresUser, th.PostgresPassword)
	handle, err := suite.h.DriverConnect(suite.ctx, connString)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, suite.h.Disconnect(handle))
	}()

	desc, err := host.ParseTupleDesc("db text")
	require.NoError(t, err)

	stream, err := suite.h.Query(suite.ctx, handle, "SELECT current_database()", desc)
	require.NoError(t, err)
	assert.Equal(t, "db\ndev\n", th.CSV(t, stream))
}

func (suite *PostgresTestSuite) TestShouldErrorInvalidQuery() {
	t := suite.T()

	_, err := suite.query("invalid sql", "n int4")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "42601", diag.State)
	assert.Contains(t, diag.Message, "syntax error")
}

func (suite *PostgresTestSuite) TestShouldErrorWrongCredentials() {
	t := suite.T()

	_, err := suite.h.Connect(suite.ctx, "test-postgres", th.PostgresUser, "wrong")

	var diag *core.Diagnostic
	require.True(t, errors.As(err, &diag), err)
	assert.Equal(t, "28P01", diag.State)
}

func (suite *PostgresTestSuite) TestShouldRejectIncompatibleShape() {
	t := suite.T()

	testCases := []struct {
		name  string
		query string
		shape string
		want  string
	}{
		{
			name:  "column count",
			query: "SELECT id, username FROM test_table",
			shape: "id int4",
			want:  "query returns 2 columns, expected 1",
		},
		{
			name:  "type",
			query: "SELECT username FROM test_table",
			shape: "username int4",
			want:  "incompatible types",
		},
		{
			name:  "length",
			query: "SELECT username FROM test_table",
			shape: "username varchar(5)",
			want:  "username",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := suite.query(tc.query, tc.shape)

			var mismatch *core.SchemaMismatchError
			require.True(t, errors.As(err, &mismatch), err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
