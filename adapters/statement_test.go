package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
)

func openStatement(t *testing.T, alias string) (core.StmtHandle, sqlmock.Sqlmock) {
	t.Helper()

	m, _, mock := setupManager(t, alias)
	conn := allocConn(t, m)

	mock.ExpectPing()
	require.NoError(t, conn.Connect(context.Background(), "warehouse", "u", "p"))

	stmt, err := conn.AllocStmt()
	require.NoError(t, err)

	return stmt, mock
}

func TestStatement_Describe(t *testing.T) {
	r := require.New(t)

	stmt, mock := openStatement(t, "mock-describe")

	// nothing executed yet
	_, err := stmt.NumResultCols()
	requireState(t, err, "HY010")

	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		mock.NewRowsWithColumnDefinition(
			mock.NewColumn("id").OfType("INT4", int64(0)).Nullable(false),
			mock.NewColumn("name").OfType("VARCHAR", "").WithLength(40).Nullable(true),
		),
	)
	r.NoError(stmt.ExecDirect(context.Background(), "SELECT id, name FROM users"))

	n, err := stmt.NumResultCols()
	r.NoError(err)
	r.Equal(2, n)

	col, err := stmt.DescribeCol(2)
	r.NoError(err)
	r.Equal(&core.ColumnDescriptor{Name: "name", Type: core.SQLVarchar, Size: 40, Nullable: core.Nullable}, col)

	_, err = stmt.DescribeCol(0)
	requireState(t, err, "07009")
	_, err = stmt.DescribeCol(3)
	requireState(t, err, "07009")

	r.ErrorIs(stmt.Fetch(), core.ErrNoData)
	r.NoError(stmt.Free())
	requireState(t, stmt.Free(), "HY010")
	r.NoError(mock.ExpectationsWereMet())
}

func TestStatement_ExecDirectFailure(t *testing.T) {
	stmt, mock := openStatement(t, "mock-exec-failure")

	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(&pq.Error{
		Code:    "42P01",
		Message: `relation "missing" does not exist`,
	})

	err := stmt.ExecDirect(context.Background(), "SELECT * FROM missing")
	requireState(t, err, "42P01")
	require.ErrorContains(t, err, `relation "missing" does not exist`)

	mock.ExpectQuery("SELECT broken").WillReturnError(errors.New("syntax error"))
	requireState(t, stmt.ExecDirect(context.Background(), "SELECT broken"), "42000")
}

func TestStatement_GetData(t *testing.T) {
	r := require.New(t)

	stmt, mock := openStatement(t, "mock-getdata")

	mock.ExpectQuery("SELECT * FROM things").WillReturnRows(
		mock.NewRowsWithColumnDefinition(
			mock.NewColumn("id").OfType("INT8", int64(0)),
			mock.NewColumn("note").OfType("TEXT", ""),
			mock.NewColumn("at").OfType("TIMESTAMPTZ", time.Time{}),
			mock.NewColumn("day").OfType("DATE", time.Time{}),
		).
			AddRow(int64(70000), "abcdefghij", time.Date(2024, 2, 29, 13, 4, 5, 120000000, time.FixedZone("", 3600)), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)).
			AddRow(int64(2), "", nil, nil),
	)
	r.NoError(stmt.ExecDirect(context.Background(), "SELECT * FROM things"))

	// no current row
	_, err := stmt.GetData(1, core.CBigint, new(int64))
	requireState(t, err, "24000")

	r.NoError(stmt.Fetch())

	var big int64
	ind, err := stmt.GetData(1, core.CBigint, &big)
	r.NoError(err)
	r.EqualValues(8, ind)
	r.EqualValues(70000, big)

	// does not fit a short
	_, err = stmt.GetData(1, core.CShort, new(int16))
	requireState(t, err, "22003")

	// text is served piece by piece
	buf := make([]byte, 4)
	var pieces []string
	for {
		ind, err := stmt.GetData(2, core.CChar, buf)
		if errors.Is(err, core.ErrNoData) {
			break
		}
		r.NoError(err)
		pieces = append(pieces, string(buf[:ind]))
	}
	r.Equal([]string{"abcd", "efgh", "ij"}, pieces)

	value, isNull, err := core.FetchAll(stmt, 3, 8)
	r.NoError(err)
	r.False(isNull)
	r.Equal("2024-02-29 13:04:05.12+01:00:00", string(value))

	value, _, err = core.FetchAll(stmt, 4, 8)
	r.NoError(err)
	r.Equal("2024-02-29", string(value))

	_, err = stmt.GetData(5, core.CChar, buf)
	requireState(t, err, "07009")

	// offsets restart on the next row
	r.NoError(stmt.Fetch())

	ind, err = stmt.GetData(2, core.CChar, buf)
	r.NoError(err)
	r.EqualValues(0, ind)

	ind, err = stmt.GetData(3, core.CChar, buf)
	r.NoError(err)
	r.Equal(core.NullData, ind)

	r.ErrorIs(stmt.Fetch(), core.ErrNoData)
	r.NoError(stmt.Free())
}

func TestStatement_FetchFailure(t *testing.T) {
	stmt, mock := openStatement(t, "mock-fetch-failure")

	mock.ExpectQuery("SELECT n FROM numbers").WillReturnRows(
		sqlmock.NewRows([]string{"n"}).
			AddRow(int64(1)).
			AddRow(int64(2)).
			RowError(1, &pq.Error{Code: "57014", Message: "canceling statement due to user request"}),
	)
	require.NoError(t, stmt.ExecDirect(context.Background(), "SELECT n FROM numbers"))

	require.NoError(t, stmt.Fetch())
	requireState(t, stmt.Fetch(), "57014")

	_, err := stmt.GetData(1, core.CBigint, new(int64))
	requireState(t, err, "24000")
}

func TestStatement_InstantsSurviveSessionZone(t *testing.T) {
	r := require.New(t)

	stmt, mock := openStatement(t, "mock-instants")

	noon := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT at, wall, day FROM events").WillReturnRows(
		mock.NewRowsWithColumnDefinition(
			mock.NewColumn("at").OfType("TIMESTAMPTZ", time.Time{}),
			mock.NewColumn("wall").OfType("TIMESTAMP", time.Time{}),
			mock.NewColumn("day").OfType("DATE", time.Time{}),
		).AddRow(noon.In(time.FixedZone("", -5*3600)), noon, time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("", 3600))),
	)
	r.NoError(stmt.ExecDirect(context.Background(), "SELECT at, wall, day FROM events"))
	r.NoError(stmt.Fetch())

	coercer := core.NewCoercer(host.NewParser(host.WithLocation(time.FixedZone("CET", 3600))), 8)

	at, isNull, err := coercer.Coerce(stmt, 1, core.SQLTimestamp, host.Attribute{Type: host.TimestampTZ})
	r.NoError(err)
	r.False(isNull)
	r.True(at.(pgtype.Timestamptz).Time.Equal(noon), "instant moved: %v", at)

	// timestamp without time zone keeps the wall clock
	wall, _, err := coercer.Coerce(stmt, 2, core.SQLTimestamp, host.Attribute{Type: host.Timestamp})
	r.NoError(err)
	r.True(wall.(pgtype.Timestamp).Time.Equal(noon), "wall clock moved: %v", wall)

	day, _, err := coercer.Coerce(stmt, 3, core.SQLDate, host.Attribute{Type: host.Date})
	r.NoError(err)
	r.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), day.(pgtype.Date).Time)

	r.ErrorIs(stmt.Fetch(), core.ErrNoData)
	r.NoError(stmt.Free())
}

// The whole path: registry connection, statement, coercion into the shape.
func TestStatement_ThroughRegistry(t *testing.T) {
	r := require.New(t)

	m, _, mock := setupManager(t, "mock-registry")
	mock.ExpectPing()

	reg := core.NewRegistry(m)
	idx, err := reg.ConnectCredentials(context.Background(), "warehouse", "u", "p")
	r.NoError(err)
	r.Equal(0, idx)

	conn, err := reg.Conn(idx)
	r.NoError(err)

	mock.ExpectQuery("SELECT id, price, name FROM items").WillReturnRows(
		mock.NewRowsWithColumnDefinition(
			mock.NewColumn("id").OfType("INT2", int64(0)),
			mock.NewColumn("price").OfType("NUMERIC", "").WithPrecisionAndScale(10, 2),
			mock.NewColumn("name").OfType("VARCHAR", "").WithLength(10),
		).
			AddRow(int64(1), []byte("10.50"), "apple").
			AddRow(int64(2), []byte("0.99"), nil),
	)

	shape, err := host.ParseTupleDesc("id int4, price numeric, name varchar(10)")
	r.NoError(err)

	s, err := core.OpenStatement(context.Background(), conn, "SELECT id, price, name FROM items", shape)
	r.NoError(err)

	var rows []core.Row
	for s.HasNext() {
		row, err := s.Next()
		r.NoError(err)
		rows = append(rows, row)
	}
	r.Len(rows, 2)
	r.Equal(int32(1), rows[0][0])
	r.Equal("apple", rows[0][2])
	r.Equal(int32(2), rows[1][0])
	r.Nil(rows[1][2])
	r.Equal(core.StatementExhausted, s.State())
	s.Close()

	mock.ExpectClose()
	r.NoError(reg.Disconnect(idx))
	r.NoError(mock.ExpectationsWereMet())
}
