package core

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockedResultStream struct {
	max     int
	current int
	failAt  int
	closed  int
}

func newMockedResultStream(maxRows int) *mockedResultStream {
	return &mockedResultStream{
		max:    maxRows,
		failAt: -1,
	}
}

func (mir *mockedResultStream) Meta() *Meta {
	return &Meta{}
}

func (mir *mockedResultStream) Header() Header {
	return Header{"header1", "header2"}
}

func (mir *mockedResultStream) Next() (Row, error) {
	if mir.current == mir.failAt {
		return nil, errors.New("broken stream")
	}
	if mir.current < mir.max {
		num := mir.current
		mir.current += 1
		return Row{num, strconv.Itoa(num)}, nil
	}

	return nil, ErrNoNextRow
}

func (mir *mockedResultStream) HasNext() bool {
	return mir.current < mir.max
}

func (mir *mockedResultStream) Close() {
	mir.closed++
}

func (mir *mockedResultStream) Range(from int, to int) []Row {
	rows := []Row{}

	for i := from; i < to; i++ {
		rows = append(rows, Row{i, strconv.Itoa(i)})
	}
	return rows
}

func TestResult(t *testing.T) {
	r := require.New(t)

	result := new(Result)

	numOfRows := 10
	stream := newMockedResultStream(numOfRows)

	err := result.SetIter(stream)
	r.NoError(err)
	r.Equal(1, stream.closed)
	r.Equal(numOfRows, result.Len())

	type testCase struct {
		name          string
		from          int
		to            int
		expectedRows  []Row
		expectedError error
	}

	testCases := []testCase{
		{
			name:         "get all",
			from:         0,
			to:           -1,
			expectedRows: stream.Range(0, numOfRows),
		},
		{
			name:         "get basic range",
			from:         0,
			to:           3,
			expectedRows: stream.Range(0, 3),
		},
		{
			name:         "get last 2",
			from:         -3,
			to:           -1,
			expectedRows: stream.Range(numOfRows-2, numOfRows),
		},
		{
			name:         "get only one",
			from:         0,
			to:           1,
			expectedRows: stream.Range(0, 1),
		},
		{
			name:         "range past the end is clamped",
			from:         8,
			to:           100,
			expectedRows: stream.Range(8, numOfRows),
		},
		{
			name:          "invalid range",
			from:          5,
			to:            1,
			expectedError: ErrInvalidRange(5, 1),
		},
		{
			name:          "invalid range (even if 10 can be higher than -1, its undefined and should fail)",
			from:          -5,
			to:            10,
			expectedError: ErrInvalidRange(-5, 10),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			rows, err := result.Rows(tc.from, tc.to)
			if tc.expectedError != nil {
				r.EqualError(err, tc.expectedError.Error())
				return
			}
			r.NoError(err)
			r.Equal(tc.expectedRows, rows)
		})
	}
}

func TestResult_SetIterFailure(t *testing.T) {
	r := require.New(t)

	stream := newMockedResultStream(5)
	stream.failAt = 3

	result := new(Result)
	err := result.SetIter(stream)
	r.EqualError(err, "broken stream")
	r.Equal(1, stream.closed)

	rows, err := result.Rows(0, -1)
	r.NoError(err)
	r.Equal(stream.Range(0, 3), rows)

	result.Wipe()
	r.Equal(0, result.Len())
}
