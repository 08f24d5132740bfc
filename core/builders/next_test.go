package builders_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

func TestNextSlice(t *testing.T) {
	r := require.New(t)

	values := []string{"first", "second", "third"}

	next, hasNext := builders.NextSlice(values, func(v string) core.Row {
		return core.Row{v, len(v)}
	})

	var rows []core.Row
	for hasNext() {
		row, err := next()
		r.NoError(err)
		rows = append(rows, row)
	}

	r.Equal([]core.Row{{"first", 5}, {"second", 6}, {"third", 5}}, rows)

	_, err := next()
	r.ErrorIs(err, core.ErrNoNextRow)
}

func TestResultStream_CloseOnce(t *testing.T) {
	r := require.New(t)

	closed := 0
	callbacks := 0

	stream := builders.NewResultStreamBuilder().
		WithNextFunc(builders.NextSlice([]int{1, 2}, func(v int) core.Row { return core.Row{v} })).
		WithHeader(core.Header{"n"}).
		WithCloseFunc(func() { closed++ }).
		Build()
	stream.SetCallback(func() { callbacks++ })

	r.Equal(core.Header{"n"}, stream.Header())

	for stream.HasNext() {
		_, err := stream.Next()
		r.NoError(err)
	}

	// next on a drained stream closes it
	_, err := stream.Next()
	r.ErrorIs(err, core.ErrNoNextRow)

	stream.Close()
	stream.Close()

	r.Equal(1, closed)
	r.Equal(1, callbacks)
	r.False(stream.HasNext())
}
