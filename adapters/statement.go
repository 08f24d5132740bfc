package adapters

import (
	"context"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

// statement serves one query result. Character values are handed out piece
// by piece, offsets restart with every fetched row.
type statement struct {
	conn    *connection
	rows    *builders.Rows
	columns []*core.ColumnDescriptor
	offsets []int
	current bool
	freed   bool
}

func (s *statement) ExecDirect(ctx context.Context, query string) error {
	if s.freed || s.conn.client == nil {
		return diagSequence
	}
	s.closeRows()

	rows, err := s.conn.client.Query(ctx, query)
	if err != nil {
		return diagnose(s.conn.adapter, err, "42000")
	}

	s.rows = rows
	s.columns = rows.Columns()
	s.offsets = make([]int, len(s.columns))
	return nil
}

func (s *statement) NumResultCols() (int, error) {
	if s.rows == nil {
		return 0, diagSequence
	}
	return len(s.columns), nil
}

func (s *statement) DescribeCol(ordinal int) (*core.ColumnDescriptor, error) {
	if s.rows == nil {
		return nil, diagSequence
	}
	if ordinal < 1 || ordinal > len(s.columns) {
		return nil, diagBadColumn
	}

	col := *s.columns[ordinal-1]
	return &col, nil
}

func (s *statement) Fetch() error {
	if s.rows == nil {
		return diagSequence
	}

	ok, err := s.rows.Next()
	if err != nil {
		s.current = false
		return diagnose(s.conn.adapter, err, "HY000")
	}
	if !ok {
		s.current = false
		return core.ErrNoData
	}

	s.current = true
	for i := range s.offsets {
		s.offsets[i] = 0
	}
	return nil
}

func (s *statement) GetData(ordinal int, target core.CType, dst any) (core.Indicator, error) {
	if s.rows == nil || !s.current {
		return 0, diagNoRow
	}
	if ordinal < 1 || ordinal > len(s.columns) {
		return 0, diagBadColumn
	}

	value, err := s.rows.Value(ordinal - 1)
	if err != nil {
		return 0, &core.Diagnostic{State: "HY000", Message: err.Error()}
	}
	value = indirect(value)
	if value == nil {
		return core.NullData, nil
	}

	if target != core.CChar {
		return convertFixed(value, target, dst)
	}

	buf, ok := dst.([]byte)
	if !ok {
		return 0, diagConversion
	}

	data := toText(value, s.columns[ordinal-1].Type)
	offset := s.offsets[ordinal-1]
	if offset > 0 && offset >= len(data) {
		return 0, core.ErrNoData
	}

	n := copy(buf, data[offset:])
	s.offsets[ordinal-1] = offset + n
	return core.Indicator(n), nil
}

func (s *statement) closeRows() {
	if s.rows == nil {
		return
	}
	_ = s.rows.Close()
	s.rows = nil
	s.columns = nil
	s.offsets = nil
	s.current = false
}

func (s *statement) Free() error {
	if s.freed {
		return diagSequence
	}
	s.freed = true
	s.closeRows()
	return nil
}
