package core

import (
	"fmt"
	"sync"
)

var ErrInvalidRange = func(from, to int) error { return fmt.Errorf("invalid selection range: %d ... %d", from, to) }

// Result is the drained form of the ResultStream iterator
type Result struct {
	header Header
	meta   *Meta
	rows   []Row

	mu sync.RWMutex
}

// SetIter drains the ResultStream iterator into result and closes it.
// Rows pulled before a failure are kept.
func (cr *Result) SetIter(iter ResultStream) error {
	defer iter.Close()

	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.header = iter.Header()
	cr.meta = iter.Meta()
	cr.rows = make([]Row, 0)

	for iter.HasNext() {
		row, err := iter.Next()
		if err != nil {
			return err
		}

		cr.rows = append(cr.rows, row)
	}

	return nil
}

func (cr *Result) Wipe() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.header = Header{}
	cr.meta = &Meta{}
	cr.rows = []Row{}
}

func (cr *Result) Format(formatter Formatter, from, to int) ([]byte, error) {
	rows, fromAdjusted, _, err := cr.getRows(from, to)
	if err != nil {
		return nil, fmt.Errorf("cr.getRows: %w", err)
	}

	opts := &FormatterOptions{
		ChunkStart: fromAdjusted,
	}
	if meta := cr.Meta(); meta != nil {
		opts.Shape = meta.Shape
	}

	f, err := formatter.Format(cr.Header(), rows, opts)
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return f, nil
}

func (cr *Result) Len() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return len(cr.rows)
}

func (cr *Result) Header() Header {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.header
}

func (cr *Result) Meta() *Meta {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.meta
}

// Rows returns rows in range from-to. Negative values count from the end,
// -1 being one past the last row.
func (cr *Result) Rows(from, to int) ([]Row, error) {
	rows, _, _, err := cr.getRows(from, to)
	return rows, err
}

// getRows returns the row range and adjusted from-to values
func (cr *Result) getRows(from, to int) (rows []Row, rangeFrom, rangeTo int, err error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	// validation
	if (from < 0 && to < 0) || (from >= 0 && to >= 0) {
		if from > to {
			return nil, 0, 0, ErrInvalidRange(from, to)
		}
	}
	// undefined -> error
	if from < 0 && to >= 0 {
		return nil, 0, 0, ErrInvalidRange(from, to)
	}

	// calculate range
	length := len(cr.rows)
	if from < 0 {
		from += length + 1
		if from < 0 {
			from = 0
		}
	}
	if to < 0 {
		to += length + 1
		if to < 0 {
			to = 0
		}
	}

	if from > length {
		from = length
	}
	if to > length {
		to = length
	}

	return cr.rows[from:to], from, to, nil
}
