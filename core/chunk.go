package core

import (
	"errors"
	"fmt"
)

// DefaultValueChunk is the transfer size used to retrieve variable-length values.
const DefaultValueChunk = 4096

// FetchAll retrieves the complete character or binary value of a column of
// the current row, requesting it chunkSize bytes at a time. The buffer grows
// by one chunk whenever a chunk comes back full. It stops on a NULL indicator,
// on ErrNoData or on a short chunk.
func FetchAll(stmt StmtHandle, ordinal int, chunkSize int) (value []byte, isNull bool, err error) {
	if chunkSize < 1 {
		chunkSize = DefaultValueChunk
	}

	buf := make([]byte, chunkSize)
	pos := 0

	for {
		ind, err := stmt.GetData(ordinal, CChar, buf[pos:pos+chunkSize])
		if errors.Is(err, ErrNoData) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("unsuccessful get data call: %w", diagnose(err))
		}
		if ind == NullData {
			return nil, true, nil
		}
		if ind < 0 || int(ind) > chunkSize {
			return nil, false, fmt.Errorf("invalid length indicator %d for chunk of %d bytes", ind, chunkSize)
		}

		pos += int(ind)
		if int(ind) < chunkSize {
			break
		}

		buf = append(buf, make([]byte, chunkSize)...)
	}

	return buf[:pos:pos], false, nil
}
