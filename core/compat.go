package core

import (
	"fmt"

	"github.com/kndndrj/dbeelink/core/host"
)

// CheckCompatibility reports whether a remote result set can be produced as
// rows of the expected shape. It stops at the first incompatible column.
//
// A remote CHAR or VARCHAR column is rejected for a length constrained host
// column when the remote declared size is larger than the host length.
// Unknown remote sizes (0) are accepted.
func CheckCompatibility(remote []*ColumnDescriptor, expected host.TupleDesc) error {
	if len(remote) != len(expected) {
		return &SchemaMismatchError{
			Ordinal: -1,
			Reason:  fmt.Sprintf("query returns %d columns, expected %d", len(remote), len(expected)),
		}
	}

	for i, col := range remote {
		attr := expected[i]

		if _, ok := coercions[coercionKey{remote: col.Type, host: attr.Type}]; !ok {
			return &SchemaMismatchError{
				Ordinal: i,
				Column:  col.Name,
				Remote:  col.Type,
				Host:    attr.Type,
				Reason:  "incompatible types",
			}
		}

		if (col.Type == SQLChar || col.Type == SQLVarchar) && attr.Type.IsText() && attr.MaxLength > 0 && int64(attr.MaxLength) < col.Size {
			return &SchemaMismatchError{
				Ordinal: i,
				Column:  col.Name,
				Remote:  col.Type,
				Host:    attr.Type,
				Reason:  fmt.Sprintf("remote size %d would be truncated to %d", col.Size, attr.MaxLength),
			}
		}
	}

	return nil
}
