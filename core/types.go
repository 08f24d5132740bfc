package core

import "github.com/kndndrj/dbeelink/core/host"

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		// Shape is the declared row shape, used to render host values as text
		Shape      host.TupleDesc
		ChunkStart int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row is one host row. SQL NULL is nil.
	Row    []any
	Header []string

	// Meta holds metadata
	Meta struct {
		// Shape is the row shape the stream produces
		Shape host.TupleDesc
	}

	// ResultStream is a result from executed query and has a form of an iterator
	ResultStream interface {
		Meta() *Meta
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)

// Logger is the logging interface used across the bridge.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}
