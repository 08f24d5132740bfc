package handler

import (
	"regexp"

	"github.com/neovim/go-client/msgpack"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/format"
)

// connectionWrap is a wrapper around Connection with msgpack marshaling capabilities
type connectionWrap struct {
	connection *Connection
}

func WrapConnections(connections []*Connection) []*connectionWrap {
	wraps := make([]*connectionWrap, len(connections))

	for i := range connections {
		wraps[i] = &connectionWrap{
			connection: connections[i],
		}
	}

	return wraps
}

func (cw *connectionWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	if cw.connection == nil {
		return enc.Encode(nil)
	}

	// absent identity fields stay nil, secrets are masked
	return enc.Encode(&struct {
		Handle     int     `msgpack:"handle"`
		Live       bool    `msgpack:"live"`
		Source     *string `msgpack:"source"`
		User       *string `msgpack:"user"`
		Secret     *string `msgpack:"secret"`
		ConnString *string `msgpack:"conn_string"`
	}{
		Handle:     cw.connection.Handle,
		Live:       cw.connection.Live,
		Source:     cw.connection.Source,
		User:       cw.connection.User,
		Secret:     maskSecret(cw.connection.Secret),
		ConnString: maskConnString(cw.connection.ConnString),
	})
}

const secretMask = "********"

// pwdAttribute matches the PWD attribute of a connection string, braced or not.
var pwdAttribute = regexp.MustCompile(`(?i)(^|;)(\s*PWD\s*=\s*)(\{(?:[^}]|\}\})*\}|[^;]*)`)

func maskSecret(secret *string) *string {
	if secret == nil {
		return nil
	}
	masked := secretMask
	return &masked
}

func maskConnString(connString *string) *string {
	if connString == nil {
		return nil
	}
	masked := pwdAttribute.ReplaceAllString(*connString, "${1}${2}"+secretMask)
	return &masked
}

// cursorWrap is a wrapper around Cursor with msgpack marshaling capabilities
type cursorWrap struct {
	cursor *Cursor
}

func WrapCursors(cursors []*Cursor) []*cursorWrap {
	wraps := make([]*cursorWrap, len(cursors))

	for i := range cursors {
		wraps[i] = &cursorWrap{
			cursor: cursors[i],
		}
	}

	return wraps
}

func (cw *cursorWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	if cw.cursor == nil {
		return enc.Encode(nil)
	}
	return enc.Encode(&struct {
		ID      string   `msgpack:"id"`
		Handle  int      `msgpack:"handle"`
		Query   string   `msgpack:"query"`
		State   string   `msgpack:"state"`
		Rows    int      `msgpack:"rows"`
		Columns []string `msgpack:"columns"`
	}{
		ID:      string(cw.cursor.ID),
		Handle:  cw.cursor.Handle,
		Query:   cw.cursor.Query,
		State:   cw.cursor.State.String(),
		Rows:    cw.cursor.Rows,
		Columns: cw.cursor.Columns,
	})
}

// batchWrap is a wrapper around Batch with msgpack marshaling capabilities.
// Values that have no msgpack counterpart are sent in their text form.
type batchWrap struct {
	batch *Batch
}

func WrapBatch(batch *Batch) *batchWrap {
	return &batchWrap{
		batch: batch,
	}
}

func (bw *batchWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	if bw.batch == nil {
		return enc.Encode(nil)
	}

	rows := make([][]any, len(bw.batch.Rows))
	for i, row := range bw.batch.Rows {
		values := make([]any, len(row))
		for j, val := range row {
			values[j] = format.Value(bw.batch.Shape, j, val)
		}
		rows[i] = values
	}

	return enc.Encode(&struct {
		Rows [][]any `msgpack:"rows"`
		Done bool    `msgpack:"done"`
	}{
		Rows: rows,
		Done: bw.batch.Done,
	})
}

// sourceWrap is a wrapper around core.SourceParams with msgpack marshaling
// capabilities. The url template is not sent.
type sourceWrap struct {
	source *core.SourceParams
}

func WrapSources(sources []*core.SourceParams) []*sourceWrap {
	wraps := make([]*sourceWrap, len(sources))

	for i := range sources {
		wraps[i] = &sourceWrap{
			source: sources[i],
		}
	}

	return wraps
}

func (sw *sourceWrap) MarshalMsgPack(enc *msgpack.Encoder) error {
	if sw.source == nil {
		return enc.Encode(nil)
	}
	return enc.Encode(&struct {
		Name   string `msgpack:"name"`
		Driver string `msgpack:"driver"`
	}{
		Name:   sw.source.Name,
		Driver: sw.source.Driver,
	})
}
