package builders

import (
	"strings"

	"github.com/kndndrj/dbeelink/core"
)

type clientConfig struct {
	typeProcessors map[string]func(any) any
	typeTags       map[string]core.SQLType
}

type ClientOption func(*clientConfig)

// WithCustomTypeProcessor normalizes scanned values of a database type before
// they are handed out.
func WithCustomTypeProcessor(typ string, fn func(any) any) ClientOption {
	return func(cc *clientConfig) {
		t := strings.ToLower(typ)
		_, ok := cc.typeProcessors[t]
		if ok {
			// processor already registered for this type
			return
		}

		cc.typeProcessors[t] = fn
	}
}

// WithTypeTag reports columns of a database type as the given remote tag,
// overriding the default table.
func WithTypeTag(typ string, tag core.SQLType) ClientOption {
	return func(cc *clientConfig) {
		cc.typeTags[normalizeTypeName(typ)] = tag
	}
}
