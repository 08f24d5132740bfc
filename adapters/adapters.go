package adapters

import (
	"errors"
	"sort"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
)

var (
	errNoValidTypeAliases   = errors.New("no valid type aliases provided")
	ErrUnsupportedTypeAlias = errors.New("no driver registered for provided type alias")
)

// Adapter opens a database/sql backed client for one kind of database.
type Adapter interface {
	Connect(url string) (*builders.Client, error)
}

// Diagnoser is implemented by adapters whose driver reports structured
// errors. State may be left empty, the caller then picks one for the call.
type Diagnoser interface {
	Diagnose(err error) (*core.Diagnostic, bool)
}

// registeredAdapters holds implemented adapters - specific adapters register themselves in their init functions.
// The main reason is to be able to compile the binary without unsupported os/arch of specific drivers.
var registeredAdapters = make(map[string]Adapter)

// register registers a new adapter for specific database
func register(adapter Adapter, aliases ...string) error {
	if len(aliases) < 1 {
		return errNoValidTypeAliases
	}

	invalidCount := 0
	for _, alias := range aliases {
		if alias == "" {
			invalidCount++
			continue
		}
		registeredAdapters[alias] = adapter
	}

	if invalidCount == len(aliases) {
		return errNoValidTypeAliases
	}

	return nil
}

// Mux is an interface to all internal adapters.
type Mux struct{}

func (*Mux) GetAdapter(typ string) (Adapter, error) {
	value, ok := registeredAdapters[typ]
	if !ok {
		return nil, ErrUnsupportedTypeAlias
	}

	return value, nil
}

func (*Mux) AddAdapter(typ string, adapter Adapter) error {
	return register(adapter, typ)
}

// Aliases lists every registered alias in order.
func (*Mux) Aliases() []string {
	aliases := make([]string, 0, len(registeredAdapters))
	for alias := range registeredAdapters {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// diagnose turns a driver error into a diagnostic record. state is used when
// neither the error nor the adapter carries one.
func diagnose(adapter Adapter, err error, state string) *core.Diagnostic {
	var diag *core.Diagnostic
	if errors.As(err, &diag) {
		return diag
	}

	if d, ok := adapter.(Diagnoser); ok {
		if diag, ok := d.Diagnose(err); ok {
			if diag.State == "" {
				diag.State = state
			}
			return diag
		}
	}

	return &core.Diagnostic{
		State:   state,
		Message: err.Error(),
	}
}
