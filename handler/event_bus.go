package handler

import (
	"fmt"

	"github.com/neovim/go-client/nvim"

	"github.com/kndndrj/dbeelink/core"
)

// eventBus notifies the editor about state changes. Without an editor it
// does nothing.
type eventBus struct {
	vim *nvim.Nvim
	log core.Logger
}

func (eb *eventBus) callLua(event string, data string) {
	if eb.vim == nil {
		return
	}

	err := eb.vim.ExecLua(fmt.Sprintf(`require("dbeelink.events").trigger(%q, %s)`, event, data), nil)
	if err != nil {
		eb.log.Infof("eb.vim.ExecLua: %s", err)
	}
}

func (eb *eventBus) ConnectionsChanged() {
	eb.callLua("connections_changed", "{}")
}

func (eb *eventBus) CursorStateChanged(id CursorID, state core.StatementState) {
	data := fmt.Sprintf(`{
		cursor = {
			id = %q,
			state = %q,
		},
	}`, id, state.String())

	eb.callLua("cursor_state_changed", data)
}
