package handler

import (
	"fmt"

	"github.com/neovim/go-client/nvim"
)

// the unnamed register
const defaultRegister = `"`

type yankRegister struct {
	vim      *nvim.Nvim
	register string
}

func newYankRegister(vim *nvim.Nvim, register string) *yankRegister {
	if register == "" {
		register = defaultRegister
	}
	return &yankRegister{
		vim:      vim,
		register: register,
	}
}

func (yr *yankRegister) Write(p []byte) (int, error) {
	err := yr.vim.Call("setreg", nil, yr.register, string(p))
	if err != nil {
		return 0, fmt.Errorf("yr.vim.Call: %w", err)
	}

	return len(p), nil
}
