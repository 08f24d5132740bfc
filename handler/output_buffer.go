package handler

import (
	"bytes"

	"github.com/neovim/go-client/nvim"
)

const modifiableOptionName = "modifiable"

func newBuffer(vim *nvim.Nvim, buffer nvim.Buffer) *bufferWriter {
	return &bufferWriter{
		buffer: buffer,
		vim:    vim,
	}
}

// bufferWriter replaces the contents of an editor buffer. Read-only buffers
// are unlocked for the write.
type bufferWriter struct {
	buffer nvim.Buffer
	vim    *nvim.Nvim
}

func splitLines(p []byte) [][]byte {
	p = bytes.TrimSuffix(p, []byte("\n"))
	if len(p) == 0 {
		return [][]byte{}
	}

	lines := bytes.Split(p, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte("\r"))
	}
	return lines
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	lines := splitLines(p)

	isModifiable := false
	err := b.vim.BufferOption(b.buffer, modifiableOptionName, &isModifiable)
	if err != nil {
		return 0, err
	}

	if !isModifiable {
		err = b.vim.SetBufferOption(b.buffer, modifiableOptionName, true)
		if err != nil {
			return 0, err
		}
		defer func() {
			_ = b.vim.SetBufferOption(b.buffer, modifiableOptionName, false)
		}()
	}

	err = b.vim.SetBufferLines(b.buffer, 0, -1, true, lines)
	if err != nil {
		return 0, err
	}

	return len(p), nil
}
