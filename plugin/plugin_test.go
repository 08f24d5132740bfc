package plugin_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/dbeelink/plugin"
)

func TestPlugin_Manifest(t *testing.T) {
	r := require.New(t)

	p := plugin.New(nil, plugin.NewLogger(nil, plugin.WithOutput(new(bytes.Buffer))))

	p.RegisterEndpoint("DbeeLinkSources", func(args *struct{}) (any, error) {
		return nil, nil
	})
	p.RegisterEndpoint("DbeeLinkCursorClose", func(args *struct {
		ID string `msgpack:",array"`
	},
	) error {
		return nil
	})
	r.Equal([]string{"DbeeLinkSources", "DbeeLinkCursorClose"}, p.Specs())

	path := filepath.Join(t.TempDir(), "manifest.lua")
	r.NoError(p.Manifest("nvim_dbeelink", "dbeelink", path))

	out, err := os.ReadFile(path)
	r.NoError(err)

	expected := `-- Code generated by dbeelink -manifest. DO NOT EDIT.
vim.fn["remote#host#RegisterPlugin"]("nvim_dbeelink", "dbeelink", {
  { type = "function", name = "DbeeLinkCursorClose", sync = true, opts = {} },
  { type = "function", name = "DbeeLinkSources", sync = true, opts = {} },
})
`
	r.Equal(expected, string(out))
}

func TestLogger(t *testing.T) {
	r := require.New(t)

	out := new(bytes.Buffer)
	l := plugin.NewLogger(nil, plugin.WithOutput(out), plugin.WithLevel(plugin.LevelWarn))
	defer l.Close()

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %s", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	r.Len(lines, 2)
	r.True(strings.HasSuffix(lines[0], "[warn]: shown 3"), lines[0])
	r.True(strings.HasSuffix(lines[1], "[error]: shown boom"), lines[1])
}

func TestLogger_File(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "logs", "dbeelink.log")
	l := plugin.NewLogger(nil, plugin.WithLogFile(path), plugin.WithLevel(plugin.LevelDebug))

	l.Debugf("connected to %q", "warehouse")
	l.Close()

	out, err := os.ReadFile(path)
	r.NoError(err)
	r.Contains(string(out), `[debug]: connected to "warehouse"`)
}

func TestParseLevel(t *testing.T) {
	r := require.New(t)

	for name, expected := range map[string]plugin.Level{
		"":      plugin.LevelInfo,
		"debug": plugin.LevelDebug,
		"WARN":  plugin.LevelWarn,
		"error": plugin.LevelError,
	} {
		level, err := plugin.ParseLevel(name)
		r.NoError(err, name)
		r.Equal(expected, level, name)
	}

	_, err := plugin.ParseLevel("verbose")
	r.Error(err)
}
