package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/neovim/go-client/nvim"

	"github.com/kndndrj/dbeelink/adapters"
	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/handler"
	"github.com/kndndrj/dbeelink/internal/config"
	"github.com/kndndrj/dbeelink/plugin"
)

func main() {
	generateManifest := flag.String("manifest", "", "write the plugin manifest to this file and exit")
	host := flag.String("host", "nvim_dbeelink", "remote plugin host name used in the manifest")
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	if *generateManifest != "" {
		executable, err := os.Executable()
		if err != nil {
			log.Fatal(err)
		}

		p := plugin.New(nil, core.NopLogger{})
		mountEndpoints(p, nil, nil)
		if err := p.Manifest(*host, executable, *generateManifest); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// stdout carries the rpc stream
	stdout := os.Stdout
	os.Stdout = os.Stderr

	v, err := nvim.New(os.Stdin, stdout, stdout, log.Printf)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(v, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	manager := adapters.NewManager(
		adapters.WithSources(cfg.SourceParams()...),
		adapters.WithManagerLogger(logger),
	)
	registry := core.NewRegistry(manager, cfg.RegistryOptions(logger)...)

	h := handler.New(v, logger, registry, cfg.StatementOptions()...)
	defer h.Close()

	mountEndpoints(plugin.New(v, logger), h, manager)

	logger.Infof("serving with %d data sources", len(cfg.Sources))
	if err := v.Serve(); err != nil {
		logger.Errorf("v.Serve: %s", err)
	}
}

func newLogger(v *nvim.Nvim, cfg *config.Config) (*plugin.Logger, error) {
	level, err := plugin.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("plugin.ParseLevel: %w", err)
	}

	opts := []plugin.LoggerOption{plugin.WithLevel(level)}
	if cfg.LogFile != "" {
		opts = append(opts, plugin.WithLogFile(cfg.LogFile))
	}

	return plugin.NewLogger(v, opts...), nil
}
