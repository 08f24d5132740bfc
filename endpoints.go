package main

import (
	"context"
	"errors"

	"github.com/kndndrj/dbeelink/adapters"
	"github.com/kndndrj/dbeelink/core/host"
	"github.com/kndndrj/dbeelink/handler"
	"github.com/kndndrj/dbeelink/plugin"
)

type queryOpts struct {
	Query string `msgpack:"query"`
	// Shape is the expected row, e.g. "id int4, name text"
	Shape string `msgpack:"shape"`
}

var errNoQueryOpts = errors.New("query options are required")

// parse returns the query text and the declared row shape.
func (o *queryOpts) parse() (string, host.TupleDesc, error) {
	if o == nil {
		return "", nil, errNoQueryOpts
	}
	shape, err := host.ParseTupleDesc(o.Shape)
	if err != nil {
		return "", nil, err
	}
	return o.Query, shape, nil
}

func mountEndpoints(p *plugin.Plugin, h *handler.Handler, m *adapters.Manager) {
	p.RegisterEndpoint(
		"DbeeLinkConnect",
		func(args *struct {
			Source string `msgpack:",array"`
			User   string
			Secret string
		},
		) (int, error) {
			return h.Connect(context.Background(), args.Source, args.User, args.Secret)
		})

	p.RegisterEndpoint(
		"DbeeLinkDriverConnect",
		func(args *struct {
			ConnString string `msgpack:",array"`
		},
		) (int, error) {
			return h.DriverConnect(context.Background(), args.ConnString)
		})

	p.RegisterEndpoint(
		"DbeeLinkConnections",
		func() (any, error) {
			return handler.WrapConnections(h.Connections()), nil
		})

	p.RegisterEndpoint(
		"DbeeLinkDisconnect",
		func(args *struct {
			Handle int `msgpack:",array"`
		},
		) error {
			return h.Disconnect(args.Handle)
		})

	p.RegisterEndpoint(
		"DbeeLinkOpenCursor",
		func(args *struct {
			Handle int `msgpack:",array"`
			Opts   *queryOpts
		},
		) (handler.CursorID, error) {
			query, shape, err := args.Opts.parse()
			if err != nil {
				return "", err
			}
			return h.OpenCursor(context.Background(), args.Handle, query, shape)
		})

	p.RegisterEndpoint(
		"DbeeLinkOpenCursorCredentials",
		func(args *struct {
			Source string `msgpack:",array"`
			User   string
			Secret string
			Opts   *queryOpts
		},
		) (handler.CursorID, error) {
			query, shape, err := args.Opts.parse()
			if err != nil {
				return "", err
			}
			return h.OpenCursorCredentials(context.Background(), args.Source, args.User, args.Secret, query, shape)
		})

	p.RegisterEndpoint(
		"DbeeLinkOpenCursorConnString",
		func(args *struct {
			ConnString string `msgpack:",array"`
			Opts       *queryOpts
		},
		) (handler.CursorID, error) {
			query, shape, err := args.Opts.parse()
			if err != nil {
				return "", err
			}
			return h.OpenCursorConnString(context.Background(), args.ConnString, query, shape)
		})

	p.RegisterEndpoint(
		"DbeeLinkCursorFetch",
		func(args *struct {
			ID    handler.CursorID `msgpack:",array"`
			Count int
		},
		) (any, error) {
			batch, err := h.CursorFetch(args.ID, args.Count)
			if err != nil {
				return nil, err
			}
			return handler.WrapBatch(batch), nil
		})

	p.RegisterEndpoint(
		"DbeeLinkCursorClose",
		func(args *struct {
			ID handler.CursorID `msgpack:",array"`
		},
		) error {
			return h.CursorClose(args.ID)
		})

	p.RegisterEndpoint(
		"DbeeLinkCursors",
		func() (any, error) {
			return handler.WrapCursors(h.Cursors()), nil
		})

	p.RegisterEndpoint(
		"DbeeLinkCursorStoreResult",
		func(args *struct {
			ID     handler.CursorID `msgpack:",array"`
			Format string
			Output string
			Opts   *struct {
				ExtraArg any `msgpack:"extra_arg"`
			}
		},
		) (any, error) {
			var extra []any
			if args.Opts != nil && args.Opts.ExtraArg != nil {
				extra = append(extra, args.Opts.ExtraArg)
			}
			return nil, h.CursorStoreResult(args.ID, args.Format, args.Output, extra...)
		})

	p.RegisterEndpoint(
		"DbeeLinkSources",
		func() (any, error) {
			return handler.WrapSources(m.Sources()), nil
		})

	p.RegisterEndpoint(
		"DbeeLinkDrivers",
		func() ([]string, error) {
			return new(adapters.Mux).Aliases(), nil
		})
}
