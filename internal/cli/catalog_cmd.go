package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kndndrj/dbeelink/adapters"
	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
)

func newSourcesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			return printList(cmd, g.output, core.Header{"name", "driver"}, cfg.SourceParams(), func(src *core.SourceParams) core.Row {
				return core.Row{src.Name, src.Driver}
			})
		},
	}
}

func newDriversCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List driver names accepted in sources and connection strings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printList(cmd, g.output, core.Header{"driver"}, new(adapters.Mux).Aliases(), func(alias string) core.Row {
				return core.Row{alias}
			})
		},
	}
}

func newTypesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List shape types and the remote types they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printList(cmd, g.output, core.Header{"type", "accepts"}, host.Types(), func(typ host.Type) core.Row {
				remote := core.AcceptedRemoteTypes(typ)
				names := make([]string, len(remote))
				for i, r := range remote {
					names[i] = r.String()
				}
				return core.Row{typ.String(), strings.Join(names, ", ")}
			})
		},
	}
}
