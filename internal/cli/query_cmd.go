package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kndndrj/dbeelink/adapters"
	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
	"github.com/kndndrj/dbeelink/handler"
)

func newQueryCmd(g *globals) *cobra.Command {
	var (
		source     string
		user       string
		password   string
		connString string
		shape      string
	)

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print its rows",
		Long: `Run a query against a data source and print the rows in the expected shape.

The connection is either a configured source (--source, --user, --password)
or a connection string (--conn), e.g. "DSN=warehouse;UID=alice;PWD=secret"
or "DRIVER=postgres;URL=postgres://db/app".`,
		Example: `  dbeelink query --source warehouse --user alice --shape "id int4, name text" "SELECT id, name FROM users"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (source == "") == (connString == "") {
				return errors.New("exactly one of --source and --conn is required")
			}

			desc, err := host.ParseTupleDesc(shape)
			if err != nil {
				return fmt.Errorf("--shape: %w", err)
			}

			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			logger, err := g.logger(cmd)
			if err != nil {
				return err
			}

			manager := adapters.NewManager(
				adapters.WithSources(cfg.SourceParams()...),
				adapters.WithManagerLogger(logger),
			)
			h := handler.New(nil, logger, core.NewRegistry(manager, cfg.RegistryOptions(logger)...), cfg.StatementOptions()...)
			defer h.Close()

			var stream core.ResultStream
			if connString != "" {
				stream, err = h.QueryConnString(cmd.Context(), connString, args[0], desc)
			} else {
				stream, err = h.QueryCredentials(cmd.Context(), source, user, password, args[0], desc)
			}
			if err != nil {
				return err
			}

			return printStream(cmd, g.output, stream)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Configured data source name")
	cmd.Flags().StringVarP(&user, "user", "u", "", "User name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&connString, "conn", "", "Connection string")
	cmd.Flags().StringVar(&shape, "shape", "", `Expected row shape, e.g. "id int4, name varchar(20)"`)
	_ = cmd.MarkFlagRequired("shape")

	return cmd
}
