package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/builders"
	"github.com/kndndrj/dbeelink/core/format"
)

func validateOutputFormat(output string) error {
	switch output {
	case "table", "json", "csv":
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'csv'", output)
}

func formatter(output string) core.Formatter {
	switch output {
	case "json":
		return format.NewJSON()
	case "csv":
		return format.NewCSV()
	default:
		return format.NewTable()
	}
}

// printStream drains the stream and prints it in the requested format.
func printStream(cmd *cobra.Command, output string, stream core.ResultStream) error {
	res := new(core.Result)
	if err := res.SetIter(stream); err != nil {
		return fmt.Errorf("res.SetIter: %w", err)
	}

	out, err := res.Format(formatter(output), 0, -1)
	if err != nil {
		return fmt.Errorf("res.Format: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// printList prints in-memory rows the same way query results are printed.
func printList[T any](cmd *cobra.Command, output string, header core.Header, values []T, toRow func(T) core.Row) error {
	stream := builders.NewResultStreamBuilder().
		WithNextFunc(builders.NextSlice(values, toRow)).
		WithHeader(header).
		Build()

	return printStream(cmd, output, stream)
}
