package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"entref/internal/record"
	"entref/internal/schema"
)

// NewSchemaCommand returns the "schema" command tree for inspecting kinds,
// bundles, and fields in the selected store.
func NewSchemaCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect record kinds, bundles, and fields",
	}

	cmd.AddCommand(
		newSchemaKindsCmd(logger),
		newSchemaBundlesCmd(logger),
		newSchemaFieldsCmd(logger),
	)

	return cmd
}

func newSchemaKindsCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List supported entity kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			intro := schema.NewIntrospector(nil, logger)
			return printOptions(cmd, intro.KindOptions())
		},
	}
}

func newSchemaBundlesCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "bundles <kind>",
		Short: "List bundles of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			intro := schema.NewIntrospector(st, logger)
			return printOptions(cmd, intro.BundleOptions(cmd.Context(), record.Kind(args[0])))
		},
	}
}

func newSchemaFieldsCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <kind> <bundle>",
		Short: "List fields of a bundle, including the record id pseudo-field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			intro := schema.NewIntrospector(st, logger)
			return printOptions(cmd, intro.FieldOptions(cmd.Context(), record.Kind(args[0]), args[1]))
		},
	}
}

func printOptions(cmd *cobra.Command, opts []schema.Option) error {
	p := newPrinter(outputFormat(cmd))
	if p.format == "json" {
		return p.json(opts)
	}
	rows := make([][]string, len(opts))
	for i, o := range opts {
		rows[i] = []string{o.ID, o.Label}
	}
	p.table([]string{"ID", "LABEL"}, rows)
	return nil
}
