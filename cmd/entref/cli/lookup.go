package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"entref/internal/lookup"
)

// NewLookupCommand returns the "lookup" command, which runs one lookup
// transform against the selected store and prints the result.
func NewLookupCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <value> [value...]",
		Short: "Resolve values against stored records",
		Long: "Runs a field lookup the way an import pipeline would: queries the " +
			"store for records whose lookup field equals each value and prints the " +
			"projected return field. Values that resolve nothing are passed through " +
			"unchanged.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			bundle, _ := cmd.Flags().GetString("bundle")
			lookupField, _ := cmd.Flags().GetString("lookup-field")
			returnField, _ := cmd.Flags().GetString("return-field")

			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			var input any = args[0]
			if len(args) > 1 {
				input = args
			}

			step := lookup.NewStep(st, st, logger)
			result := step.Transform(cmd.Context(), input, lookup.Config{
				EntityKind:  kind,
				Bundle:      bundle,
				LookupField: lookupField,
				ReturnField: returnField,
			})

			return newPrinter(outputFormat(cmd)).result(result)
		},
	}

	cmd.Flags().String("kind", "content", "entity kind to query")
	cmd.Flags().String("bundle", "", "bundle to query within the kind")
	cmd.Flags().String("lookup-field", "", "field compared against the input values")
	cmd.Flags().String("return-field", "", "field projected per match (default: record id)")

	return cmd
}
