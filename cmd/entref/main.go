// Command entref runs record lookups and manages the record store backing
// them.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"entref/cmd/entref/cli"
	"entref/internal/logging"
)

var version = "dev"

func main() {
	// Create base logger with ComponentFilterHandler for per-component log
	// level control.
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // Allow all levels; filtering done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "entref",
		Short: "Record lookup for content import pipelines",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelFlag, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(levelFlag)); err != nil {
				return fmt.Errorf("invalid log level %q", levelFlag)
			}
			filterHandler.SetDefaultLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("db", "", "SQLite store path (default: in-memory store)")
	rootCmd.PersistentFlags().String("snapshot", "", "snapshot file to preload the in-memory store from")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		cli.NewLookupCommand(logger),
		cli.NewSchemaCommand(logger),
		cli.NewSeedCommand(logger),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
