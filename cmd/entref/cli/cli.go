// Package cli implements the entref subcommand trees: lookup execution,
// schema inspection, and seed tooling against a local record store.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"entref/internal/seed"
	"entref/internal/store"
	"entref/internal/store/memory"
	"entref/internal/store/sqlite"
)

// openStore opens the record store selected by the persistent flags on cmd.
// --db opens a SQLite store; otherwise an in-memory store is used, optionally
// preloaded from a --snapshot file.
func openStore(cmd *cobra.Command, logger *slog.Logger) (store.Interface, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	snapPath, _ := cmd.Flags().GetString("snapshot")

	if dbPath != "" {
		if snapPath != "" {
			return nil, fmt.Errorf("--db and --snapshot are mutually exclusive")
		}
		return sqlite.NewStore(dbPath)
	}

	st := memory.NewStore()
	if snapPath != "" {
		snap, err := seed.ReadSnapshotFile(snapPath)
		if err != nil {
			return nil, err
		}
		n, err := seed.Apply(cmd.Context(), st, snap)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		logger.Debug("loaded snapshot", "path", snapPath, "records", n)
	}
	return st, nil
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}
