package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"entref/internal/seed"
	"entref/internal/store"
)

// NewSeedCommand returns the "seed" command tree for populating and exporting
// record stores.
func NewSeedCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate, export, and sync record stores",
	}

	cmd.AddCommand(
		newSeedDemoCmd(logger),
		newSeedImportCmd(logger),
		newSeedExportCmd(logger),
		newSeedLoadCmd(logger),
		newSeedSyncCmd(logger),
	)

	return cmd
}

func newSeedDemoCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate demo records",
		Long:  "Generates sample bundles and records, writing them to the store or to a snapshot file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			out, _ := cmd.Flags().GetString("out")

			snap := seed.Demo(count)
			if out != "" {
				if err := seed.WriteSnapshotFile(out, snap); err != nil {
					return err
				}
				fmt.Printf("wrote %d records to %s\n", len(snap.Records), out)
				return nil
			}

			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := seed.Apply(cmd.Context(), st, snap)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d records\n", n)
			return nil
		},
	}

	cmd.Flags().IntP("count", "n", 10, "records to generate per kind")
	cmd.Flags().String("out", "", "write a snapshot file instead of seeding the store")

	return cmd
}

func newSeedImportCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <glob>...",
		Short: "Import records from JSON files",
		Long: "Builds records from JSON documents matching the glob patterns, using a " +
			"JSONPath mapping file to pick fields out of each document.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingPath, _ := cmd.Flags().GetString("mapping")
			replace, _ := cmd.Flags().GetBool("replace")

			m, err := seed.LoadMapping(mappingPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if replace {
				if err := st.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			n, err := seed.ImportFiles(cmd.Context(), st, m, args, logger)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d records\n", n)
			return nil
		},
	}

	cmd.Flags().String("mapping", "", "JSONPath mapping file (required)")
	_ = cmd.MarkFlagRequired("mapping")
	cmd.Flags().Bool("replace", false, "reset the store before importing")

	return cmd
}

func newSeedExportCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the store as a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := seed.Dump(cmd.Context(), st)
			if err != nil {
				return err
			}
			if err := seed.WriteSnapshotFile(args[0], snap); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(snap.Records), args[0])
			return nil
		},
	}
}

func newSeedLoadCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a snapshot file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replace, _ := cmd.Flags().GetBool("replace")
			watch, _ := cmd.Flags().GetBool("watch")

			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if watch {
				ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer cancel()

				w, err := seed.WatchSnapshotFile(ctx, args[0], st, logger)
				if err != nil {
					return err
				}
				defer w.Close()

				logger.Info("watching snapshot", "path", args[0])
				<-ctx.Done()
				return nil
			}

			snap, err := seed.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			apply := seed.Apply
			if replace {
				apply = seed.Replace
			}
			n, err := apply(cmd.Context(), st, snap)
			if err != nil {
				return err
			}
			fmt.Printf("loaded %d records\n", n)
			return nil
		},
	}

	cmd.Flags().Bool("replace", false, "reset the store before loading")
	cmd.Flags().Bool("watch", false, "keep the store synced with the snapshot file until interrupted")

	return cmd
}

func newSeedSyncCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <glob>...",
		Short: "Keep the store in sync with JSON files on disk",
		Long: "Imports all matching JSON files, then watches them and re-imports the " +
			"whole set whenever one changes. Runs until interrupted.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mappingPath, _ := cmd.Flags().GetString("mapping")

			m, err := seed.LoadMapping(mappingPath)
			if err != nil {
				return err
			}

			st, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			reload := func() error {
				n, err := reimport(ctx, st, m, args)
				if err != nil {
					return err
				}
				logger.Info("store synced", "records", n)
				return nil
			}
			if err := reload(); err != nil {
				return err
			}

			files, err := seed.DiscoverFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files match the given patterns")
			}

			w, err := seed.Watch(files, reload, logger)
			if err != nil {
				return err
			}
			defer w.Close()

			logger.Info("watching seed files", "files", len(files))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().String("mapping", "", "JSONPath mapping file (required)")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

// reimport replaces the store contents with records built from the files
// currently matching the patterns.
func reimport(ctx context.Context, st store.Interface, m *seed.CompiledMapping, patterns []string) (int, error) {
	if err := st.Reset(ctx); err != nil {
		return 0, err
	}
	return seed.ImportFiles(ctx, st, m, patterns, nil)
}
