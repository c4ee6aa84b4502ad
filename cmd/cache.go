package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/killallgit/wavepng/internal/database"
	"github.com/killallgit/wavepng/internal/services/envelopes"
	"github.com/killallgit/wavepng/pkg/config"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the envelope cache",
		Long: `Inspect and clear the SQLite envelope cache.

Rendering with --cache stores the per-column min/max envelopes of each request
so that repeated renders of the same file, window and width skip decoding.

Available subcommands:
  stats   - Show cache size
  clear   - Remove every cached entry`,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show envelope cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached envelope set",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	}

	cacheCmd.AddCommand(statsCmd, clearCmd)
	return cacheCmd
}

// openCache opens the configured cache database
func openCache() (*database.DB, envelopes.EnvelopeService, error) {
	db, err := database.InitializeWithMigrations(config.GetString("database.path"), config.GetBool("database.verbose"))
	if err != nil {
		return nil, nil, err
	}
	return db, envelopes.NewService(envelopes.NewRepository(db.DB), slog.Default()), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	db, svc, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", config.GetString("database.path"))
	fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
	fmt.Fprintf(out, "Sources:  %d\n", stats.Sources)
	fmt.Fprintf(out, "Size:     %d bytes\n", stats.Bytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, svc, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := svc.Purge(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached envelope sets\n", removed)
	return nil
}
