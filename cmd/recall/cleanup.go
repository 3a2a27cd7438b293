package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/watch"
)

func newCleanupCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop expired, duplicate and broken entries",
		Long: `Removes entries older than the retention window, duplicate
fingerprints, and image entries whose file is gone. Image files that no entry
refers to are deleted. The watcher does this on start, so this is only needed
when it is not running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error { return runCleanup(cmd, v) },
	}

	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runCleanup(cmd *cobra.Command, v *viper.Viper) error {
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	lock, err := e.lock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Warn("lock release failed", "err", err)
		}
	}()

	// The history may have changed between opening and locking.
	e.store.Load()
	removed, err := watch.New(nil, e.store).Cleanup(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries, %d remain.\n", removed, e.store.Len())
	return nil
}
