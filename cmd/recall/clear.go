package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/watch"
)

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the whole history and its images",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return runClear(cmd, v) },
	}

	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runClear(cmd *cobra.Command, v *viper.Viper) error {
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

	e.store.Load()
	removed, err := watch.New(nil, e.store).Clear(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", removed)
	return nil
}
