package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/fingerprint"
	"go.klb.dev/recall/internal/watch"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy <ref>",
		Short: "Put an entry back on the clipboard",
		Long: `Copies a text or image entry back to the system clipboard. A running
watcher recognises it and does not record it a second time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error { return runCopy(cmd, v, args[0]) },
	}

	cmd.Flags().Duration("timeout", 5*time.Second, "give up writing to the clipboard after this long")
	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runCopy(cmd *cobra.Command, v *viper.Viper, ref string) error {
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := contextWithTimeout(cmd, v.GetDuration("timeout"))
	defer cancel()

	loop := watch.New(nil, e.store, watch.WithWriter(clip.NewWriter()))
	it, err := loop.Copy(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "copied %s %s\n", it.Kind, fingerprint.Short(it.Fingerprint))
	return nil
}
