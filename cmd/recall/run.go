package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/clip"
	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/hub"
	"go.klb.dev/recall/internal/watch"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the clipboard and record new entries",
		Long: `Samples the clipboard every interval (default 1s) and records new text
and images in the history. Entries older than the retention window (default
7 days) are dropped as new ones arrive.

Only one watcher may run per history file. Changes to max_items, retention
and interval in the settings file apply without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error { return runWatch(cmd, v) },
	}

	f := cmd.Flags()
	f.Duration("interval", 0, "sampling interval (default 1s)")
	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper) error {
	if err := bindSetting(cmd, v, config.KeyInterval, "interval"); err != nil {
		return err
	}
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

	h := hub.New()
	h.Register(hub.Logger{})

	sampler := clip.New()
	slog.Debug("clipboard strategies", "strategies", sampler.Strategies())

	loop := watch.New(sampler, e.store,
		watch.WithInterval(e.settings.Interval),
		watch.WithWriter(clip.NewWriter()),
		watch.WithHub(h),
	)

	e.loader.Watch(func(s config.Settings) {
		e.store.SetRetention(s.Retention)
		loop.SetInterval(s.Interval)
		slog.Info("settings applied", "max_items", s.MaxItems, "retention", s.Retention, "interval", s.Interval)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("recall started",
		"version", Version,
		"history", e.store.Path(),
		"images", e.store.ImageDir(),
		"settings", e.loader.File(),
		"subscribers", h.Subscribers(),
	)
	return loop.Run(ctx)
}
