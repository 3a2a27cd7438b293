package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/logging"
	"go.klb.dev/recall/internal/paths"
)

// bindViper wires a command's flags into a viper instance with the RECALL_*
// env var prefix. The settings file is read later by config.Loader on the
// same instance.
//
// Precedence (lowest → highest): defaults → settings file → RECALL_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// bindSetting binds a dashed flag to its underscored settings key.
func bindSetting(cmd *cobra.Command, v *viper.Viper, key, flag string) error {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		return fmt.Errorf("binding %s: %w", flag, err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info, debug when interactive)")
	cmd.Flags().String("log-file", "", "append logs to this file instead of stderr")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to settings file (overrides auto-discovery)")
}

// addStoreFlags adds the flags that locate the history.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("history-file", "", "history file (default: $XDG_DATA_HOME/recall/history.json)")
	cmd.Flags().String("image-dir", "", "image directory (default: images/ next to the history file)")
}

// setupLogging reads logging flags from viper and configures slog. The
// returned closer is non-nil when logging to a file.
func setupLogging(v *viper.Viper) (io.Closer, error) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	if path := v.GetString("log-file"); path != "" {
		path, err := paths.Expand(path)
		if err != nil {
			return nil, err
		}
		return logging.SetupFile(path, logging.ParseFormat(v.GetString("log-format")), pickLevel(false, v.GetString("log-level")))
	}
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
	return nil, nil
}

// env is what every command needs once flags are parsed.
type env struct {
	v        *viper.Viper
	fs       afero.Fs
	loader   *config.Loader
	settings config.Settings
	store    *history.Store
	logFile  io.Closer
}

// openEnv configures logging, loads settings and opens the history.
func openEnv(cmd *cobra.Command, v *viper.Viper) (*env, error) {
	if err := bindViper(cmd, v); err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		config.KeyHistoryFile: "history-file",
		config.KeyImageDir:    "image-dir",
	} {
		if err := bindSetting(cmd, v, key, flag); err != nil {
			return nil, err
		}
	}

	logFile, err := setupLogging(v)
	if err != nil {
		return nil, err
	}

	e := &env{v: v, fs: afero.NewOsFs(), logFile: logFile}
	e.loader = config.NewLoader(v, config.Find(v.GetString("config")))
	e.settings = e.loader.Load()

	historyFile, imageDir, err := resolveStore(e.settings)
	if err != nil {
		e.close()
		return nil, err
	}
	e.store = history.Open(e.fs, historyFile,
		history.WithRetention(e.settings.Retention),
		history.WithImageDir(imageDir),
	)
	return e, nil
}

func (e *env) close() {
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

// lock takes the writer lock for mutating commands.
func (e *env) lock() (*paths.Lock, error) {
	l, err := paths.Acquire(e.store.Path())
	if err != nil {
		return nil, fmt.Errorf("%w; stop \"recall run\" first", err)
	}
	return l, nil
}

func resolveStore(s config.Settings) (historyFile, imageDir string, err error) {
	historyFile, err = paths.Expand(s.HistoryFile)
	if err != nil {
		return "", "", err
	}
	if historyFile == "" {
		if historyFile, err = paths.HistoryFile(); err != nil {
			return "", "", err
		}
	}
	imageDir, err = paths.Expand(s.ImageDir)
	if err != nil {
		return "", "", err
	}
	if imageDir == "" {
		imageDir = paths.ImageDir(historyFile)
	}
	return historyFile, imageDir, nil
}
