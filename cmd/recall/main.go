// recall: clipboard history for the desktop.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/recall/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recall",
		Short: "Clipboard history",
		Long: `recall watches the system clipboard and keeps a week of everything
copied, text and images, in a JSON history file.

Run "recall run" to start watching. The other commands read the history and
can be used while the watcher runs. Entries are referred to by their
fingerprint, or any unique prefix of at least four characters as printed by
"recall list".

Settings file search order (first found wins):
  path supplied via --config
  $HOME/.config/recall/recall.{json,toml,yaml}
  $HOME/.power_paste/config.json

Every setting can also be given as a RECALL_<KEY> env var, e.g.
RECALL_MAX_ITEMS=50.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newShowCmd(),
		newCopyCmd(),
		newOpenCmd(),
		newSearchCmd(),
		newClearCmd(),
		newCleanupCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recall %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	logging.Setup(logging.ParseFormat(formatStr), pickLevel(interactive, levelStr))
}

func pickLevel(interactive bool, levelStr string) slog.Level {
	if levelStr != "" {
		return logging.ParseLevel(levelStr)
	}
	if interactive {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
