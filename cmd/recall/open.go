package main

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newOpenCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "open <ref>",
		Short: "Open an image entry in the default viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runOpen(cmd, v, args[0]) },
	}

	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runOpen(cmd *cobra.Command, v *viper.Viper, ref string) error {
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	it, err := e.store.Lookup(ref)
	if err != nil {
		return err
	}
	if !it.IsImage() {
		return fmt.Errorf("entry %s is text; use \"recall show\"", ref)
	}
	if _, err := e.fs.Stat(it.Content); err != nil {
		return fmt.Errorf("image file: %w", err)
	}

	ctx, cancel := contextWithTimeout(cmd, 10*time.Second)
	defer cancel()
	return openFile(ctx, it.Content)
}

// viewerCommands lists the ways to open a file with the desktop's default
// application, in order of preference.
func viewerCommands(path string) [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"open", "-a", "Preview", path}, {"open", path}}
	case "windows":
		return [][]string{{"rundll32", "url.dll,FileProtocolHandler", path}}
	default:
		return [][]string{{"xdg-open", path}, {"gio", "open", path}}
	}
}

func openFile(ctx context.Context, path string) error {
	var lastErr error
	for _, args := range viewerCommands(path) {
		if _, err := exec.LookPath(args[0]); err != nil {
			lastErr = err
			continue
		}
		if err := exec.CommandContext(ctx, args[0], args[1:]...).Run(); err != nil {
			lastErr = fmt.Errorf("%s: %w", args[0], err)
			continue
		}
		return nil
	}
	return fmt.Errorf("open %s: %w", path, lastErr)
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
