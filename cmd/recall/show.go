package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/history"
)

func newShowCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Print one entry",
		Long: `Prints the full text of an entry. For images the file path is printed,
or the PNG bytes themselves with --raw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error { return runShow(cmd, v, args[0]) },
	}

	cmd.Flags().Bool("raw", false, "write image bytes instead of the file path")
	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, v *viper.Viper, ref string) error {
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	it, err := e.store.Lookup(ref)
	if err != nil {
		return err
	}
	return showItem(cmd.OutOrStdout(), e.store, it, v.GetBool("raw"))
}

func showItem(w io.Writer, s *history.Store, it history.Item, raw bool) error {
	if !it.IsImage() {
		_, err := io.WriteString(w, it.Content)
		return err
	}
	if !raw {
		_, err := fmt.Fprintln(w, it.Content)
		return err
	}
	data, err := s.ReadImage(it)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	_, err = w.Write(data)
	return err
}
