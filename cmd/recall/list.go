package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/fingerprint"
	"go.klb.dev/recall/internal/history"
)

// previewWidth is the number of characters of text shown per row.
const previewWidth = 60

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent entries",
		Long: `Prints the newest entries, at most max_items of them (default 25).
The REF column is the fingerprint prefix accepted by show, copy and open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error { return runList(cmd, v) },
	}

	f := cmd.Flags()
	f.IntP("max-items", "n", 0, "number of entries to show (default: max_items setting)")
	f.Bool("json", false, "print entries as JSON in the history file format")
	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper) error {
	if err := bindSetting(cmd, v, config.KeyMaxItems, "max-items"); err != nil {
		return err
	}
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	items := e.store.Recent(e.settings.MaxItems)
	if v.GetBool("json") {
		return writeJSON(cmd.OutOrStdout(), items)
	}
	return writeTable(cmd.OutOrStdout(), items)
}

func writeJSON(w io.Writer, items []history.Item) error {
	if items == nil {
		items = []history.Item{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeTable(w io.Writer, items []history.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "History is empty.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tKIND\tCAPTURED\tCONTENT")
	for _, it := range items {
		content := it.Preview(previewWidth)
		if it.IsImage() {
			content = it.Content
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			fingerprint.Short(it.Fingerprint),
			it.Kind,
			it.CapturedAt.Format(history.TimeLayout),
			content,
		)
	}
	return tw.Flush()
}
