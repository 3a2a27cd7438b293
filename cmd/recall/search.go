package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/config"
	"go.klb.dev/recall/internal/fingerprint"
	"go.klb.dev/recall/internal/history"
)

func newSearchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Fuzzy-search text entries",
		Long: `Ranks text entries against the query, best match first. Characters of
the query must appear in order but need not be adjacent.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, v, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.IntP("max-items", "n", 0, "number of matches to show (default: max_items setting)")
	f.Bool("json", false, "print matches as JSON in the history file format")
	addStoreFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runSearch(cmd *cobra.Command, v *viper.Viper, query string) error {
	if err := bindSetting(cmd, v, config.KeyMaxItems, "max-items"); err != nil {
		return err
	}
	e, err := openEnv(cmd, v)
	if err != nil {
		return err
	}
	defer e.close()

	matches := history.Search(e.store.Items(), query)
	if n := e.settings.MaxItems; len(matches) > n {
		matches = matches[:n]
	}

	if v.GetBool("json") {
		items := make([]history.Item, len(matches))
		for i, m := range matches {
			items[i] = m.Item
		}
		return writeJSON(cmd.OutOrStdout(), items)
	}
	return writeMatches(cmd.OutOrStdout(), matches)
}

func writeMatches(w io.Writer, matches []history.Match) error {
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tSCORE\tCAPTURED\tCONTENT")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			fingerprint.Short(m.Item.Fingerprint),
			m.Score,
			m.Item.CapturedAt.Format(history.TimeLayout),
			m.Item.Preview(previewWidth),
		)
	}
	return tw.Flush()
}
