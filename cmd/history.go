package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show what was viewed and annotated recently",
	Long: `Show the local journal of view requests and timecode annotations.

Entries are recorded by 'vedit watch --record', 'vedit assets open',
'vedit outputs open' and 'vedit annotate'. Without --all only the selected
session is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		session := ""
		if !historyAll {
			if id, err := e.session(); err == nil {
				session = id
			}
		}

		h, err := internal.OpenViewHistory(e.cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer h.Close()

		entries, err := h.Recent(session, historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, placeholderStyle.Render("No history yet"))
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, entry := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", humanize.Time(entry.At), entry.SessionID, entry.Event, describeEntry(entry))
		}
		return tw.Flush()
	},
}

func describeEntry(entry internal.HistoryEntry) string {
	if entry.Event == internal.HistoryAnnotation {
		return entry.Label
	}
	s := fmt.Sprintf("%s (%s, %s)", entry.Name, entry.Type, entry.Source)
	if entry.Timestamp != nil {
		s += " at " + internal.FormatTimestamp(*entry.Timestamp)
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Show every session")
}
