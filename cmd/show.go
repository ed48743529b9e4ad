package cmd

import (
	"github.com/spf13/cobra"
)

var limit int

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the conversation of the selected session",
	Long: `Display the chat pane of the selected session (or --session).

Use --limit to show only the most recent messages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := e.session()
		if err != nil {
			return err
		}
		snap, err := e.loadSession(cmd.Context(), id)
		if err != nil {
			return err
		}
		if snap.Chat.Err != nil {
			return snap.Chat.Err
		}

		out := cmd.OutOrStdout()
		displaySessionHeader(out, snap)
		displayMessages(out, snap.Chat.Messages, limit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N messages")
}
