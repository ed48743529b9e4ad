package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var deleteYes bool

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "List, create and delete sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions on the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ids, err := e.client.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, placeholderStyle.Render("No sessions found. Create one with 'vedit sessions create <name>'."))
			return nil
		}

		active, _ := e.session()
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d session(s)", len(ids))))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, id := range ids {
			mark := " "
			if id == active {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\n", mark, id)
		}
		return tw.Flush()
	},
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a session and select it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ws := e.workspace(cmd.Context(), nil, nil)
		defer ws.Close()

		id, err := ws.CreateSession(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if err := e.state.Save(internal.SavedState{Session: id, Server: e.cfg.Server}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Created and selected session ")+id)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id := args[0]
		ws := e.workspace(cmd.Context(), nil, nil)
		defer ws.Close()

		err = ws.DeleteSession(cmd.Context(), id, confirmer(cmd, deleteYes, "Delete session"))
		if errors.Is(err, internal.ErrNotConfirmed) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		st, err := e.state.Load()
		if err == nil && st.Session == id {
			if err := e.state.Clear(); err != nil {
				internal.LogWarn("Failed to clear selection: %v", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Deleted session ")+id)
		return nil
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the session later commands act on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		snap, err := e.loadSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := e.state.Save(internal.SavedState{Session: snap.SessionID, Server: e.cfg.Server}); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, successStyle.Render("✓ Selected session ")+snap.SessionID)
		displaySessionHeader(out, snap)
		warnPaneErrors(out, snap)
		return nil
	},
}

var deselectCmd = &cobra.Command{
	Use:   "deselect",
	Short: "Forget the selected session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := e.state.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No session selected.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd, selectCmd, deselectCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsCreateCmd, sessionsDeleteCmd)
	sessionsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}
