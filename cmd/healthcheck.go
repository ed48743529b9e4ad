package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

const healthcheckTimeout = 5 * time.Second

// errHealthcheck is returned once the failure has already been printed
var errHealthcheck = errors.New("healthcheck failed")

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that vedit can reach the backend",
	Long: `Check the health of vedit by verifying:
  • Configuration loading
  • Backend reachability and session count
  • The selected session still exists
  • The live event stream accepts subscriptions
  • The local view history opens

This command is useful for debugging connection issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 vedit Health Check"))
		fmt.Fprintln(out)

		// Step 1: configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		e, err := loadEnv()
		if err != nil {
			return fail(out, "Failed to load configuration", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config dir: %s\n", e.dir)
			fmt.Fprintf(out, "   Server: %s\n", e.cfg.Server)
			fmt.Fprintf(out, "   History: %s\n", e.cfg.HistoryPath)
		}
		fmt.Fprintln(out)

		// Step 2: backend
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting backend..."))
		ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
		defer cancel()
		ids, err := e.client.ListSessions(ctx)
		if err != nil {
			return fail(out, "Backend unreachable at "+e.cfg.Server, err)
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Backend reachable, %d session(s)", len(ids))))
		fmt.Fprintln(out)

		// Step 3: selection
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking selected session..."))
		id, err := e.session()
		switch {
		case err != nil:
			fmt.Fprintln(out, warningStyle.Render("⚠️  No session selected"))
		case !slices.Contains(ids, id):
			fmt.Fprintln(out, warningStyle.Render("⚠️  Selected session no longer exists: ")+id)
			id = ""
		default:
			fmt.Fprintln(out, successStyle.Render("✅ Selected session exists: ")+id)
		}
		fmt.Fprintln(out)

		// Step 4: event stream
		fmt.Fprintln(out, infoStyle.Render("Step 4: Testing event stream..."))
		if id == "" && len(ids) > 0 {
			id = ids[0]
		}
		if id == "" {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Skipped, no session to subscribe to"))
		} else {
			stream, err := e.client.OpenEventStream(ctx, id)
			if err != nil {
				return fail(out, "Event stream rejected the subscription", err)
			}
			_ = stream.Close()
			fmt.Fprintln(out, successStyle.Render("✅ Event stream accepts subscriptions"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   URL: %s\n", e.client.EventsURL(id))
			}
		}
		fmt.Fprintln(out)

		// Step 5: history
		fmt.Fprintln(out, infoStyle.Render("Step 5: Opening view history..."))
		h, err := internal.OpenViewHistory(e.cfg.HistoryPath)
		if err != nil {
			return fail(out, "Failed to open view history", err)
		}
		entries, err := h.Recent("", 1)
		_ = h.Close()
		if err != nil {
			return fail(out, "Failed to read view history", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ View history readable"))
		if healthcheckVerbose && len(entries) > 0 {
			fmt.Fprintf(out, "   Last entry: %s %s\n", entries[0].Event, describeEntry(entries[0]))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, successStyle.Render("✅ All checks passed"))
		return nil
	},
}

func fail(out io.Writer, message string, err error) error {
	fmt.Fprintln(out, errorStyle.Render("❌ "+message+":"), err)
	return fmt.Errorf("%w: %s: %v", errHealthcheck, message, err)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "details", "d", false, "Show detailed diagnostic information")
}
