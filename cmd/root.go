package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	serverURL   string
	sessionFlag string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vedit",
	Short: "Terminal client for the video editing agent",
	Long: `A command-line client for the video editing agent backend.

Sessions hold a conversation with the agent, the assets you uploaded and the
outputs the agent produced. The agent can ask the client to show a file at a
given position, and 'vedit watch' follows those requests live.

Features:
  • Create, select and delete sessions
  • Upload, list and delete assets, browse outputs
  • Chat with the agent, referencing selected assets
  • Follow live view requests with automatic reconnection
  • Insert [file 01:10] timecode labels into prompts
  • Record a local history of what was shown
  • Export transcripts (Markdown, JSON, JSONL, YAML)

Quick Start:
  vedit sessions create demo            # Create and select a session
  vedit assets upload clip.mp4          # Upload an asset
  vedit send "Trim the intro"           # Talk to the agent
  vedit watch                           # Follow the agent's view requests`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend URL (overrides config and VEDIT_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "", "Session to act on instead of the selected one")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
