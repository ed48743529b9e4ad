package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	sendModel  string
	sendAssets []string
)

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message to the agent",
	Long: `Send a message to the agent of the selected session and print its reply.

The selected assets (see 'vedit assets select') are sent along unless
--asset names others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := e.session()
		if err != nil {
			return err
		}
		reply, err := sendMessage(cmd, e, id, strings.Join(args, " "))
		if err != nil {
			return err
		}
		displayMessage(cmd.OutOrStdout(), 0, internal.Message{Role: internal.RoleAgent, Text: reply}, 0)
		return nil
	},
}

func sendMessage(cmd *cobra.Command, e *env, id, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("message is empty")
	}
	model := sendModel
	if model == "" {
		model = e.cfg.Model
	}
	assets := sendAssets
	if len(assets) == 0 {
		assets = e.selection().Names()
	}

	ctx := cmd.Context()
	var reply string
	err := internal.ShowProgress(ctx, "Waiting for the agent", func() error {
		var err error
		reply, err = e.client.SendMessage(ctx, id, text, model, assets)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return reply, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendModel, "model", "m", "", "Model to use (defaults to config or VEDIT_MODEL)")
	sendCmd.Flags().StringSliceVarP(&sendAssets, "asset", "a", nil, "Asset to reference (repeatable)")
}
