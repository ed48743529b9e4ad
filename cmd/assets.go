package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	deleteAssetsYes bool
	selectClear     bool
	openAt          string
)

var assetsCmd = &cobra.Command{
	Use:     "assets",
	Aliases: []string{"asset"},
	Short:   "Manage the files you gave the agent",
}

var outputsCmd = &cobra.Command{
	Use:     "outputs",
	Aliases: []string{"output"},
	Short:   "Browse the files the agent produced",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets; selected ones are marked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInventory(cmd, internal.KindAsset)
	},
}

var outputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outputs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listInventory(cmd, internal.KindOutput)
	},
}

var assetsUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload local files as assets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := e.session()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		err = internal.ShowProgress(ctx, fmt.Sprintf("Uploading %d file(s)", len(args)), func() error {
			return e.client.UploadAssets(ctx, id, args)
		})
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Uploaded %d file(s) to %s", len(args), id)))
		return nil
	},
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete <name>...",
	Short: "Delete assets by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := e.session()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !confirmer(cmd, deleteAssetsYes, "Delete")(strings.Join(args, ", ")) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}

		res, err := e.client.DeleteAssets(cmd.Context(), id, args)
		if err != nil {
			return fmt.Errorf("failed to delete assets: %w", err)
		}
		sel := e.selection()
		for _, name := range res.Deleted {
			sel.Set(name, false)
			fmt.Fprintln(out, successStyle.Render("✓ Deleted ")+name)
		}
		for _, msg := range res.Errors {
			fmt.Fprintln(out, warningStyle.Render("⚠ ")+msg)
		}
		if err := e.saveSelection(sel); err != nil {
			internal.LogWarn("Failed to update selection: %v", err)
		}
		if len(res.Deleted) == 0 && len(res.Errors) > 0 {
			return fmt.Errorf("no assets deleted")
		}
		return nil
	},
}

var assetsSelectCmd = &cobra.Command{
	Use:   "select [name]...",
	Short: "Toggle which assets are sent along with messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		id, err := e.session()
		if err != nil {
			return err
		}
		assets, err := e.client.ListAssets(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sel := e.selection()
		if selectClear {
			sel.Clear()
		}
		for _, name := range args {
			if _, ok := findFile(assets, name); !ok {
				fmt.Fprintln(out, warningStyle.Render("⚠ no asset named ")+name)
				continue
			}
			sel.Check(name)
		}
		sel.Retain(assets)
		if err := e.saveSelection(sel); err != nil {
			return err
		}
		displayFiles(out, internal.PaneState{Files: assets}, internal.KindAsset, sel.IsSelected)
		return nil
	},
}

var assetsOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open an asset in the view pane",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openFile(cmd, internal.KindAsset, args[0], openAt)
	},
}

var outputsOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open an output in the view pane",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openFile(cmd, internal.KindOutput, args[0], openAt)
	},
}

func listInventory(cmd *cobra.Command, kind internal.FileKind) error {
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

	out := cmd.OutOrStdout()
	if kind == internal.KindAsset {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Assets of %s", id)))
		displayFiles(out, snap.Assets, kind, e.selection().IsSelected)
		return nil
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Outputs of %s", id)))
	displayFiles(out, snap.Outputs, kind, nil)
	return nil
}

// openFile shows one file the way a double-click on its preview would, or
// seeked to at when given
func openFile(cmd *cobra.Command, kind internal.FileKind, name, at string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	id, err := e.session()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var files []internal.FileDescriptor
	if kind == internal.KindAsset {
		files, err = e.client.ListAssets(ctx, id)
	} else {
		files, err = e.client.ListOutputs(ctx, id)
	}
	if err != nil {
		return err
	}
	desc, ok := findFile(files, name)
	if !ok {
		return fmt.Errorf("no %s named %s in session %s", kind, name, id)
	}
	desc.Kind = kind
	if !desc.Type().Viewable() {
		return fmt.Errorf("cannot open %s: %w", name, internal.ErrUnsupportedMedia)
	}

	pane := internal.NewViewPane(internal.NewAnnotationEngine())
	defer pane.Reset()
	var opener internal.ViewOpener = pane
	if h, err := internal.OpenViewHistory(e.cfg.HistoryPath); err != nil {
		internal.LogWarn("View history unavailable: %v", err)
	} else {
		defer h.Close()
		opener = &internal.RecordingOpener{Next: pane, History: h, Session: func() string { return id }}
	}

	preview := internal.BuildPreview(desc, id, e.client, opener)
	if at == "" {
		preview.DoubleClick()
	} else {
		seconds, err := internal.ParseTimestamp(at)
		if err != nil {
			return err
		}
		opener.Open(internal.ViewRequest{
			URL:       preview.URL,
			Name:      desc.Name,
			Kind:      kind,
			Type:      preview.Type,
			Timestamp: &seconds,
			Source:    internal.SourceLocal,
		})
	}

	out := cmd.OutOrStdout()
	displayView(out, pane.Snapshot())

	if preview.Type == internal.MediaAudio {
		art, err := internal.NewTagArtworkFetcher(e.client.HTTPClient()).FetchArtwork(ctx, preview.URL)
		switch {
		case err != nil:
			internal.LogWarn("Artwork lookup failed: %v", err)
		case art != nil:
			fmt.Fprintf(out, "  artwork: %s, %s\n", art.MIMEType, humanize.Bytes(uint64(len(art.Data))))
		default:
			fmt.Fprintln(out, placeholderStyle.Render("  no embedded artwork"))
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(assetsCmd, outputsCmd)
	assetsCmd.AddCommand(assetsListCmd, assetsUploadCmd, assetsDeleteCmd, assetsSelectCmd, assetsOpenCmd)
	outputsCmd.AddCommand(outputsListCmd, outputsOpenCmd)

	assetsDeleteCmd.Flags().BoolVarP(&deleteAssetsYes, "yes", "y", false, "Delete without asking")
	assetsSelectCmd.Flags().BoolVar(&selectClear, "clear", false, "Clear the selection first")
	assetsOpenCmd.Flags().StringVar(&openAt, "at", "", "Seek position, e.g. 01:10 or 70")
	outputsOpenCmd.Flags().StringVar(&openAt, "at", "", "Seek position, e.g. 01:10 or 70")
}
