package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/vedit-session/internal"
	"github.com/iksnae/vedit-session/internal/export"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	format    string
	outputDir string
	exportAll bool
)

const exportConcurrency = 4

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session transcripts",
	Long: `Export the conversation and inventories of a session in one of
jsonl, md, yaml or json.

Without --out the selected session is written to stdout. With --all every
session on the backend is exported into --out (default ./exports).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var ids []string
		if exportAll {
			if ids, err = e.client.ListSessions(ctx); err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = "./exports"
			}
		} else {
			id, err := e.session()
			if err != nil {
				return err
			}
			ids = []string{id}
		}

		var transcripts []*internal.Transcript
		steps := []internal.ProgressStep{
			{
				Message: fmt.Sprintf("Loading %d session(s)", len(ids)),
				Fn: func() error {
					var loadErr error
					transcripts, loadErr = loadTranscripts(ctx, e, ids)
					return loadErr
				},
			},
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}

		if outputDir == "" {
			return exporter.Export(transcripts[0], cmd.OutOrStdout())
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		written := 0
		for _, t := range transcripts {
			path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", t.SessionID, exporter.Extension()))
			if err := writeTranscript(exporter, t, path); err != nil {
				internal.LogError("Failed to export session %s: %v", t.SessionID, err)
				continue
			}
			written++
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ Export complete: %d session(s) exported to %s", written, outputDir)))
		return nil
	},
}

// loadTranscripts loads sessions concurrently, keeping the order of ids
func loadTranscripts(ctx context.Context, e *env, ids []string) ([]*internal.Transcript, error) {
	transcripts := make([]*internal.Transcript, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			snap, err := e.loadSession(gctx, id)
			if err != nil {
				return err
			}
			if snap.Chat.Err != nil {
				return fmt.Errorf("session %s: %w", id, snap.Chat.Err)
			}
			warnPaneErrors(os.Stderr, snap)
			transcripts[i] = &internal.Transcript{
				SessionID: id,
				Messages:  snap.Chat.Messages,
				Assets:    snap.Assets.Files,
				Outputs:   snap.Outputs.Files,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return transcripts, nil
}

func writeTranscript(exporter export.Exporter, t *internal.Transcript, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (stdout when empty)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")
}
