package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	annotateMarks []string
	annotateSend  bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <prompt>",
	Short: "Insert timecode labels into a prompt",
	Long: `Append timecode labels to a prompt the way double-clicking a media
seek bar does.

Each --mark is file@time, @time for a bare timecode, or just file for a file
reference. Two consecutive marks on the same file become a range label.

Examples:
  vedit annotate "Cut here" --mark clip.mp4@01:10
  vedit annotate "Keep" --mark clip.mp4@00:05 --mark clip.mp4@00:12 --send`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if len(annotateMarks) == 0 {
			return fmt.Errorf("at least one --mark is required")
		}

		field := internal.NewTextField("prompt")
		field.SetText(args[0])
		engine := internal.NewAnnotationEngine()

		var marks []annotation
		lastTimecode := -1
		for _, mark := range annotateMarks {
			a, err := applyMark(engine, field, mark)
			if err != nil {
				return err
			}
			switch {
			case a.Merged && lastTimecode >= 0:
				marks[lastTimecode] = a
			case a.timecode:
				lastTimecode = len(marks)
				marks = append(marks, a)
			default:
				marks = append(marks, a)
			}
		}

		id, idErr := e.session()
		recordAnnotations(e, id, marks)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, field.Text())
		if !annotateSend {
			return nil
		}
		if idErr != nil {
			return idErr
		}
		reply, err := sendMessage(cmd, e, id, field.Text())
		if err != nil {
			return err
		}
		displayMessage(out, 0, internal.Message{Role: internal.RoleAgent, Text: reply}, 0)
		return nil
	},
}

type annotation struct {
	internal.InsertResult
	File     string
	timecode bool
}

// applyMark inserts one file@time mark at the end of field
func applyMark(engine *internal.AnnotationEngine, field *internal.TextField, mark string) (annotation, error) {
	field.SetCursor(len([]rune(field.Text())))

	at := strings.LastIndex(mark, "@")
	if at < 0 {
		file := strings.TrimSpace(mark)
		return annotation{InsertResult: engine.InsertFileReference(field, file), File: file}, nil
	}
	file, timeText := strings.TrimSpace(mark[:at]), strings.TrimSpace(mark[at+1:])
	seconds, err := internal.ParseTimestamp(timeText)
	if err != nil {
		return annotation{}, err
	}
	return annotation{InsertResult: engine.InsertAt(field, seconds, file), File: file, timecode: true}, nil
}

func recordAnnotations(e *env, session string, marks []annotation) {
	h, err := internal.OpenViewHistory(e.cfg.HistoryPath)
	if err != nil {
		internal.LogWarn("View history unavailable: %v", err)
		return
	}
	defer h.Close()
	for _, a := range marks {
		if a.Label == "" {
			continue
		}
		err := h.Record(internal.HistoryEntry{
			SessionID: session,
			Event:     internal.HistoryAnnotation,
			Name:      a.File,
			Label:     a.Label,
		})
		if err != nil {
			internal.LogWarn("Failed to record annotation: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().StringArrayVar(&annotateMarks, "mark", nil, "file@time to insert (repeatable)")
	annotateCmd.Flags().BoolVar(&annotateSend, "send", false, "Send the annotated prompt to the agent")
}
