package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

var (
	watchRecord      bool
	watchFollowState bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the agent's view requests live",
	Long: `Subscribe to the selected session's event stream and show every file the
agent asks to view, seeked to the requested position. The stream reconnects
with exponential backoff when the connection drops.

With --record every view is written to the local history. With
--follow-state the watcher switches session when another vedit invocation
runs 'vedit select'.`,
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := &lockedWriter{w: cmd.OutOrStdout()}
		pane := internal.NewViewPane(internal.NewAnnotationEngine(),
			internal.WithArtworkFetcher(internal.NewTagArtworkFetcher(e.client.HTTPClient())))
		defer pane.Reset()
		pane.OnChange((&viewPrinter{w: out}).print)

		var history *internal.ViewHistory
		if watchRecord {
			h, err := internal.OpenViewHistory(e.cfg.HistoryPath)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer h.Close()
			history = h
		}

		open := func(ctx context.Context, sessionID string) internal.Channel {
			return internal.OpenSyncChannel(ctx, internal.SyncChannelConfig{
				SessionID: sessionID,
				Source:    e.client,
				URLs:      e.client,
				Target:    channelTarget(pane, history, sessionID),
				Reconnect: e.cfg.Reconnect,
				OnState: func(s internal.ChannelState) {
					fmt.Fprintln(out, timestampStyle.Render(fmt.Sprintf("● %s: %s", sessionID, s)))
				},
			})
		}
		ws := e.workspace(ctx, pane, open)
		defer ws.Close()
		ws.OnChange(func(snap internal.Snapshot) {
			if snap.Loading || snap.SessionID == "" {
				return
			}
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Watching %s", snap.SessionID))+" "+
				sessionMetaStyle.Render(fmt.Sprintf("(%d messages, %d assets, %d outputs)",
					len(snap.Chat.Messages), len(snap.Assets.Files), len(snap.Outputs.Files))))
			warnPaneErrors(out, snap)
		})

		if err := ws.SelectSession(ctx, id); err != nil {
			return err
		}
		if sessionMissing(ws.Snapshot()) {
			return fmt.Errorf("session not found: %s", id)
		}

		followed := make(chan struct{})
		if watchFollowState {
			go func() {
				defer close(followed)
				followState(ctx, e, ws, out)
			}()
		} else {
			close(followed)
		}

		<-ctx.Done()
		<-followed
		return nil
	},
}

// channelTarget is where one channel's view requests go. Recording is bound
// to the channel's own session so a late event from a closing channel is not
// journaled under the session that replaced it.
func channelTarget(pane internal.ViewOpener, history *internal.ViewHistory, sessionID string) internal.ViewOpener {
	if history == nil {
		return pane
	}
	return &internal.RecordingOpener{Next: pane, History: history, Session: func() string { return sessionID }}
}

// followState re-selects whenever another invocation changes the selection
func followState(ctx context.Context, e *env, ws *internal.Workspace, out io.Writer) {
	err := internal.WatchState(ctx, e.state, func(st internal.SavedState) {
		if st.Session == "" || st.Session == ws.SessionID() {
			return
		}
		if st.Server != "" && st.Server != e.cfg.Server {
			return
		}
		fmt.Fprintln(out, infoStyle.Render("Selection changed to "+st.Session))
		if err := ws.SelectSession(ctx, st.Session); err != nil {
			internal.LogWarn("Failed to switch to %s: %v", st.Session, err)
		}
	})
	if err != nil {
		internal.LogWarn("Not following selection changes: %v", err)
	}
}

// viewPrinter prints each newly opened view once, plus its artwork when it
// arrives later
type viewPrinter struct {
	w io.Writer

	mu      sync.Mutex
	gen     uint64
	artwork bool
}

func (p *viewPrinter) print(snap internal.PaneSnapshot) {
	if snap.Request == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if snap.Generation != p.gen {
		p.gen = snap.Generation
		p.artwork = snap.Artwork != nil
		displayView(p.w, snap)
		return
	}
	if snap.Artwork != nil && !p.artwork {
		p.artwork = true
		fmt.Fprintf(p.w, "  artwork: %s, %s\n", snap.Artwork.MIMEType, humanize.Bytes(uint64(len(snap.Artwork.Data))))
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchRecord, "record", false, "Record every view in the local history")
	watchCmd.Flags().BoolVar(&watchFollowState, "follow-state", false, "Switch session when the selection changes")
}
