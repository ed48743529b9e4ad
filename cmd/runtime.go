package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iksnae/vedit-session/internal"
	"github.com/spf13/cobra"
)

// env is what every command needs to reach the backend and the local state
type env struct {
	dir    string
	cfg    internal.Config
	client *internal.Client
	state  *internal.StateStore
}

func loadEnv() (*env, error) {
	dir, err := internal.ConfigDir()
	if err != nil {
		return nil, err
	}
	cfg, err := internal.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	client, err := internal.NewClient(cfg.Server, internal.WithAPIPrefix(cfg.APIPrefix))
	if err != nil {
		return nil, err
	}
	internal.LogDebug("Using backend %s (config dir %s)", cfg.Server, dir)
	return &env{
		dir:    dir,
		cfg:    cfg,
		client: client,
		state:  internal.NewStateStore(cfg.StatePath),
	}, nil
}

// session returns --session, or the session selected against this server
func (e *env) session() (string, error) {
	if sessionFlag != "" {
		return sessionFlag, nil
	}
	st, err := e.state.Load()
	if err != nil {
		return "", err
	}
	if st.Session != "" && st.Server != "" && st.Server != e.cfg.Server {
		internal.LogDebug("Ignoring selection %s made against %s", st.Session, st.Server)
		st.Session = ""
	}
	if st.Session == "" {
		return "", fmt.Errorf("%w: run 'vedit select <id>' or pass --session", internal.ErrNoSession)
	}
	return st.Session, nil
}

// selection rebuilds the asset selection saved for the active session
func (e *env) selection() *internal.AssetSelection {
	sel := internal.NewAssetSelection()
	st, err := e.state.Load()
	if err != nil {
		internal.LogWarn("Failed to load state: %v", err)
		return sel
	}
	for _, name := range st.SelectedAssets {
		sel.Set(name, true)
	}
	return sel
}

func (e *env) saveSelection(sel *internal.AssetSelection) error {
	return e.state.Update(func(st *internal.SavedState) {
		st.SelectedAssets = sel.Names()
	})
}

func (e *env) workspace(ctx context.Context, pane internal.PaneResetter, open internal.ChannelOpener) *internal.Workspace {
	if pane == nil {
		pane = internal.NewViewPane(internal.NewAnnotationEngine())
	}
	return internal.NewWorkspace(ctx, e.client, pane, open)
}

// loadSession selects id in a fresh workspace and returns what was loaded
func (e *env) loadSession(ctx context.Context, id string) (internal.Snapshot, error) {
	ws := e.workspace(ctx, nil, nil)
	defer ws.Close()
	if err := ws.SelectSession(ctx, id); err != nil {
		return internal.Snapshot{}, err
	}
	snap := ws.Snapshot()
	if sessionMissing(snap) {
		return snap, fmt.Errorf("session not found: %s", id)
	}
	return snap, nil
}

func sessionMissing(snap internal.Snapshot) bool {
	for _, err := range []error{snap.Chat.Err, snap.Assets.Err, snap.Outputs.Err} {
		var terr *internal.TransportError
		if !errors.As(err, &terr) || terr.Status != http.StatusNotFound {
			return false
		}
	}
	return true
}

func findFile(files []internal.FileDescriptor, name string) (internal.FileDescriptor, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return internal.FileDescriptor{}, false
}

// confirmer asks on the command's input unless yes is set
func confirmer(cmd *cobra.Command, yes bool, question string) func(string) bool {
	return func(target string) bool {
		if yes {
			return true
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s? [y/N] ", question, target)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
