package internal

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Backend is the part of the HTTP API the workspace drives
type Backend interface {
	CreateSession(ctx context.Context, name string) (string, error)
	DeleteSession(ctx context.Context, id string) error
	ListMessages(ctx context.Context, id string) ([]Message, error)
	ListAssets(ctx context.Context, id string) ([]FileDescriptor, error)
	ListOutputs(ctx context.Context, id string) ([]FileDescriptor, error)
}

// Channel is an open live-view stream
type Channel interface {
	Close()
}

// ChannelOpener starts the live-view stream for a session
type ChannelOpener func(ctx context.Context, sessionID string) Channel

// PaneResetter is the view pane as seen by the workspace
type PaneResetter interface {
	Reset()
}

// PaneState is the content of one pane. Err holds the transport error of
// its last load, rendered inside the pane.
type PaneState struct {
	Placeholder bool
	Messages    []Message
	Files       []FileDescriptor
	Err         error
}

// Snapshot is a consistent copy of the workspace
type Snapshot struct {
	SessionID  string
	Generation uint64
	Loading    bool
	Chat       PaneState
	Assets     PaneState
	Outputs    PaneState
}

func placeholderSnapshot(id string, gen uint64) Snapshot {
	return Snapshot{
		SessionID:  id,
		Generation: gen,
		Chat:       PaneState{Placeholder: true},
		Assets:     PaneState{Placeholder: true},
		Outputs:    PaneState{Placeholder: true},
	}
}

// Workspace owns the active session. Every selection bumps a generation and
// loads tagged with an older generation are discarded.
type Workspace struct {
	ctx     context.Context
	backend Backend
	pane    PaneResetter
	open    ChannelOpener

	Selection *AssetSelection

	mu        sync.Mutex
	snap      Snapshot
	channel   Channel
	listeners []func(Snapshot)
}

// NewWorkspace creates a workspace with no session selected. Channels are
// opened under ctx.
func NewWorkspace(ctx context.Context, backend Backend, pane PaneResetter, open ChannelOpener) *Workspace {
	return &Workspace{
		ctx:       ctx,
		backend:   backend,
		pane:      pane,
		open:      open,
		Selection: NewAssetSelection(),
		snap:      placeholderSnapshot("", 0),
	}
}

// OnChange registers fn to receive every new snapshot
func (w *Workspace) OnChange(fn func(Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// SessionID returns the active session, "" when none
func (w *Workspace) SessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.SessionID
}

// Snapshot returns the current state
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}

// SelectSession makes id active. The view pane returns to chat, the old
// channel is closed, the three inventories are loaded together and the new
// session's channel is opened once they are applied.
func (w *Workspace) SelectSession(ctx context.Context, id string) error {
	if id == "" {
		w.DeselectSession()
		return nil
	}

	w.mu.Lock()
	gen := w.snap.Generation + 1
	w.snap = placeholderSnapshot(id, gen)
	w.snap.Loading = true
	old := w.channel
	w.channel = nil
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	w.pane.Reset()
	w.Selection.Clear()
	w.notify()

	loaded := w.load(ctx, id)

	w.mu.Lock()
	if w.snap.Generation != gen {
		w.mu.Unlock()
		LogDebug("Discarding stale load for session %s", id)
		return nil
	}
	w.apply(loaded)
	if w.open != nil {
		w.channel = w.open(w.ctx, id)
	}
	w.mu.Unlock()

	w.notify()
	return ctx.Err()
}

// DeselectSession clears every pane and closes the channel
func (w *Workspace) DeselectSession() {
	w.mu.Lock()
	w.snap = placeholderSnapshot("", w.snap.Generation+1)
	old := w.channel
	w.channel = nil
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	w.pane.Reset()
	w.Selection.Clear()
	w.notify()
}

// Refresh reloads the inventories of the active session
func (w *Workspace) Refresh(ctx context.Context) error {
	w.mu.Lock()
	id, gen := w.snap.SessionID, w.snap.Generation
	w.mu.Unlock()
	if id == "" {
		return ErrNoSession
	}

	loaded := w.load(ctx, id)

	w.mu.Lock()
	if w.snap.Generation != gen {
		w.mu.Unlock()
		LogDebug("Discarding stale refresh for session %s", id)
		return nil
	}
	w.apply(loaded)
	w.mu.Unlock()

	w.notify()
	return ctx.Err()
}

// CreateSession creates a session and selects it
func (w *Workspace) CreateSession(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("session name is required")
	}
	id, err := w.backend.CreateSession(ctx, name)
	if err != nil {
		return "", err
	}
	return id, w.SelectSession(ctx, id)
}

// DeleteSession deletes id once confirm approves it. Deleting the active
// session deselects it.
func (w *Workspace) DeleteSession(ctx context.Context, id string, confirm func(id string) bool) error {
	if id == "" {
		return ErrNoSession
	}
	if confirm == nil || !confirm(id) {
		return ErrNotConfirmed
	}
	if err := w.backend.DeleteSession(ctx, id); err != nil {
		return err
	}
	if w.SessionID() == id {
		w.DeselectSession()
	}
	return nil
}

// Close drops the channel without touching the panes
func (w *Workspace) Close() {
	w.mu.Lock()
	old := w.channel
	w.channel = nil
	w.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

type loadResult struct {
	messages    []Message
	messagesErr error
	assets      []FileDescriptor
	assetsErr   error
	outputs     []FileDescriptor
	outputsErr  error
}

// load fetches the three inventories concurrently. A failure stays local
// to its pane, so the goroutines never fail the group.
func (w *Workspace) load(ctx context.Context, id string) loadResult {
	var res loadResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.messages, res.messagesErr = w.backend.ListMessages(gctx, id)
		return nil
	})
	g.Go(func() error {
		res.assets, res.assetsErr = w.backend.ListAssets(gctx, id)
		return nil
	})
	g.Go(func() error {
		res.outputs, res.outputsErr = w.backend.ListOutputs(gctx, id)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{res.messagesErr, res.assetsErr, res.outputsErr} {
		if err != nil {
			LogWarn("Loading session %s: %v", id, err)
		}
	}
	return res
}

// apply must be called with w.mu held
func (w *Workspace) apply(res loadResult) {
	w.snap.Loading = false
	w.snap.Chat = PaneState{Messages: res.messages, Err: res.messagesErr}
	w.snap.Assets = PaneState{Files: res.assets, Err: res.assetsErr}
	w.snap.Outputs = PaneState{Files: res.outputs, Err: res.outputsErr}
	if res.assetsErr == nil {
		w.Selection.Retain(res.assets)
	}
}

func (w *Workspace) notify() {
	w.mu.Lock()
	snap := w.snap
	listeners := append([]func(Snapshot){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
