package internal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/iksnae/vedit-session/testutil"
)

type fakeChannel struct {
	session string

	mu     sync.Mutex
	closed bool
}

func (c *fakeChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type channelLog struct {
	mu       sync.Mutex
	channels []*fakeChannel
}

func (l *channelLog) open(ctx context.Context, id string) Channel {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &fakeChannel{session: id}
	l.channels = append(l.channels, c)
	return c
}

func (l *channelLog) all() []*fakeChannel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeChannel(nil), l.channels...)
}

func newTestWorkspace(t *testing.T) (*Workspace, *testutil.FakeBackend, *ViewPane, *channelLog) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	backend.AddSession("a", &testutil.FakeSession{
		Messages: []testutil.FakeMessage{{Role: "human", Text: "from a"}},
		Assets:   []testutil.FakeFile{{Name: "a.png"}},
		Outputs:  []testutil.FakeFile{{Name: "a.mp4", Modified: 1}},
	})
	backend.AddSession("b", &testutil.FakeSession{
		Messages: []testutil.FakeMessage{{Role: "ai", Text: "from b"}},
		Assets:   []testutil.FakeFile{{Name: "b.png"}},
	})
	client, err := NewClient(backend.URL())
	if err != nil {
		t.Fatal(err)
	}
	pane, _, _ := newTestPane()
	log := &channelLog{}
	ws := NewWorkspace(context.Background(), client, pane, log.open)
	return ws, backend, pane, log
}

func TestWorkspaceSelectSession(t *testing.T) {
	ws, _, pane, log := newTestWorkspace(t)
	pane.Open(ViewRequest{Name: "x.png", Type: MediaImage})

	var seen []Snapshot
	ws.OnChange(func(s Snapshot) { seen = append(seen, s) })

	if err := ws.SelectSession(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}

	snap := ws.Snapshot()
	if snap.SessionID != "a" || snap.Loading {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Chat.Messages) != 1 || snap.Chat.Messages[0].Text != "from a" {
		t.Errorf("chat = %+v", snap.Chat)
	}
	if len(snap.Assets.Files) != 1 || len(snap.Outputs.Files) != 1 {
		t.Errorf("inventories = %+v / %+v", snap.Assets, snap.Outputs)
	}
	if pane.Mode() != ModeChat {
		t.Error("selecting a session should return the view pane to chat")
	}
	if len(seen) != 2 || !seen[0].Loading || seen[0].SessionID != "a" {
		t.Errorf("notifications = %+v, want loading then loaded", seen)
	}
	if chans := log.all(); len(chans) != 1 || chans[0].session != "a" {
		t.Errorf("channels = %+v", chans)
	}

	if err := ws.SelectSession(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	chans := log.all()
	if len(chans) != 2 || !chans[0].Closed() || chans[1].Closed() {
		t.Error("exactly one channel should stay open, for the new session")
	}
}

func TestWorkspaceDiscardsStaleLoads(t *testing.T) {
	ws, backend, _, log := newTestWorkspace(t)

	release := make(chan struct{})
	arrived := make(chan struct{})
	var once sync.Once
	backend.BeforeHandle = func(r *http.Request) {
		if r.URL.Path == "/api/sessions/a/messages" {
			once.Do(func() { close(arrived) })
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- ws.SelectSession(context.Background(), "a") }()
	<-arrived

	if err := ws.SelectSession(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	snap := ws.Snapshot()
	if snap.SessionID != "b" {
		t.Fatalf("session = %q, want b", snap.SessionID)
	}
	if len(snap.Chat.Messages) != 1 || snap.Chat.Messages[0].Text != "from b" {
		t.Errorf("chat = %+v, stale session data leaked", snap.Chat)
	}
	if len(snap.Assets.Files) != 1 || snap.Assets.Files[0].Name != "b.png" {
		t.Errorf("assets = %+v", snap.Assets)
	}
	for _, c := range log.all() {
		if c.session == "a" {
			t.Error("a stale load must not open a channel")
		}
	}
}

func TestWorkspacePaneLocalErrors(t *testing.T) {
	ws, backend, _, _ := newTestWorkspace(t)
	backend.Fail(http.MethodGet, "/api/sessions/a/outputs", http.StatusInternalServerError)

	if err := ws.SelectSession(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	snap := ws.Snapshot()
	var terr *TransportError
	if !errors.As(snap.Outputs.Err, &terr) {
		t.Errorf("outputs error = %v, want TransportError", snap.Outputs.Err)
	}
	if snap.Chat.Err != nil || snap.Assets.Err != nil || len(snap.Assets.Files) != 1 {
		t.Errorf("other panes should load normally: %+v", snap)
	}
}

func TestWorkspaceDeleteSession(t *testing.T) {
	ws, backend, pane, log := newTestWorkspace(t)
	ctx := context.Background()
	if err := ws.SelectSession(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	ws.Selection.Check("a.png")
	pane.Open(ViewRequest{Name: "a.mp4", Type: MediaVideo})

	if err := ws.DeleteSession(ctx, "a", func(string) bool { return false }); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("unconfirmed delete error = %v", err)
	}
	if !backend.HasSession("a") {
		t.Fatal("unconfirmed delete reached the backend")
	}
	if err := ws.DeleteSession(ctx, "a", nil); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("nil confirm error = %v", err)
	}

	var asked string
	if err := ws.DeleteSession(ctx, "a", func(id string) bool { asked = id; return true }); err != nil {
		t.Fatal(err)
	}
	if asked != "a" || backend.HasSession("a") {
		t.Errorf("confirm asked %q, backend has a: %v", asked, backend.HasSession("a"))
	}

	snap := ws.Snapshot()
	if snap.SessionID != "" || !snap.Chat.Placeholder || !snap.Assets.Placeholder || !snap.Outputs.Placeholder {
		t.Errorf("snapshot after delete = %+v", snap)
	}
	if ps := pane.Snapshot(); ps.Mode != ModeChat || ps.Request != nil {
		t.Errorf("view pane after delete = %+v", ps)
	}
	if len(ws.Selection.Names()) != 0 {
		t.Error("selection should be cleared")
	}
	if !log.all()[0].Closed() {
		t.Error("channel should be closed")
	}

	if err := ws.DeleteSession(ctx, "", func(string) bool { return true }); !errors.Is(err, ErrNoSession) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestWorkspaceDeleteOtherSessionKeepsActive(t *testing.T) {
	ws, _, _, _ := newTestWorkspace(t)
	ctx := context.Background()
	_ = ws.SelectSession(ctx, "a")
	if err := ws.DeleteSession(ctx, "b", func(string) bool { return true }); err != nil {
		t.Fatal(err)
	}
	if ws.SessionID() != "a" {
		t.Errorf("active session = %q, want a", ws.SessionID())
	}
}

func TestWorkspaceCreateAndRefresh(t *testing.T) {
	ws, backend, _, _ := newTestWorkspace(t)
	ctx := context.Background()

	if err := ws.Refresh(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Refresh() without session error = %v", err)
	}
	if _, err := ws.CreateSession(ctx, "   "); err == nil {
		t.Error("blank name should be rejected")
	}

	id, err := ws.CreateSession(ctx, " fresh ")
	if err != nil {
		t.Fatal(err)
	}
	if id != "fresh" || ws.SessionID() != "fresh" {
		t.Errorf("created %q, active %q", id, ws.SessionID())
	}
	if len(ws.Snapshot().Assets.Files) != 0 {
		t.Error("new session should have no assets")
	}

	backend.AddSession("fresh", &testutil.FakeSession{Assets: []testutil.FakeFile{{Name: "up.mp4"}}})
	if err := ws.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if files := ws.Snapshot().Assets.Files; len(files) != 1 || files[0].Name != "up.mp4" {
		t.Errorf("assets after refresh = %+v", files)
	}
}

func TestWorkspaceDeselect(t *testing.T) {
	ws, _, _, log := newTestWorkspace(t)
	ctx := context.Background()
	_ = ws.SelectSession(ctx, "a")

	if err := ws.SelectSession(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if ws.SessionID() != "" || !log.all()[0].Closed() {
		t.Error("selecting the empty id should deselect")
	}
	if !ws.Snapshot().Chat.Placeholder {
		t.Error("chat should show the placeholder")
	}
}
