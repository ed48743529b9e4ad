package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeMessage is a transcript entry as the backend stores it
type FakeMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// FakeFile is an inventory entry as the backend lists it
type FakeFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified,omitempty"`
}

// FakeSession is the server-side state of one session
type FakeSession struct {
	Messages []FakeMessage
	Assets   []FakeFile
	Outputs  []FakeFile
	Files    map[string][]byte // "assets/<name>" or "outputs/<name>"
}

// SentMessage records a POST /message form
type SentMessage struct {
	Session    string
	Message    string
	Model      string
	AssetNames []string
}

// FakeBackend is an httptest server speaking the backend's JSON and
// text/event-stream API under /api
type FakeBackend struct {
	Server *httptest.Server

	// BeforeHandle, when set, runs before every request is served.
	BeforeHandle func(r *http.Request)
	// Reply is what POST /message answers.
	Reply string

	mu          sync.Mutex
	sessions    map[string]*FakeSession
	requests    []string
	sent        []SentMessage
	uploads     map[string][]string
	subscribers map[string][]chan string
	failures    map[string]int
	closed      bool
}

// NewFakeBackend starts a fake backend closed at test cleanup
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	b := &FakeBackend{
		Reply:       "done",
		sessions:    make(map[string]*FakeSession),
		uploads:     make(map[string][]string),
		subscribers: make(map[string][]chan string),
		failures:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions", b.listSessions)
	mux.HandleFunc("POST /api/sessions", b.createSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", b.deleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", b.listMessages)
	mux.HandleFunc("GET /api/sessions/{id}/assets", b.listFiles("assets"))
	mux.HandleFunc("GET /api/sessions/{id}/outputs", b.listFiles("outputs"))
	mux.HandleFunc("GET /api/sessions/{id}/assets/{name...}", b.serveFile("assets"))
	mux.HandleFunc("GET /api/sessions/{id}/outputs/{name...}", b.serveFile("outputs"))
	mux.HandleFunc("POST /api/sessions/{id}/assets/upload", b.uploadAssets)
	mux.HandleFunc("POST /api/sessions/{id}/assets/delete", b.deleteAssets)
	mux.HandleFunc("POST /api/sessions/{id}/message", b.sendMessage)
	mux.HandleFunc("GET /api/sessions/{id}/events", b.events)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		status := b.failures[r.Method+" "+r.URL.Path]
		hook := b.BeforeHandle
		b.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

// URL is the server root, without the /api prefix
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// Close ends every event stream and stops the server
func (b *FakeBackend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.DropStreams("")
	b.Server.CloseClientConnections()
	b.Server.Close()
}

// AddSession installs a session, replacing any existing one with that id
func (b *FakeBackend) AddSession(id string, s *FakeSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		s = &FakeSession{}
	}
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	b.sessions[id] = s
}

// HasSession reports whether id exists
func (b *FakeBackend) HasSession(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[id]
	return ok
}

// Fail makes "METHOD /path" answer status until cleared with status 0
func (b *FakeBackend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, method+" "+path)
		return
	}
	b.failures[method+" "+path] = status
}

// Requests returns "METHOD /path" for every request served so far
func (b *FakeBackend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Sent returns the messages posted so far
func (b *FakeBackend) Sent() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.sent...)
}

// Uploaded returns the file names uploaded to a session
func (b *FakeBackend) Uploaded(id string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploads[id]...)
}

// Subscribers returns the number of open event streams of a session
func (b *FakeBackend) Subscribers(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[id])
}

// WaitSubscribers waits until a session has n open event streams
func (b *FakeBackend) WaitSubscribers(t *testing.T, id string, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b.Subscribers(id) == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s has %d event streams, want %d", id, b.Subscribers(id), n)
}

// Emit sends a raw text/event-stream frame to every stream of a session
func (b *FakeBackend) Emit(id, event, data string) {
	var frame strings.Builder
	if event != "" {
		fmt.Fprintf(&frame, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&frame, "data: %s\n", line)
	}
	frame.WriteString("\n")

	b.mu.Lock()
	subs := append([]chan string(nil), b.subscribers[id]...)
	b.mu.Unlock()
	for _, ch := range subs {
		ch <- frame.String()
	}
}

// EmitView sends a view event the way the backend broadcasts it
func (b *FakeBackend) EmitView(id, kind, path string, timestamp interface{}) {
	payload := map[string]interface{}{
		"event": "view",
		"data": map[string]interface{}{
			"kind":      kind,
			"path":      path,
			"timestamp": timestamp,
			"updated":   time.Now().Unix(),
		},
		"updated": time.Now().Unix(),
	}
	data, _ := json.Marshal(payload)
	b.Emit(id, "view", string(data))
}

// DropStreams ends the event streams of a session, or of all sessions
// when id is ""
func (b *FakeBackend) DropStreams(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sid, subs := range b.subscribers {
		if id != "" && sid != id {
			continue
		}
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, sid)
	}
}

func (b *FakeBackend) session(w http.ResponseWriter, r *http.Request) (string, *FakeSession, bool) {
	id := r.PathValue("id")
	b.mu.Lock()
	s, ok := b.sessions[id]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	return id, s, ok
}

func (b *FakeBackend) listSessions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ids := make([]string, 0, len(b.sessions))
	for id := range b.sessions {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
}

func (b *FakeBackend) createSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session name is required"})
		return
	}
	b.AddSession(name, nil)
	writeJSON(w, http.StatusOK, map[string]string{"session": name})
}

func (b *FakeBackend) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, _, ok := b.session(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.sessions, id)
	b.mu.Unlock()
	b.DropStreams(id)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (b *FakeBackend) listMessages(w http.ResponseWriter, r *http.Request) {
	_, s, ok := b.session(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	msgs := append([]FakeMessage{}, s.Messages...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

func (b *FakeBackend) listFiles(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, s, ok := b.session(w, r)
		if !ok {
			return
		}
		b.mu.Lock()
		files := s.Assets
		if kind == "outputs" {
			files = s.Outputs
		}
		files = append([]FakeFile{}, files...)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{kind: files})
	}
}

func (b *FakeBackend) serveFile(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, s, ok := b.session(w, r)
		if !ok {
			return
		}
		b.mu.Lock()
		data, found := s.Files[kind+"/"+r.PathValue("name")]
		b.mu.Unlock()
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
			return
		}
		_, _ = w.Write(data)
	}
}

func (b *FakeBackend) uploadAssets(w http.ResponseWriter, r *http.Request) {
	id, s, ok := b.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var saved []string
	b.mu.Lock()
	for _, fh := range r.MultipartForm.File["files"] {
		saved = append(saved, fh.Filename)
		b.uploads[id] = append(b.uploads[id], fh.Filename)
		s.Assets = append(s.Assets, FakeFile{Name: fh.Filename, Size: fh.Size})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"saved": saved})
}

func (b *FakeBackend) deleteAssets(w http.ResponseWriter, r *http.Request) {
	_, s, ok := b.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	deleted, failed := []string{}, []string{}
	b.mu.Lock()
	for _, name := range r.MultipartForm.Value["asset_names"] {
		idx := -1
		for i, f := range s.Assets {
			if f.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			failed = append(failed, name+": not found")
			continue
		}
		s.Assets = append(s.Assets[:idx], s.Assets[idx+1:]...)
		deleted = append(deleted, name)
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted, "errors": failed})
}

func (b *FakeBackend) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, s, ok := b.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	msg := SentMessage{Session: id, Message: r.FormValue("message"), Model: r.FormValue("model")}
	if raw := r.FormValue("asset_names"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &msg.AssetNames); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid asset_names"})
			return
		}
	}
	b.mu.Lock()
	b.sent = append(b.sent, msg)
	reply := b.Reply
	s.Messages = append(s.Messages,
		FakeMessage{Role: "human", Text: msg.Message},
		FakeMessage{Role: "ai", Text: reply},
	)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (b *FakeBackend) events(w http.ResponseWriter, r *http.Request) {
	id, _, ok := b.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan string, 16)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	b.subscribers[id] = append(b.subscribers[id], ch)
	b.mu.Unlock()
	defer b.unsubscribe(id, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-ch:
			if !open {
				return
			}
			_, _ = fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}
}

func (b *FakeBackend) unsubscribe(id string, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[id]
	for i, c := range subs {
		if c == ch {
			b.subscribers[id] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
