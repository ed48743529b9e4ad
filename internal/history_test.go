package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/vedit-session/testutil"
)

func openTestHistory(t *testing.T) *ViewHistory {
	t.Helper()
	h, err := OpenViewHistory(":memory:")
	if err != nil {
		t.Fatalf("OpenViewHistory() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestViewHistoryRecordAndRecent(t *testing.T) {
	h := openTestHistory(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []HistoryEntry{
		{At: base, SessionID: "s1", Event: HistoryView, Name: "a.png", Kind: KindAsset, Type: MediaImage, Source: SourceLocal},
		{At: base.Add(time.Second), SessionID: "s1", Event: HistoryView, Name: "clip.mp4", Kind: KindOutput, Type: MediaVideo, Timestamp: ptr(70), Source: SourceServer},
		{At: base.Add(2 * time.Second), SessionID: "s2", Event: HistoryAnnotation, Name: "b.mp4", Label: "[b.mp4 00:05]"},
	}
	for _, e := range entries {
		if err := h.Record(e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	all, err := h.Recent("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Name != "b.mp4" || all[2].Name != "a.png" {
		t.Fatalf("Recent() = %+v, want newest first", all)
	}
	if all[0].Event != HistoryAnnotation || all[0].Label != "[b.mp4 00:05]" || all[0].Timestamp != nil {
		t.Errorf("annotation entry = %+v", all[0])
	}

	s1, err := h.Recent("s1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(s1) != 1 {
		t.Fatalf("Recent(s1, 1) returned %d entries", len(s1))
	}
	got := s1[0]
	if got.Name != "clip.mp4" || got.Kind != KindOutput || got.Type != MediaVideo || got.Source != SourceServer {
		t.Errorf("entry = %+v", got)
	}
	if got.Timestamp == nil || *got.Timestamp != 70 || !got.At.Equal(base.Add(time.Second)) {
		t.Errorf("entry timing = %v at %v", got.Timestamp, got.At)
	}
}

func TestViewHistoryReopensFixture(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "history.db")
	testutil.CreateHistoryFixture(t, path, "old", "first.mp4", "second.mp4")

	h, err := OpenViewHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if err := h.Record(HistoryEntry{SessionID: "old", Event: HistoryView, Name: "third.png"}); err != nil {
		t.Fatal(err)
	}
	got, err := h.Recent("old", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Name != "third.png" || got[2].Name != "first.mp4" {
		t.Errorf("Recent() = %+v", got)
	}
}

func TestRecordingOpener(t *testing.T) {
	h := openTestHistory(t)
	next := newRecordingOpener()
	opener := &RecordingOpener{Next: next, History: h, Session: func() string { return "s1" }}

	opener.Open(ViewRequest{Name: "clip.mp4", Kind: KindOutput, Type: MediaVideo, Timestamp: ptr(3), Source: SourceServer})

	if req := next.next(t); req.Name != "clip.mp4" {
		t.Errorf("forwarded %+v", req)
	}
	got, err := h.Recent("s1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Event != HistoryView || *got[0].Timestamp != 3 {
		t.Errorf("Recent() = %+v", got)
	}

	// a closed journal must not stop the view from opening
	_ = h.Close()
	opener.Open(ViewRequest{Name: "after.png"})
	if req := next.next(t); req.Name != "after.png" {
		t.Errorf("forwarded %+v", req)
	}
}
