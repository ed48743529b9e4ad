package internal

import (
	"errors"
	"testing"
	"time"
)

type staticURLs struct{}

func (staticURLs) MediaURL(sessionID string, kind FileKind, name string) string {
	return "http://h/api/sessions/" + sessionID + "/" + string(kind) + "s/" + name
}

func TestDecodeViewEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind FileKind
		wantPath string
		wantTS   *float64
		wantErr  bool
	}{
		{
			name:     "string timecode",
			payload:  `{"event":"view","data":{"kind":"output","path":"clip.mp4","timestamp":"01:10","updated":1},"updated":1}`,
			wantKind: KindOutput, wantPath: "clip.mp4", wantTS: ptr(70),
		},
		{
			name:     "numeric timestamp",
			payload:  `{"data":{"kind":"asset","path":"a.mp4","timestamp":12}}`,
			wantKind: KindAsset, wantPath: "a.mp4", wantTS: ptr(12),
		},
		{
			name:     "no timestamp",
			payload:  `{"data":{"kind":"asset","path":"a.png"}}`,
			wantKind: KindAsset, wantPath: "a.png",
		},
		{name: "not json", payload: `{`, wantErr: true},
		{name: "missing data", payload: `{"event":"view"}`, wantErr: true},
		{name: "unknown kind", payload: `{"data":{"kind":"draft","path":"a.png"}}`, wantErr: true},
		{name: "missing path", payload: `{"data":{"kind":"asset"}}`, wantErr: true},
		{
			name:     "unreadable timestamp opens without seek",
			payload:  `{"data":{"kind":"asset","path":"a.mp4","timestamp":"later"}}`,
			wantKind: KindAsset, wantPath: "a.mp4",
		},
		{
			name:     "negative timestamp opens without seek",
			payload:  `{"data":{"kind":"output","path":"clip.mp4","timestamp":-4}}`,
			wantKind: KindOutput, wantPath: "clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeViewEvent([]byte(tt.payload))
			if tt.wantErr {
				var perr *PayloadError
				if !errors.As(err, &perr) {
					t.Fatalf("error = %v, want *PayloadError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if ev.Kind != tt.wantKind || ev.Path != tt.wantPath {
				t.Errorf("event = %+v", ev)
			}
			switch {
			case tt.wantTS == nil && ev.Timestamp != nil:
				t.Errorf("timestamp = %v, want none", *ev.Timestamp)
			case tt.wantTS != nil && (ev.Timestamp == nil || *ev.Timestamp != *tt.wantTS):
				t.Errorf("timestamp = %v, want %v", ev.Timestamp, *tt.wantTS)
			}
		})
	}
}

func TestResolveViewEvent(t *testing.T) {
	tests := []struct {
		name      string
		ev        ViewEvent
		wantURL   string
		wantType  MediaType
		wantDelay time.Duration
		wantErr   error
	}{
		{
			name:      "output video",
			ev:        ViewEvent{Kind: KindOutput, Path: "clip.mp4", Timestamp: ptr(70)},
			wantURL:   "http://h/api/sessions/s1/outputs/clip.mp4",
			wantType:  MediaVideo,
			wantDelay: time.Second,
		},
		{
			name:     "asset image",
			ev:       ViewEvent{Kind: KindAsset, Path: "a.png"},
			wantURL:  "http://h/api/sessions/s1/assets/a.png",
			wantType: MediaImage,
		},
		{
			name:     "asset audio",
			ev:       ViewEvent{Kind: KindAsset, Path: "v.mp3"},
			wantURL:  "http://h/api/sessions/s1/assets/v.mp3",
			wantType: MediaAudio,
		},
		{
			name:    "unsupported",
			ev:      ViewEvent{Kind: KindAsset, Path: "notes.txt"},
			wantErr: ErrUnsupportedMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ResolveViewEvent("s1", tt.ev, staticURLs{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if req.URL != tt.wantURL || req.Type != tt.wantType || req.AutoplayDelay != tt.wantDelay {
				t.Errorf("request = %+v", req)
			}
			if req.Source != SourceServer {
				t.Errorf("source = %v, want server", req.Source)
			}
		})
	}
}
