package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// VideoAutoplayDelay lets the player buffer before a server-requested video starts
const VideoAutoplayDelay = time.Second

// ViewEvent is the decoded payload of a "view" server event
type ViewEvent struct {
	Kind      FileKind
	Path      string
	Timestamp *float64
}

type viewPayload struct {
	Kind      string          `json:"kind"`
	Path      string          `json:"path"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// DecodeViewEvent parses {"data": {"kind", "path", "timestamp"}}
func DecodeViewEvent(payload []byte) (ViewEvent, error) {
	var env struct {
		Data *viewPayload `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return ViewEvent{}, &PayloadError{Event: "view", Err: err}
	}
	if env.Data == nil {
		return ViewEvent{}, &PayloadError{Event: "view", Err: errors.New("missing data")}
	}

	var kind FileKind
	switch env.Data.Kind {
	case string(KindAsset):
		kind = KindAsset
	case string(KindOutput):
		kind = KindOutput
	default:
		return ViewEvent{}, &PayloadError{Event: "view", Err: fmt.Errorf("unknown kind %q", env.Data.Kind)}
	}
	if env.Data.Path == "" {
		return ViewEvent{}, &PayloadError{Event: "view", Err: errors.New("missing path")}
	}

	// an unreadable timestamp still opens the file, just without a seek
	ts, err := ParseSeekValue(env.Data.Timestamp)
	if err != nil {
		LogWarn("Ignoring timestamp of %s: %v", env.Data.Path, err)
		ts = nil
	}
	return ViewEvent{Kind: kind, Path: env.Data.Path, Timestamp: ts}, nil
}

// ResolveViewEvent turns a view event into a pane request. Media the pane
// cannot show yields ErrUnsupportedMedia.
func ResolveViewEvent(sessionID string, ev ViewEvent, urls URLResolver) (ViewRequest, error) {
	t := ClassifyMedia(ev.Path)
	if !t.Viewable() {
		return ViewRequest{}, ErrUnsupportedMedia
	}
	var delay time.Duration
	if t == MediaVideo {
		delay = VideoAutoplayDelay
	}
	return ViewRequest{
		URL:           urls.MediaURL(sessionID, ev.Kind, ev.Path),
		Name:          ev.Path,
		Kind:          ev.Kind,
		Type:          t,
		Timestamp:     ev.Timestamp,
		AutoplayDelay: delay,
		Source:        SourceServer,
	}, nil
}
