package internal

import "sync"

// PosterTime is the frame a video thumbnail rests on
const PosterTime = 0.5

// PreviewStyle is how a card renders its file
type PreviewStyle string

const (
	PreviewThumbnail  PreviewStyle = "thumbnail"   // lazily loaded image
	PreviewHoverVideo PreviewStyle = "hover-video" // muted inline video, plays on hover
	PreviewAudioIcon  PreviewStyle = "audio-icon"
	PreviewFileIcon   PreviewStyle = "file-icon"
)

// Preview is the renderable card content for one asset or output
type Preview struct {
	Descriptor FileDescriptor
	SessionID  string
	Type       MediaType
	Style      PreviewStyle
	URL        string
	Lazy       bool
	Muted      bool
	Inline     bool

	mu       sync.Mutex
	pane     ViewOpener
	hovering bool
	position float64
}

// BuildPreview classifies d and prepares its preview. Double-clicking a
// viewable preview opens it in pane.
func BuildPreview(d FileDescriptor, sessionID string, urls URLResolver, pane ViewOpener) *Preview {
	p := &Preview{
		Descriptor: d,
		SessionID:  sessionID,
		Type:       ClassifyMedia(d.Name),
		pane:       pane,
	}
	switch p.Type {
	case MediaImage:
		p.Style = PreviewThumbnail
		p.Lazy = true
	case MediaVideo:
		p.Style = PreviewHoverVideo
		p.Muted = true
		p.Inline = true
		p.position = PosterTime
	case MediaAudio:
		p.Style = PreviewAudioIcon
	default:
		p.Style = PreviewFileIcon
	}
	if p.Type.Viewable() && urls != nil {
		p.URL = urls.MediaURL(sessionID, d.Kind, d.Name)
	}
	return p
}

// Hover plays a video thumbnail while the pointer is over it and rewinds to
// the poster frame when it leaves
func (p *Preview) Hover(over bool) {
	if p.Style != PreviewHoverVideo {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hovering = over
	if !over {
		p.position = PosterTime
	}
}

// Playing reports whether the hover preview is playing
func (p *Preview) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hovering
}

// Position is the thumbnail's frame position in seconds
func (p *Preview) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// DoubleClick opens the file in the view pane. It returns false for
// files the pane cannot show.
func (p *Preview) DoubleClick() bool {
	if !p.Type.Viewable() || p.pane == nil {
		return false
	}
	p.pane.Open(ViewRequest{
		URL:    p.URL,
		Name:   p.Descriptor.Name,
		Kind:   p.Descriptor.Kind,
		Type:   p.Type,
		Source: SourceLocal,
	})
	return true
}
