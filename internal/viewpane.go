package internal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ViewMode selects which of the two exclusive panes is visible
type ViewMode int

const (
	ModeChat ViewMode = iota
	ModeView
)

func (m ViewMode) String() string {
	switch m {
	case ModeChat:
		return "chat"
	case ModeView:
		return "view"
	default:
		return fmt.Sprintf("ViewMode(%d)", int(m))
	}
}

// ViewSource records who asked for a view
type ViewSource string

const (
	SourceLocal  ViewSource = "local"
	SourceServer ViewSource = "server"
)

// ViewRequest is a resolved request to show media in the view pane
type ViewRequest struct {
	URL           string
	Name          string
	Kind          FileKind
	Type          MediaType
	Timestamp     *float64 // seek position in seconds, nil for none
	AutoplayDelay time.Duration
	Source        ViewSource
}

// ViewOpener is the single entry point that shows media. Both the sync
// channel and local previews go through it.
type ViewOpener interface {
	Open(req ViewRequest)
}

// MediaOpener creates the media element for a playable request
type MediaOpener interface {
	OpenMedia(req ViewRequest) (MediaElement, error)
}

// MediaOpenerFunc adapts a function to MediaOpener
type MediaOpenerFunc func(req ViewRequest) (MediaElement, error)

func (f MediaOpenerFunc) OpenMedia(req ViewRequest) (MediaElement, error) {
	return f(req)
}

// PaneSnapshot is a copy of what the view pane currently shows
type PaneSnapshot struct {
	Mode       ViewMode
	Request    *ViewRequest // nil shows the placeholder
	Artwork    *Artwork
	Control    *ControlState
	Generation uint64
}

const artworkTimeout = 10 * time.Second

// ViewPane owns the chat/view mode and the media currently open. The last
// call to Open wins; stale element loads, artwork fetches and autoplay
// timers are discarded by generation.
type ViewPane struct {
	mu           sync.Mutex
	mode         ViewMode
	current      *ViewRequest
	element      MediaElement
	control      *MediaControl
	artwork      *Artwork
	generation   uint64
	stopAutoplay func() bool
	cancelFetch  context.CancelFunc

	engine     *AnnotationEngine
	chatInput  TextInput
	viewInput  TextInput
	opener     MediaOpener
	artworks   ArtworkFetcher
	fullscreen FullscreenTarget
	schedule   func(d time.Duration, fn func()) func() bool
	listeners  []func(PaneSnapshot)
}

// ViewPaneOption configures a ViewPane
type ViewPaneOption func(*ViewPane)

// WithMediaOpener sets how playable media elements are created
func WithMediaOpener(o MediaOpener) ViewPaneOption {
	return func(p *ViewPane) {
		p.opener = o
	}
}

// WithArtworkFetcher enables artwork lookup for audio
func WithArtworkFetcher(f ArtworkFetcher) ViewPaneOption {
	return func(p *ViewPane) {
		p.artworks = f
	}
}

// WithFullscreenTarget sets the container fullscreen toggles apply to
func WithFullscreenTarget(t FullscreenTarget) ViewPaneOption {
	return func(p *ViewPane) {
		p.fullscreen = t
	}
}

// WithInputs replaces the chat and view prompt inputs
func WithInputs(chat, view TextInput) ViewPaneOption {
	return func(p *ViewPane) {
		p.chatInput = chat
		p.viewInput = view
	}
}

// WithScheduler replaces time.AfterFunc for autoplay timers
func WithScheduler(schedule func(d time.Duration, fn func()) func() bool) ViewPaneOption {
	return func(p *ViewPane) {
		p.schedule = schedule
	}
}

// NewViewPane creates a pane in chat mode showing the placeholder
func NewViewPane(engine *AnnotationEngine, opts ...ViewPaneOption) *ViewPane {
	p := &ViewPane{
		mode:      ModeChat,
		engine:    engine,
		chatInput: NewTextField("chat"),
		viewInput: NewTextField("view"),
		opener: MediaOpenerFunc(func(req ViewRequest) (MediaElement, error) {
			return NewHeadlessElement(0, AudioUnknown), nil
		}),
		schedule: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnChange registers fn to receive a snapshot after every visible change
func (p *ViewPane) OnChange(fn func(PaneSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Open shows req, superseding whatever was open before. Requests for
// media the pane cannot display are ignored.
func (p *ViewPane) Open(req ViewRequest) {
	if !req.Type.Viewable() {
		LogDebug("Ignoring view request for %s (%s)", req.Name, req.Type)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), artworkTimeout)
	p.mu.Lock()
	p.generation++
	gen := p.generation
	old := p.detachLocked()
	p.mode = ModeView
	r := req
	p.current = &r
	p.cancelFetch = cancel
	p.mu.Unlock()

	closeElement(old)
	p.notify()

	if req.Type.Playable() && p.opener != nil {
		p.attach(gen, req)
	}
	if req.Type == MediaAudio && p.artworks != nil {
		go p.fetchArtwork(ctx, gen, req)
	}
}

func (p *ViewPane) attach(gen uint64, req ViewRequest) {
	el, err := p.opener.OpenMedia(req)
	if err != nil {
		LogWarn("Failed to open %s: %v", req.Name, err)
		return
	}

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		closeElement(el)
		return
	}
	ctrl := NewMediaControl(el, p.engine, req.Name, p.ActiveInput, p.fullscreen)
	el.Subscribe(ctrl.Handle)
	p.element = el
	p.control = ctrl
	if req.Timestamp != nil {
		if err := el.Seek(*req.Timestamp); err != nil {
			LogWarn("Failed to seek %s to %s: %v", req.Name, FormatTimestamp(*req.Timestamp), err)
		}
	}
	if req.AutoplayDelay > 0 {
		p.stopAutoplay = p.schedule(req.AutoplayDelay, func() { p.autoplay(gen) })
	}
	p.mu.Unlock()
	p.notify()
}

func (p *ViewPane) autoplay(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.element == nil {
		p.mu.Unlock()
		return
	}
	el := p.element
	p.stopAutoplay = nil
	p.mu.Unlock()

	if err := el.Play(); err != nil {
		LogWarn("Autoplay failed: %v", err)
	}
	p.notify()
}

func (p *ViewPane) fetchArtwork(ctx context.Context, gen uint64, req ViewRequest) {
	art, err := p.artworks.FetchArtwork(ctx, req.URL)
	if err != nil {
		LogDebug("No artwork for %s: %v", req.Name, err)
		return
	}
	if art == nil {
		return
	}
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.artwork = art
	p.mu.Unlock()
	p.notify()
}

// Reset returns to chat mode with the placeholder shown
func (p *ViewPane) Reset() {
	p.mu.Lock()
	p.generation++
	old := p.detachLocked()
	p.mode = ModeChat
	p.current = nil
	p.mu.Unlock()

	closeElement(old)
	p.notify()
}

// detachLocked drops the open media and returns its element for closing
func (p *ViewPane) detachLocked() MediaElement {
	if p.stopAutoplay != nil {
		p.stopAutoplay()
		p.stopAutoplay = nil
	}
	if p.cancelFetch != nil {
		p.cancelFetch()
		p.cancelFetch = nil
	}
	el := p.element
	p.element = nil
	p.control = nil
	p.artwork = nil
	return el
}

func closeElement(el MediaElement) {
	if el == nil {
		return
	}
	if err := el.Close(); err != nil {
		LogDebug("Failed to close media element: %v", err)
	}
}

// SetMode switches between the chat and view panes
func (p *ViewPane) SetMode(m ViewMode) {
	p.mu.Lock()
	changed := p.mode != m
	p.mode = m
	p.mu.Unlock()
	if changed {
		p.notify()
	}
}

// ToggleMode flips the mode and returns the new one
func (p *ViewPane) ToggleMode() ViewMode {
	p.mu.Lock()
	if p.mode == ModeChat {
		p.mode = ModeView
	} else {
		p.mode = ModeChat
	}
	m := p.mode
	p.mu.Unlock()
	p.notify()
	return m
}

// Mode returns the current mode
func (p *ViewPane) Mode() ViewMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// ActiveInput is the prompt that receives keystrokes and insertions
func (p *ViewPane) ActiveInput() TextInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == ModeView {
		return p.viewInput
	}
	return p.chatInput
}

// ChatInput returns the chat prompt
func (p *ViewPane) ChatInput() TextInput {
	return p.chatInput
}

// ViewInput returns the view prompt
func (p *ViewPane) ViewInput() TextInput {
	return p.viewInput
}

// Current returns the open request, if any
func (p *ViewPane) Current() (ViewRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ViewRequest{}, false
	}
	return *p.current, true
}

// Control returns the transport control of the open media, or nil
func (p *ViewPane) Control() *MediaControl {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.control
}

// Snapshot copies the visible state
func (p *ViewPane) Snapshot() PaneSnapshot {
	p.mu.Lock()
	snap := PaneSnapshot{
		Mode:       p.mode,
		Artwork:    p.artwork,
		Generation: p.generation,
	}
	if p.current != nil {
		r := *p.current
		snap.Request = &r
	}
	ctrl := p.control
	p.mu.Unlock()

	if ctrl != nil {
		st := ctrl.State()
		snap.Control = &st
	}
	return snap
}

func (p *ViewPane) notify() {
	p.mu.Lock()
	listeners := append([]func(PaneSnapshot){}, p.listeners...)
	p.mu.Unlock()
	if len(listeners) == 0 {
		return
	}
	snap := p.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}
