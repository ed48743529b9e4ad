package internal

import (
	"sync"
	"time"
)

// HeadlessElement is a MediaElement without a decoder. The position advances
// with the wall clock while playing. The terminal view pane and the tests
// use it.
type HeadlessElement struct {
	mu        sync.Mutex
	now       func() time.Time
	duration  float64
	audio     AudioTrack
	volume    float64
	paused    bool
	position  float64
	startedAt time.Time
	closed    bool
	subs      []func(MediaEvent)
}

// NewHeadlessElement creates a paused element. A zero duration means the
// metadata is not known yet; call LoadMetadata once it is.
func NewHeadlessElement(duration float64, audio AudioTrack) *HeadlessElement {
	return &HeadlessElement{
		now:      time.Now,
		duration: duration,
		audio:    audio,
		volume:   1,
		paused:   true,
	}
}

// SetClock replaces time.Now
func (h *HeadlessElement) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

func (h *HeadlessElement) emit(ev MediaEvent) {
	h.mu.Lock()
	subs := append([]func(MediaEvent){}, h.subs...)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (h *HeadlessElement) Subscribe(fn func(MediaEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

// LoadMetadata sets the duration and raises EventLoadedMetadata
func (h *HeadlessElement) LoadMetadata(duration float64, audio AudioTrack) {
	h.mu.Lock()
	h.duration = duration
	h.audio = audio
	h.mu.Unlock()
	h.emit(EventLoadedMetadata)
}

func (h *HeadlessElement) Play() error {
	h.mu.Lock()
	if h.closed || !h.paused {
		h.mu.Unlock()
		return nil
	}
	h.paused = false
	h.startedAt = h.now()
	h.mu.Unlock()
	h.emit(EventPlay)
	return nil
}

func (h *HeadlessElement) Pause() error {
	h.mu.Lock()
	if h.paused {
		h.mu.Unlock()
		return nil
	}
	h.position = h.positionLocked()
	h.paused = true
	h.mu.Unlock()
	h.emit(EventPause)
	return nil
}

func (h *HeadlessElement) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *HeadlessElement) Seek(seconds float64) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	if seconds < 0 {
		seconds = 0
	}
	if h.duration > 0 && seconds > h.duration {
		seconds = h.duration
	}
	h.position = seconds
	h.startedAt = h.now()
	h.mu.Unlock()
	h.emit(EventTimeUpdate)
	return nil
}

func (h *HeadlessElement) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *HeadlessElement) positionLocked() float64 {
	if h.paused {
		return h.position
	}
	pos := h.position + h.now().Sub(h.startedAt).Seconds()
	if h.duration > 0 && pos > h.duration {
		return h.duration
	}
	return pos
}

func (h *HeadlessElement) Duration() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}

func (h *HeadlessElement) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *HeadlessElement) SetVolume(v float64) error {
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	h.emit(EventVolumeChange)
	return nil
}

func (h *HeadlessElement) AudioTrack() AudioTrack {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.audio
}

func (h *HeadlessElement) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.paused = true
	h.subs = nil
	return nil
}

// Closed reports whether Close was called
func (h *HeadlessElement) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
