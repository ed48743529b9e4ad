package internal

import (
	"errors"
	"math"
	"sync"
)

// MediaEvent is a notification raised by a media element
type MediaEvent int

const (
	EventPlay MediaEvent = iota
	EventPause
	EventVolumeChange
	EventLoadedMetadata
	EventTimeUpdate
)

// AudioTrack says what is known about a media file's audio
type AudioTrack int

const (
	AudioUnknown AudioTrack = iota
	AudioPresent
	AudioAbsent
)

// MediaElement is a native playable element (video or audio)
type MediaElement interface {
	Play() error
	Pause() error
	Paused() bool
	Seek(seconds float64) error
	CurrentTime() float64
	// Duration is 0 until metadata is available.
	Duration() float64
	Volume() float64
	SetVolume(v float64) error
	AudioTrack() AudioTrack
	// Subscribe registers fn for element notifications.
	Subscribe(fn func(MediaEvent))
	Close() error
}

// FullscreenTarget is the pane container fullscreen is scoped to
type FullscreenTarget interface {
	SetFullscreen(on bool) error
}

var (
	// ErrVolumeDisabled is returned when the media carries no audio track.
	ErrVolumeDisabled = errors.New("volume control disabled: no audio track")
	// ErrNoDuration is returned when seeking before metadata has loaded.
	ErrNoDuration = errors.New("media duration not available")
)

// ControlState is what the transport UI shows
type ControlState struct {
	Playing       bool
	SeekMax       float64
	SeekPos       float64
	Volume        float64
	VolumeEnabled bool
	Fullscreen    bool
}

// MediaControl binds transport controls to one media element. Displayed
// state only follows element notifications, never the user's click.
type MediaControl struct {
	mu        sync.Mutex
	el        MediaElement
	engine    *AnnotationEngine
	file      string
	input     func() TextInput
	container FullscreenTarget
	state     ControlState
}

// NewMediaControl binds el. input returns the prompt that double-click
// annotations go to; file is the label used in those annotations.
func NewMediaControl(el MediaElement, engine *AnnotationEngine, file string, input func() TextInput, container FullscreenTarget) *MediaControl {
	c := &MediaControl{
		el:        el,
		engine:    engine,
		file:      file,
		input:     input,
		container: container,
	}
	c.state.Volume = el.Volume()
	c.state.VolumeEnabled = el.AudioTrack() != AudioAbsent
	c.state.Playing = !el.Paused()
	if d := el.Duration(); d > 0 && !math.IsInf(d, 0) {
		c.state.SeekMax = d
	}
	return c
}

// Handle applies an element notification
func (c *MediaControl) Handle(ev MediaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev {
	case EventPlay:
		c.state.Playing = true
	case EventPause:
		c.state.Playing = false
	case EventVolumeChange:
		c.state.Volume = c.el.Volume()
	case EventLoadedMetadata:
		if d := c.el.Duration(); d > 0 && !math.IsInf(d, 0) {
			c.state.SeekMax = d
		}
		c.state.VolumeEnabled = c.el.AudioTrack() != AudioAbsent
	case EventTimeUpdate:
		c.state.SeekPos = c.el.CurrentTime()
	}
}

// State returns a copy of the control state
func (c *MediaControl) State() ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TogglePlay asks the element to play or pause. The button updates when the
// element reports back.
func (c *MediaControl) TogglePlay() error {
	if c.el.Paused() {
		return c.el.Play()
	}
	return c.el.Pause()
}

// SeekFraction seeks to fraction (0..1) of the duration
func (c *MediaControl) SeekFraction(fraction float64) (float64, error) {
	c.mu.Lock()
	duration := c.state.SeekMax
	c.mu.Unlock()
	if duration <= 0 {
		duration = c.el.Duration()
	}
	if duration <= 0 {
		return 0, ErrNoDuration
	}
	target := clampFloat(fraction, 0, 1) * duration
	if err := c.el.Seek(target); err != nil {
		return 0, err
	}
	return target, nil
}

// SetVolume changes the element volume
func (c *MediaControl) SetVolume(v float64) error {
	c.mu.Lock()
	enabled := c.state.VolumeEnabled
	c.mu.Unlock()
	if !enabled {
		return ErrVolumeDisabled
	}
	return c.el.SetVolume(clampFloat(v, 0, 1))
}

// ToggleFullscreen flips fullscreen on the pane container
func (c *MediaControl) ToggleFullscreen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.container == nil {
		return nil
	}
	next := !c.state.Fullscreen
	if err := c.container.SetFullscreen(next); err != nil {
		return err
	}
	c.state.Fullscreen = next
	return nil
}

// DoubleClickSeek seeks to fraction of the duration and inserts the now
// current position into the prompt.
func (c *MediaControl) DoubleClickSeek(fraction float64) (InsertResult, error) {
	if _, err := c.SeekFraction(fraction); err != nil {
		return InsertResult{}, err
	}
	var input TextInput
	if c.input != nil {
		input = c.input()
	}
	if input == nil || c.engine == nil {
		return InsertResult{}, nil
	}
	return c.engine.InsertAt(input, c.el.CurrentTime(), c.file), nil
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
