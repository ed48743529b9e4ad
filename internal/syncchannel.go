package internal

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// EventSource opens the server-push stream of a session
type EventSource interface {
	OpenEventStream(ctx context.Context, sessionID string) (io.ReadCloser, error)
}

// ChannelState is the connection state of a SyncChannel
type ChannelState string

const (
	ChannelConnecting ChannelState = "connecting"
	ChannelOpen       ChannelState = "open"
	ChannelRetrying   ChannelState = "retrying"
	ChannelClosed     ChannelState = "closed"
)

// ReconnectPolicy controls how a dropped stream is re-established while
// its session stays active
type ReconnectPolicy struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	// MaxRetries is the number of consecutive failed attempts before the
	// channel gives up; 0 retries forever.
	MaxRetries int `yaml:"max_retries"`
}

// DefaultReconnectPolicy retries forever, 500ms doubling up to 30s
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
	}
}

func (p ReconnectPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.Reset()
	return b
}

// SyncChannelConfig wires a SyncChannel
type SyncChannelConfig struct {
	SessionID string
	Source    EventSource
	URLs      URLResolver
	Target    ViewOpener
	Reconnect ReconnectPolicy
	// OnState is called on every state change, from the channel goroutine.
	OnState func(ChannelState)
	// newBackOff overrides the policy in tests.
	newBackOff func() backoff.BackOff
}

// SyncChannel follows the event stream of one session and forwards view
// events to the view pane.
type SyncChannel struct {
	id     string
	cfg    SyncChannelConfig
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state ChannelState
}

// OpenSyncChannel starts following the session's stream until Close
func OpenSyncChannel(parent context.Context, cfg SyncChannelConfig) *SyncChannel {
	ctx, cancel := context.WithCancel(parent)
	c := &SyncChannel{
		id:     uuid.NewString(),
		cfg:    cfg,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  ChannelConnecting,
	}
	go c.run(ctx)
	return c
}

// ID identifies this connection in logs
func (c *SyncChannel) ID() string {
	return c.id
}

// SessionID returns the session this channel follows
func (c *SyncChannel) SessionID() string {
	return c.cfg.SessionID
}

// State returns the current connection state
func (c *SyncChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the channel has stopped
func (c *SyncChannel) Done() <-chan struct{} {
	return c.done
}

// Close stops the channel and waits until no more events can be forwarded
func (c *SyncChannel) Close() {
	c.cancel()
	<-c.done
}

func (c *SyncChannel) setState(s ChannelState) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.cfg.OnState != nil {
		c.cfg.OnState(s)
	}
}

func (c *SyncChannel) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(ChannelClosed)

	var b backoff.BackOff
	if c.cfg.newBackOff != nil {
		b = c.cfg.newBackOff()
	} else {
		b = c.cfg.Reconnect.newBackOff()
	}

	failures := 0
	for {
		c.setState(ChannelConnecting)
		connected, err := c.stream(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			b.Reset()
			failures = 0
		}
		failures++
		if limit := c.cfg.Reconnect.MaxRetries; limit > 0 && failures > limit {
			LogError("Event stream for %s failed %d times, giving up: %v", c.cfg.SessionID, limit, err)
			return
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			LogError("Event stream for %s lost, giving up: %v", c.cfg.SessionID, err)
			return
		}
		LogWarn("Event stream for %s lost (%v), reconnecting in %s", c.cfg.SessionID, err, wait)
		c.setState(ChannelRetrying)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// stream runs one connection; connected reports whether it got that far
func (c *SyncChannel) stream(ctx context.Context) (bool, error) {
	body, err := c.cfg.Source.OpenEventStream(ctx, c.cfg.SessionID)
	if err != nil {
		return false, err
	}
	defer body.Close()

	// unblock the reader when the channel is closed mid-read
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	c.setState(ChannelOpen)
	LogDebug("Event stream %s open for %s", c.id, c.cfg.SessionID)

	err = readEventStream(body, func(ev streamEvent) {
		if ctx.Err() != nil {
			return
		}
		c.dispatch(ev)
	})
	if err == nil {
		err = io.EOF
	}
	return true, err
}

func (c *SyncChannel) dispatch(ev streamEvent) {
	switch ev.Name {
	case "view":
		view, err := DecodeViewEvent([]byte(ev.Data))
		if err != nil {
			LogWarn("Dropping malformed view event: %v", err)
			return
		}
		req, err := ResolveViewEvent(c.cfg.SessionID, view, c.cfg.URLs)
		if errors.Is(err, ErrUnsupportedMedia) {
			LogDebug("Ignoring view event for %s: %v", view.Path, err)
			return
		}
		if err != nil {
			LogWarn("Dropping view event for %s: %v", view.Path, err)
			return
		}
		c.cfg.Target.Open(req)
	case "ping":
		LogDebug("Event stream %s keep-alive", c.id)
	default:
		LogDebug("Ignoring %q event", ev.Name)
	}
}
