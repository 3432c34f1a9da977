package player

import (
	"log/slog"
	"sync"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
)

// Listener observes canonical events together with the state snapshot
// taken after the event was folded in. The UI and the progress
// synchronizer subscribe independently; their cadences must not couple.
type Listener func(Event, State)

// DefaultAdapterFactory builds the production adapters. embedOrigin and
// streamEndpoint may be empty to use the defaults.
func DefaultAdapterFactory(embedOrigin, streamEndpoint string) AdapterFactory {
	return func(kind domain.VideoKind, sink EventSink) Adapter {
		switch kind {
		case domain.VideoKindRemoteStream:
			return NewStreamAdapter(sink, streamEndpoint)
		case domain.VideoKindEmbedShare:
			return NewEmbedAdapter(sink, embedOrigin)
		default:
			return NewLocalAdapter(sink)
		}
	}
}

// Controller owns the canonical state machine and the active adapter.
// Exactly one adapter is active at a time; switching sources disposes
// the old adapter before the new one is constructed. All control
// operations go through here, never directly to an adapter.
type Controller struct {
	factory AdapterFactory
	logger  *slog.Logger

	mu        sync.Mutex
	source    Source
	adapter   Adapter
	caps      Capabilities
	state     State
	listeners []Listener

	// pendingSeek holds the latest seek requested while the adapter was
	// buffering. Latest wins; it is applied exactly once when buffering
	// clears.
	pendingSeek *float64
	// phaseBeforeBuffering is where Buffering returns to.
	phaseBeforeBuffering Phase
	preMuteVolume        float64
}

// NewController creates a controller building adapters with factory.
func NewController(factory AdapterFactory, logger *slog.Logger) *Controller {
	return &Controller{
		factory: factory,
		logger:  logger,
		state:   State{Phase: PhaseIdle, Volume: 1, PlaybackRate: 1},
	}
}

// Subscribe registers a listener for canonical events. Listeners are
// invoked synchronously in subscription order.
func (c *Controller) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the current canonical snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Capabilities reports what the active backend can honor. Zero value
// while no adapter is active.
func (c *Controller) Capabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

// Source returns the mounted source.
func (c *Controller) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Adapter returns the active adapter, for shells that need backend
// extras like the embed message channel. May be nil.
func (c *Controller) Adapter() Adapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapter
}

// Load mounts a source, replacing whatever was playing. The previous
// adapter is disposed, with its listeners unsubscribed, strictly before
// the new adapter is constructed; anything else cross-talks progress
// events between lessons on fast switches.
func (c *Controller) Load(source Source, resumePositionSeconds float64) error {
	c.mu.Lock()
	old := c.adapter
	c.adapter = nil
	c.caps = Capabilities{}
	c.mu.Unlock()

	if old != nil {
		old.Dispose()
	}

	c.mu.Lock()
	c.source = source
	c.pendingSeek = nil
	c.preMuteVolume = 1
	c.phaseBeforeBuffering = PhasePaused
	c.state = State{
		Phase:           PhaseLoading,
		PositionSeconds: resumePositionSeconds,
		Volume:          1,
		PlaybackRate:    1,
	}
	c.mu.Unlock()

	kind := ResolveKind(source)
	adapter := c.factory(kind, c.onEvent)

	c.mu.Lock()
	c.adapter = adapter
	c.caps = adapter.Capabilities()
	c.mu.Unlock()

	if err := adapter.Initialize(source, resumePositionSeconds); err != nil {
		c.mu.Lock()
		c.state.Phase = PhaseUnavailable
		c.caps = Capabilities{}
		c.mu.Unlock()
		c.logger.Error("adapter initialization failed",
			"kind", string(kind),
			"title", source.DisplayTitle,
			"error", err,
		)
		return errors.Wrap(err, errors.CodePlayerUnavailable, "failed to mount source")
	}
	return nil
}

// onEvent folds a canonical event into the state machine and notifies
// listeners. It is the only writer of phase transitions driven by the
// backend.
func (c *Controller) onEvent(ev Event) {
	var applySeek *float64
	var adapter Adapter

	c.mu.Lock()
	switch ev.Type {
	case EventMetadataReady:
		if ev.DurationSeconds > 0 {
			c.state.DurationSeconds = ev.DurationSeconds
		}
		if c.state.Phase == PhaseLoading {
			c.state.Phase = PhaseReady
		}

	case EventTimeUpdated:
		c.state.PositionSeconds = ev.PositionSeconds
		// The embed backend starts playing through its own UI; the
		// first progress message is how we learn about it.
		if c.state.Phase == PhaseReady {
			c.state.Phase = PhasePlaying
		}

	case EventBufferingStart:
		switch c.state.Phase {
		case PhasePlaying, PhasePaused:
			c.phaseBeforeBuffering = c.state.Phase
			c.state.Phase = PhaseBuffering
		case PhaseReady:
			c.phaseBeforeBuffering = PhaseReady
			c.state.Phase = PhaseBuffering
		}

	case EventBufferingEnd:
		if c.state.Phase == PhaseBuffering {
			c.state.Phase = c.phaseBeforeBuffering
		}
		if c.pendingSeek != nil {
			applySeek = c.pendingSeek
			c.pendingSeek = nil
			adapter = c.adapter
		}

	case EventEnded:
		c.state.Phase = PhaseEnded
		if c.state.DurationKnown() {
			c.state.PositionSeconds = c.state.DurationSeconds
		} else if ev.PositionSeconds > 0 {
			c.state.PositionSeconds = ev.PositionSeconds
		}
	}

	snapshot := c.state
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	// Deferred seek is applied exactly once, after buffering clears.
	if applySeek != nil && adapter != nil {
		if err := adapter.Seek(*applySeek); err != nil {
			c.logger.Warn("deferred seek failed", "position", *applySeek, "error", err)
		}
	}

	for _, fn := range listeners {
		fn(ev, snapshot)
	}
}

// TogglePlay flips between playing and paused. At Ended it restarts
// from position zero as a fresh playback rather than resuming.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	adapter := c.adapter
	phase := c.state.Phase
	c.mu.Unlock()

	if adapter == nil || phase == PhaseIdle || phase == PhaseLoading || phase == PhaseUnavailable {
		return errors.ErrPlayerUnavailable
	}

	switch phase {
	case PhaseEnded:
		if err := adapter.Seek(0); err != nil {
			return err
		}
		if err := adapter.Play(); err != nil {
			return err
		}
		c.mu.Lock()
		c.state.PositionSeconds = 0
		c.state.Phase = PhasePlaying
		c.mu.Unlock()

	case PhasePlaying:
		if err := adapter.Pause(); err != nil {
			return err
		}
		c.mu.Lock()
		c.state.Phase = PhasePaused
		c.mu.Unlock()

	case PhaseBuffering:
		// Flip where buffering will return to.
		c.mu.Lock()
		if c.phaseBeforeBuffering == PhasePlaying {
			c.phaseBeforeBuffering = PhasePaused
			c.mu.Unlock()
			return adapter.Pause()
		}
		c.phaseBeforeBuffering = PhasePlaying
		c.mu.Unlock()
		return adapter.Play()

	default:
		if err := adapter.Play(); err != nil {
			return err
		}
		c.mu.Lock()
		c.state.Phase = PhasePlaying
		c.mu.Unlock()
	}
	return nil
}

// SeekAbsolute seeks to a position, clamped to [0, duration]. While
// the adapter is buffering the request is queued, latest wins, and
// applied once buffering clears; an adapter that is not ready ignores
// seeks, so dropping them here would lose the user's intent.
func (c *Controller) SeekAbsolute(seconds float64) error {
	c.mu.Lock()
	adapter := c.adapter
	phase := c.state.Phase

	if adapter == nil || phase == PhaseIdle || phase == PhaseLoading || phase == PhaseUnavailable {
		c.mu.Unlock()
		return errors.ErrPlayerUnavailable
	}

	if seconds < 0 {
		seconds = 0
	}
	if c.state.DurationKnown() && seconds > c.state.DurationSeconds {
		seconds = c.state.DurationSeconds
	}

	if phase == PhaseBuffering {
		c.pendingSeek = &seconds
		c.mu.Unlock()
		return nil
	}

	wasPlaying := phase == PhasePlaying
	c.state.Phase = PhaseSeeking
	c.mu.Unlock()

	err := adapter.Seek(seconds)

	c.mu.Lock()
	if err == nil {
		c.state.PositionSeconds = seconds
	}
	if c.state.Phase == PhaseSeeking {
		if wasPlaying {
			c.state.Phase = PhasePlaying
		} else {
			c.state.Phase = PhasePaused
		}
	}
	c.mu.Unlock()
	return err
}

// SeekRelative seeks by a signed delta from the current position.
func (c *Controller) SeekRelative(deltaSeconds float64) error {
	c.mu.Lock()
	target := c.state.PositionSeconds + deltaSeconds
	c.mu.Unlock()
	return c.SeekAbsolute(target)
}

// SetVolume sets volume, clamped to [0,1]. Silently ignored when the
// backend cannot honor it; the shell has already hidden the control.
func (c *Controller) SetVolume(volume float64) error {
	c.mu.Lock()
	adapter := c.adapter
	caps := c.caps
	c.mu.Unlock()

	if adapter == nil {
		return errors.ErrPlayerUnavailable
	}
	if !caps.CanSetVolume {
		return nil
	}

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	if err := adapter.SetVolume(volume); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Volume = volume
	c.mu.Unlock()
	return nil
}

// ToggleMute mutes, or unmutes restoring exactly the pre-mute volume.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	adapter := c.adapter
	caps := c.caps
	muted := c.state.Muted
	c.mu.Unlock()

	if adapter == nil {
		return errors.ErrPlayerUnavailable
	}
	if !caps.CanSetVolume {
		return nil
	}

	if muted {
		c.mu.Lock()
		restore := c.preMuteVolume
		c.mu.Unlock()
		if err := adapter.SetMuted(false); err != nil {
			return err
		}
		if err := adapter.SetVolume(restore); err != nil {
			return err
		}
		c.mu.Lock()
		c.state.Muted = false
		c.state.Volume = restore
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.preMuteVolume = c.state.Volume
	c.mu.Unlock()
	if err := adapter.SetMuted(true); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Muted = true
	c.mu.Unlock()
	return nil
}

// SetPlaybackRate sets the speed multiplier. Only the enumerated
// multipliers are accepted.
func (c *Controller) SetPlaybackRate(rate float64) error {
	if !ValidRate(rate) {
		return errors.Validationf("unsupported playback rate %g", rate)
	}

	c.mu.Lock()
	adapter := c.adapter
	caps := c.caps
	c.mu.Unlock()

	if adapter == nil {
		return errors.ErrPlayerUnavailable
	}
	if !caps.CanSetRate {
		return nil
	}

	if err := adapter.SetPlaybackRate(rate); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.PlaybackRate = rate
	c.mu.Unlock()
	return nil
}

// ToggleFullscreen flips fullscreen on backends that support it.
func (c *Controller) ToggleFullscreen() error {
	c.mu.Lock()
	adapter := c.adapter
	caps := c.caps
	fullscreen := c.state.Fullscreen
	c.mu.Unlock()

	if adapter == nil {
		return errors.ErrPlayerUnavailable
	}
	if !caps.CanFullscreen {
		return nil
	}

	if !fullscreen {
		if err := adapter.RequestFullscreen(); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.state.Fullscreen = !fullscreen
	c.mu.Unlock()
	return nil
}

// Dispose tears down the active adapter. The controller returns to
// Idle and can Load again.
func (c *Controller) Dispose() {
	c.mu.Lock()
	adapter := c.adapter
	c.adapter = nil
	c.caps = Capabilities{}
	c.pendingSeek = nil
	c.state = State{Phase: PhaseIdle, Volume: 1, PlaybackRate: 1}
	c.mu.Unlock()

	if adapter != nil {
		adapter.Dispose()
	}
}
