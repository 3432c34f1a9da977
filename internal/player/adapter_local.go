package player

import (
	"sync"

	"github.com/lecternapp/lectern-server/internal/errors"
)

// LocalAdapter plays a progressive video file hosted by the application
// itself. It has a direct handle on playback, so every control in the
// contract is honored.
type LocalAdapter struct {
	mu       sync.Mutex
	sink     EventSink
	clock    *mediaClock
	source   Source
	volume   float64
	muted    bool
	disposed bool
}

// NewLocalAdapter creates a local-file adapter delivering canonical
// events to sink.
func NewLocalAdapter(sink EventSink) *LocalAdapter {
	return &LocalAdapter{sink: sink, volume: 1}
}

// Initialize loads the file and applies the resume position. The resume
// seek happens only after metadata is known; seeking a media element
// before metadata load is silently ignored by the backend.
func (a *LocalAdapter) Initialize(source Source, resumePositionSeconds float64) error {
	a.mu.Lock()
	if source.Locator == "" {
		a.mu.Unlock()
		return errors.PlayerUnavailable("local source has no media URL")
	}
	if a.clock != nil {
		a.mu.Unlock()
		return errors.Internal("adapter already initialized")
	}

	a.source = source
	clock := newMediaClock(a.emit)
	clock.setDuration(source.DurationHintSeconds)
	a.clock = clock
	a.mu.Unlock()

	a.emit(Event{Type: EventMetadataReady, DurationSeconds: source.DurationHintSeconds})
	if resumePositionSeconds > 0 {
		clock.seek(resumePositionSeconds)
		a.emit(Event{Type: EventTimeUpdated, PositionSeconds: clock.pos()})
	}
	return nil
}

// emit forwards an event unless the adapter has been disposed. The
// clock goroutine may have a tick in flight when Dispose runs; its
// events must not leak into the next adapter's stream.
func (a *LocalAdapter) emit(ev Event) {
	a.mu.Lock()
	disposed := a.disposed
	a.mu.Unlock()
	if !disposed {
		a.sink(ev)
	}
}

func (a *LocalAdapter) ready() (*mediaClock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clock == nil || a.disposed {
		return nil, errors.ErrPlayerUnavailable
	}
	return a.clock, nil
}

// Play starts or resumes playback.
func (a *LocalAdapter) Play() error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.play()
	return nil
}

// Pause halts playback without releasing the source.
func (a *LocalAdapter) Pause() error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.pause()
	return nil
}

// Seek jumps to an absolute position.
func (a *LocalAdapter) Seek(seconds float64) error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.seek(seconds)
	a.emit(Event{Type: EventTimeUpdated, PositionSeconds: clock.pos()})
	return nil
}

// SetVolume sets the output volume.
func (a *LocalAdapter) SetVolume(volume float64) error {
	if _, err := a.ready(); err != nil {
		return err
	}
	a.mu.Lock()
	a.volume = volume
	a.mu.Unlock()
	return nil
}

// SetMuted mutes or unmutes output without changing the volume.
func (a *LocalAdapter) SetMuted(muted bool) error {
	if _, err := a.ready(); err != nil {
		return err
	}
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
	return nil
}

// SetPlaybackRate changes the playback speed multiplier.
func (a *LocalAdapter) SetPlaybackRate(rate float64) error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.setRate(rate)
	return nil
}

// RequestFullscreen asks the shell to enter fullscreen. The local
// backend has nothing to do itself.
func (a *LocalAdapter) RequestFullscreen() error {
	_, err := a.ready()
	return err
}

// Capabilities reports the full control set.
func (a *LocalAdapter) Capabilities() Capabilities {
	return Capabilities{CanSeek: true, CanSetVolume: true, CanSetRate: true, CanFullscreen: true}
}

// Dispose stops the clock and suppresses any in-flight events.
func (a *LocalAdapter) Dispose() {
	a.mu.Lock()
	a.disposed = true
	clock := a.clock
	a.mu.Unlock()
	if clock != nil {
		clock.stop()
	}
}
