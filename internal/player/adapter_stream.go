package player

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lecternapp/lectern-server/internal/errors"
)

// DefaultStreamEndpoint is the third-party host serving adaptive
// manifests for remote-stream lessons.
const DefaultStreamEndpoint = "https://stream.lectern.app"

// StreamAdapter plays an adaptive-bitrate stream hosted by a third
// party. The locator is an opaque playback identifier; the adapter
// turns it into a manifest URL against a fixed templated endpoint.
// Quality switching belongs to the host's own player runtime and is
// not exposed as a control.
type StreamAdapter struct {
	mu         sync.Mutex
	sink       EventSink
	endpoint   string
	clock      *mediaClock
	playbackID string
	disposed   bool
}

// NewStreamAdapter creates a remote-stream adapter. endpoint may be
// empty to use the default host.
func NewStreamAdapter(sink EventSink, endpoint string) *StreamAdapter {
	if endpoint == "" {
		endpoint = DefaultStreamEndpoint
	}
	return &StreamAdapter{sink: sink, endpoint: strings.TrimRight(endpoint, "/")}
}

// ManifestURL returns the adaptive manifest URL for a playback ID.
func (a *StreamAdapter) ManifestURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%s/%s/master.m3u8", a.endpoint, a.playbackID)
}

// ThumbnailURL returns the templated poster image for a playback ID.
func (a *StreamAdapter) ThumbnailURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%s/%s/thumbnail.jpg", a.endpoint, a.playbackID)
}

// Initialize resolves the manifest and applies the resume position once
// stream metadata is known.
func (a *StreamAdapter) Initialize(source Source, resumePositionSeconds float64) error {
	a.mu.Lock()
	if source.Locator == "" {
		a.mu.Unlock()
		return errors.PlayerUnavailable("stream source has no playback ID")
	}
	if a.clock != nil {
		a.mu.Unlock()
		return errors.Internal("adapter already initialized")
	}

	a.playbackID = source.Locator
	clock := newMediaClock(a.emit)
	clock.setDuration(source.DurationHintSeconds)
	a.clock = clock
	a.mu.Unlock()

	// Manifest fetch shows up as an initial buffering window.
	a.emit(Event{Type: EventBufferingStart})
	a.emit(Event{Type: EventMetadataReady, DurationSeconds: source.DurationHintSeconds})
	if resumePositionSeconds > 0 {
		clock.seek(resumePositionSeconds)
	}
	a.emit(Event{Type: EventBufferingEnd})
	return nil
}

func (a *StreamAdapter) emit(ev Event) {
	a.mu.Lock()
	disposed := a.disposed
	a.mu.Unlock()
	if !disposed {
		a.sink(ev)
	}
}

func (a *StreamAdapter) ready() (*mediaClock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clock == nil || a.disposed {
		return nil, errors.ErrPlayerUnavailable
	}
	return a.clock, nil
}

// Play starts or resumes playback.
func (a *StreamAdapter) Play() error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.play()
	return nil
}

// Pause halts playback.
func (a *StreamAdapter) Pause() error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.pause()
	return nil
}

// Seek jumps to an absolute position. A jump lands outside the
// buffered window, so the stream rebuffers around it.
func (a *StreamAdapter) Seek(seconds float64) error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	a.emit(Event{Type: EventBufferingStart})
	clock.seek(seconds)
	a.emit(Event{Type: EventTimeUpdated, PositionSeconds: clock.pos()})
	a.emit(Event{Type: EventBufferingEnd})
	return nil
}

// SetVolume sets the output volume.
func (a *StreamAdapter) SetVolume(_ float64) error {
	_, err := a.ready()
	return err
}

// SetMuted mutes or unmutes output.
func (a *StreamAdapter) SetMuted(_ bool) error {
	_, err := a.ready()
	return err
}

// SetPlaybackRate changes the playback speed multiplier.
func (a *StreamAdapter) SetPlaybackRate(rate float64) error {
	clock, err := a.ready()
	if err != nil {
		return err
	}
	clock.setRate(rate)
	return nil
}

// RequestFullscreen asks the shell to enter fullscreen.
func (a *StreamAdapter) RequestFullscreen() error {
	_, err := a.ready()
	return err
}

// Capabilities reports the full control set; quality selection is the
// one thing delegated entirely to the stream host.
func (a *StreamAdapter) Capabilities() Capabilities {
	return Capabilities{CanSeek: true, CanSetVolume: true, CanSetRate: true, CanFullscreen: true}
}

// Dispose stops the clock and suppresses any in-flight events.
func (a *StreamAdapter) Dispose() {
	a.mu.Lock()
	a.disposed = true
	clock := a.clock
	a.mu.Unlock()
	if clock != nil {
		clock.stop()
	}
}
