package player

import "github.com/lecternapp/lectern-server/internal/domain"

// Adapter is the contract every backend driver implements. The
// Controller depends only on this interface plus the Capabilities
// side-channel; it never reaches into backend internals.
//
// Control calls are fire-and-forget commands. Their observable effects
// arrive later as canonical events on the sink the adapter was built
// with, in the order the backend emits them.
type Adapter interface {
	// Initialize prepares playback for a source. The resume position is
	// applied only once the backend has loaded metadata; applying it
	// earlier is silently ignored by backends, so adapters must defer
	// it rather than fire blind.
	Initialize(source Source, resumePositionSeconds float64) error

	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetPlaybackRate(rate float64) error
	RequestFullscreen() error

	// Capabilities reports which of the calls above the backend honors.
	Capabilities() Capabilities

	// Dispose tears the backend down and stops event delivery. Events
	// that were already in flight when Dispose ran must not reach the
	// sink afterwards.
	Dispose()
}

// AdapterFactory builds the adapter for a resolved backend kind,
// delivering its canonical events to sink. The controller disposes the
// previous adapter before invoking the factory for a new source.
type AdapterFactory func(kind domain.VideoKind, sink EventSink) Adapter
