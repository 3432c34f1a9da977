// Package player implements the lesson playback engine: one control
// surface over three structurally different video backends, a canonical
// state machine, and the event stream the progress synchronizer consumes.
package player

// EventType enumerates the canonical, backend-independent playback events.
// Adapters translate whatever their backend emits into this set; nothing
// downstream of an adapter ever sees a backend-specific event.
type EventType string

// Canonical event types.
const (
	EventTimeUpdated    EventType = "time-updated"
	EventBufferingStart EventType = "buffering-start"
	EventBufferingEnd   EventType = "buffering-end"
	EventEnded          EventType = "ended"
	EventMetadataReady  EventType = "metadata-ready"
)

// Event is a canonical playback event.
type Event struct {
	Type EventType

	// PositionSeconds is set for time-updated and ended events.
	PositionSeconds float64

	// DurationSeconds is set for metadata-ready events. Zero means the
	// backend does not know the duration.
	DurationSeconds float64
}

// EventSink receives canonical events from an adapter. Adapters deliver
// events for one instance in the order the backend emitted them.
type EventSink func(Event)
