package player

import (
	"encoding/json/v2"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lecternapp/lectern-server/internal/errors"
)

// DefaultEmbedOrigin is the only origin trusted on the embedded-share
// message channel unless configured otherwise.
const DefaultEmbedOrigin = "https://www.youtube.com"

// embedMessage is the wire shape of inbound share-embed messages.
// Anything that does not parse into it is discarded.
type embedMessage struct {
	Event string `json:"event"`
	Info  struct {
		CurrentTime float64 `json:"currentTime"`
	} `json:"info"`
}

// EmbedAdapter drives a third-party video-sharing embed. It has no
// direct handle on playback: the only inbound path is a cross-document
// message channel, and the only outbound control is recreating the
// embed with a different start offset. The channel is a security
// boundary; messages are rejected on origin before they are parsed.
type EmbedAdapter struct {
	mu            sync.Mutex
	sink          EventSink
	trustedOrigin string

	embedID     string
	startOffset float64
	generation  string
	position    float64
	disposed    bool
	initialized bool
}

// NewEmbedAdapter creates an embedded-share adapter. trustedOrigin may
// be empty to use the default.
func NewEmbedAdapter(sink EventSink, trustedOrigin string) *EmbedAdapter {
	if trustedOrigin == "" {
		trustedOrigin = DefaultEmbedOrigin
	}
	return &EmbedAdapter{sink: sink, trustedOrigin: trustedOrigin}
}

// Initialize resolves the share identifier and mints the first embed
// generation. Locators may be full share URLs or bare identifiers.
func (a *EmbedAdapter) Initialize(source Source, resumePositionSeconds float64) error {
	a.mu.Lock()

	if source.Locator == "" {
		a.mu.Unlock()
		return errors.PlayerUnavailable("embed source has no locator")
	}
	if a.initialized {
		a.mu.Unlock()
		return errors.Internal("adapter already initialized")
	}

	id, ok := ExtractEmbedID(source.Locator)
	if !ok {
		id = source.Locator
	}
	a.embedID = id
	a.startOffset = resumePositionSeconds
	a.position = resumePositionSeconds
	a.generation = uuid.NewString()
	a.initialized = true
	hint := source.DurationHintSeconds
	a.mu.Unlock()

	a.emit(Event{Type: EventMetadataReady, DurationSeconds: hint})
	return nil
}

// EmbedURL returns the sandboxed document URL, parameterized with the
// current start offset.
func (a *EmbedAdapter) EmbedURL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%s/embed/%s?start=%d", a.trustedOrigin, a.embedID, int(a.startOffset))
}

// Generation is the token stamped on the current embed instance. The
// shell passes it back with every inbound message so stale messages
// from a recreated or disposed embed can be told apart; listener
// removal alone is not synchronous across the message channel.
func (a *EmbedAdapter) Generation() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// HandleMessage processes one inbound message from the embed channel.
// Origin is checked before the payload is parsed. Unknown event tags,
// malformed payloads, foreign origins, and stale generations are all
// silently discarded.
func (a *EmbedAdapter) HandleMessage(origin, generation string, payload []byte) {
	a.mu.Lock()
	if a.disposed || !a.initialized || origin != a.trustedOrigin || generation != a.generation {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	var msg embedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}

	switch msg.Event {
	case "video-progress":
		a.mu.Lock()
		a.position = msg.Info.CurrentTime
		a.mu.Unlock()
		a.emit(Event{Type: EventTimeUpdated, PositionSeconds: msg.Info.CurrentTime})
	case "video-ended":
		a.mu.Lock()
		position := a.position
		a.mu.Unlock()
		a.emit(Event{Type: EventEnded, PositionSeconds: position})
	}
}

func (a *EmbedAdapter) emit(ev Event) {
	a.mu.Lock()
	disposed := a.disposed
	a.mu.Unlock()
	if !disposed {
		a.sink(ev)
	}
}

func (a *EmbedAdapter) ready() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized || a.disposed {
		return errors.ErrPlayerUnavailable
	}
	return nil
}

// Play is a no-op: playback starts through the embed's own UI and is
// observed via progress messages.
func (a *EmbedAdapter) Play() error {
	return a.ready()
}

// Pause is a no-op for the same reason as Play.
func (a *EmbedAdapter) Pause() error {
	return a.ready()
}

// Seek recreates the embed with a new start offset. The old generation
// is retired so its late messages are dropped.
func (a *EmbedAdapter) Seek(seconds float64) error {
	if err := a.ready(); err != nil {
		return err
	}
	a.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	a.startOffset = seconds
	a.position = seconds
	a.generation = uuid.NewString()
	a.mu.Unlock()

	a.emit(Event{Type: EventTimeUpdated, PositionSeconds: seconds})
	return nil
}

// SetVolume is not honorable without the embed's own UI.
func (a *EmbedAdapter) SetVolume(_ float64) error {
	return a.ready()
}

// SetMuted is not honorable without the embed's own UI.
func (a *EmbedAdapter) SetMuted(_ bool) error {
	return a.ready()
}

// SetPlaybackRate is not honorable without the embed's own UI.
func (a *EmbedAdapter) SetPlaybackRate(_ float64) error {
	return a.ready()
}

// RequestFullscreen is not honorable; the embed owns its frame.
func (a *EmbedAdapter) RequestFullscreen() error {
	return a.ready()
}

// Capabilities reports the degraded control set so the shell hides
// volume, rate, and fullscreen controls for this backend.
func (a *EmbedAdapter) Capabilities() Capabilities {
	return Capabilities{CanSeek: true}
}

// Dispose retires the generation so messages still in flight across
// the channel are ignored.
func (a *EmbedAdapter) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disposed = true
	a.generation = ""
}
