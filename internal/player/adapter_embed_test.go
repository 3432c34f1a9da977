package player

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
)

type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) sink(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func newInitializedEmbed(t *testing.T) (*EmbedAdapter, *eventCollector) {
	t.Helper()

	collector := &eventCollector{}
	adapter := NewEmbedAdapter(collector.sink, "")

	source := Source{
		Kind:                domain.VideoKindEmbedShare,
		Locator:             "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		DurationHintSeconds: 212,
	}
	require.NoError(t, adapter.Initialize(source, 0))

	// Drop the metadata-ready from initialization; tests below care
	// about message-derived events.
	collector.mu.Lock()
	collector.events = nil
	collector.mu.Unlock()

	return adapter, collector
}

func TestEmbedURLCarriesStartOffset(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewEmbedAdapter(collector.sink, "")

	source := Source{Kind: domain.VideoKindEmbedShare, Locator: "https://youtu.be/jNQXAC9IVRw"}
	require.NoError(t, adapter.Initialize(source, 90))

	assert.Equal(t, "https://www.youtube.com/embed/jNQXAC9IVRw?start=90", adapter.EmbedURL())
}

func TestEmbedBareLocatorUsedAsID(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewEmbedAdapter(collector.sink, "")

	source := Source{Kind: domain.VideoKindEmbedShare, Locator: "dQw4w9WgXcQ"}
	require.NoError(t, adapter.Initialize(source, 0))

	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ?start=0", adapter.EmbedURL())
}

func TestEmbedProgressMessageFromTrustedOrigin(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	gen := adapter.Generation()

	payload := []byte(`{"event":"video-progress","info":{"currentTime":42}}`)
	adapter.HandleMessage(DefaultEmbedOrigin, gen, payload)

	events := collector.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventTimeUpdated, events[0].Type)
	assert.Equal(t, float64(42), events[0].PositionSeconds)
}

func TestEmbedMessageFromUntrustedOriginDropped(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	gen := adapter.Generation()

	payload := []byte(`{"event":"video-progress","info":{"currentTime":42}}`)
	adapter.HandleMessage("https://evil.example.com", gen, payload)

	assert.Empty(t, collector.all(), "foreign-origin message must be dropped before parsing")
}

func TestEmbedStaleGenerationDropped(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	stale := adapter.Generation()

	// A seek recreates the embed and retires the old generation.
	require.NoError(t, adapter.Seek(30))
	collector.mu.Lock()
	collector.events = nil
	collector.mu.Unlock()

	payload := []byte(`{"event":"video-progress","info":{"currentTime":42}}`)
	adapter.HandleMessage(DefaultEmbedOrigin, stale, payload)
	assert.Empty(t, collector.all())

	adapter.HandleMessage(DefaultEmbedOrigin, adapter.Generation(), payload)
	assert.Len(t, collector.all(), 1)
}

func TestEmbedMessagesAfterDisposeIgnored(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	gen := adapter.Generation()

	adapter.Dispose()

	payload := []byte(`{"event":"video-progress","info":{"currentTime":42}}`)
	adapter.HandleMessage(DefaultEmbedOrigin, gen, payload)

	assert.Empty(t, collector.all())
}

func TestEmbedEndedMessage(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	gen := adapter.Generation()

	adapter.HandleMessage(DefaultEmbedOrigin, gen, []byte(`{"event":"video-progress","info":{"currentTime":210}}`))
	adapter.HandleMessage(DefaultEmbedOrigin, gen, []byte(`{"event":"video-ended"}`))

	events := collector.all()
	require.Len(t, events, 2)
	assert.Equal(t, EventEnded, events[1].Type)
	assert.Equal(t, float64(210), events[1].PositionSeconds)
}

func TestEmbedMalformedAndUnknownMessagesDropped(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	gen := adapter.Generation()

	payloads := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"event":"something-else","info":{"currentTime":5}}`),
		[]byte(`{}`),
		[]byte(``),
	}
	for _, p := range payloads {
		adapter.HandleMessage(DefaultEmbedOrigin, gen, p)
	}

	assert.Empty(t, collector.all())
}

func TestEmbedSeekRecreatesWithNewOffset(t *testing.T) {
	adapter, collector := newInitializedEmbed(t)
	before := adapter.Generation()

	require.NoError(t, adapter.Seek(125))

	assert.NotEqual(t, before, adapter.Generation())
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ?start=125", adapter.EmbedURL())

	events := collector.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventTimeUpdated, events[0].Type)
	assert.Equal(t, float64(125), events[0].PositionSeconds)
}

func TestEmbedCapabilitiesDegraded(t *testing.T) {
	adapter := NewEmbedAdapter(func(Event) {}, "")
	caps := adapter.Capabilities()

	assert.True(t, caps.CanSeek)
	assert.False(t, caps.CanSetVolume)
	assert.False(t, caps.CanSetRate)
	assert.False(t, caps.CanFullscreen)
}
