package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
)

func localSource() Source {
	return Source{
		Kind:                domain.VideoKindLocal,
		Locator:             "https://media.example.com/intro.mp4",
		DurationHintSeconds: 600,
	}
}

func TestLocalInitializeEmitsMetadataThenResume(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewLocalAdapter(collector.sink)
	defer adapter.Dispose()

	require.NoError(t, adapter.Initialize(localSource(), 90))

	events := collector.all()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, EventMetadataReady, events[0].Type)
	assert.Equal(t, float64(600), events[0].DurationSeconds)
	assert.Equal(t, EventTimeUpdated, events[1].Type)
	assert.Equal(t, float64(90), events[1].PositionSeconds)
}

func TestLocalInitializeRejectsEmptyLocator(t *testing.T) {
	adapter := NewLocalAdapter(func(Event) {})

	err := adapter.Initialize(Source{Kind: domain.VideoKindLocal}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPlayerUnavailable))
}

func TestLocalControlsBeforeInitializeFail(t *testing.T) {
	adapter := NewLocalAdapter(func(Event) {})

	// Seeking before metadata load would be silently ignored by the
	// backend; the adapter surfaces it instead.
	assert.True(t, errors.Is(adapter.Seek(100), errors.ErrPlayerUnavailable))
	assert.True(t, errors.Is(adapter.Play(), errors.ErrPlayerUnavailable))
	assert.True(t, errors.Is(adapter.SetVolume(0.5), errors.ErrPlayerUnavailable))
}

func TestLocalSeekClampsToDuration(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewLocalAdapter(collector.sink)
	defer adapter.Dispose()

	require.NoError(t, adapter.Initialize(localSource(), 0))
	collector.mu.Lock()
	collector.events = nil
	collector.mu.Unlock()

	require.NoError(t, adapter.Seek(9999))

	events := collector.all()
	require.Len(t, events, 1)
	assert.Equal(t, float64(600), events[0].PositionSeconds)

	require.NoError(t, adapter.Seek(-5))
	events = collector.all()
	assert.Equal(t, float64(0), events[1].PositionSeconds)
}

func TestLocalDisposeSuppressesEvents(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewLocalAdapter(collector.sink)

	require.NoError(t, adapter.Initialize(localSource(), 0))
	adapter.Dispose()

	before := len(collector.all())
	adapter.emit(Event{Type: EventTimeUpdated, PositionSeconds: 42})
	assert.Len(t, collector.all(), before, "in-flight events must not leak after dispose")

	assert.True(t, errors.Is(adapter.Play(), errors.ErrPlayerUnavailable))
}

func TestLocalDoubleInitializeFails(t *testing.T) {
	adapter := NewLocalAdapter(func(Event) {})
	defer adapter.Dispose()

	require.NoError(t, adapter.Initialize(localSource(), 0))
	assert.Error(t, adapter.Initialize(localSource(), 0))
}

func TestStreamManifestURL(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewStreamAdapter(collector.sink, "")
	defer adapter.Dispose()

	source := Source{
		Kind:                domain.VideoKindRemoteStream,
		Locator:             "pb_9f8e7d6c5b4a",
		DurationHintSeconds: 1740,
	}
	require.NoError(t, adapter.Initialize(source, 0))

	assert.Equal(t, "https://stream.lectern.app/pb_9f8e7d6c5b4a/master.m3u8", adapter.ManifestURL())
	assert.Equal(t, "https://stream.lectern.app/pb_9f8e7d6c5b4a/thumbnail.jpg", adapter.ThumbnailURL())
}

func TestStreamInitializeBracketsWithBuffering(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewStreamAdapter(collector.sink, "")
	defer adapter.Dispose()

	source := Source{Kind: domain.VideoKindRemoteStream, Locator: "pb_1", DurationHintSeconds: 300}
	require.NoError(t, adapter.Initialize(source, 0))

	events := collector.all()
	require.Len(t, events, 3)
	assert.Equal(t, EventBufferingStart, events[0].Type)
	assert.Equal(t, EventMetadataReady, events[1].Type)
	assert.Equal(t, EventBufferingEnd, events[2].Type)
}

func TestStreamSeekRebuffers(t *testing.T) {
	collector := &eventCollector{}
	adapter := NewStreamAdapter(collector.sink, "")
	defer adapter.Dispose()

	source := Source{Kind: domain.VideoKindRemoteStream, Locator: "pb_1", DurationHintSeconds: 300}
	require.NoError(t, adapter.Initialize(source, 0))
	collector.mu.Lock()
	collector.events = nil
	collector.mu.Unlock()

	require.NoError(t, adapter.Seek(120))

	events := collector.all()
	require.Len(t, events, 3)
	assert.Equal(t, EventBufferingStart, events[0].Type)
	assert.Equal(t, EventTimeUpdated, events[1].Type)
	assert.Equal(t, float64(120), events[1].PositionSeconds)
	assert.Equal(t, EventBufferingEnd, events[2].Type)
}
