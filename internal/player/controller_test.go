package player

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
)

// callRecorder keeps a cross-adapter ordered log of lifecycle calls.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *callRecorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// fakeAdapter is a scriptable adapter for driving the controller.
type fakeAdapter struct {
	name     string
	sink     EventSink
	recorder *callRecorder

	mu       sync.Mutex
	seeks    []float64
	playing  bool
	muted    bool
	volume   float64
	rate     float64
	disposed bool
	initErr  error
}

func (f *fakeAdapter) Initialize(source Source, resume float64) error {
	f.recorder.record(f.name + ":initialize")
	if f.initErr != nil {
		return f.initErr
	}
	f.sink(Event{Type: EventMetadataReady, DurationSeconds: source.DurationHintSeconds})
	return nil
}

func (f *fakeAdapter) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	return nil
}

func (f *fakeAdapter) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeAdapter) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeAdapter) SetVolume(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}

func (f *fakeAdapter) SetMuted(m bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = m
	return nil
}

func (f *fakeAdapter) SetPlaybackRate(r float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = r
	return nil
}

func (f *fakeAdapter) RequestFullscreen() error { return nil }

func (f *fakeAdapter) Capabilities() Capabilities {
	return Capabilities{CanSeek: true, CanSetVolume: true, CanSetRate: true, CanFullscreen: true}
}

func (f *fakeAdapter) Dispose() {
	f.recorder.record(f.name + ":dispose")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

func (f *fakeAdapter) seekLog() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seeks))
	copy(out, f.seeks)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestController wires a controller to scripted fake adapters. The
// factory hands out fakes in order and records lifecycle calls.
func newTestController(t *testing.T, names ...string) (*Controller, *callRecorder, []*fakeAdapter) {
	t.Helper()

	recorder := &callRecorder{}
	adapters := make([]*fakeAdapter, len(names))
	next := 0

	factory := func(_ domain.VideoKind, sink EventSink) Adapter {
		require.Less(t, next, len(names), "factory invoked more times than scripted")
		fake := &fakeAdapter{name: names[next], sink: sink, recorder: recorder}
		adapters[next] = fake
		next++
		return fake
	}

	return NewController(factory, testLogger()), recorder, adapters
}

func testSource() Source {
	return Source{
		Kind:                domain.VideoKindLocal,
		Locator:             "https://media.example.com/intro.mp4",
		DurationHintSeconds: 600,
	}
}

func TestLoadTransitionsToReady(t *testing.T) {
	c, _, _ := newTestController(t, "a")

	require.NoError(t, c.Load(testSource(), 0))

	state := c.State()
	assert.Equal(t, PhaseReady, state.Phase)
	assert.Equal(t, float64(600), state.DurationSeconds)
}

func TestLoadFailureYieldsUnavailable(t *testing.T) {
	recorder := &callRecorder{}
	factory := func(_ domain.VideoKind, sink EventSink) Adapter {
		return &fakeAdapter{name: "a", sink: sink, recorder: recorder, initErr: errors.PlayerUnavailable("bad locator")}
	}
	c := NewController(factory, testLogger())

	err := c.Load(testSource(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPlayerUnavailable))
	assert.Equal(t, PhaseUnavailable, c.State().Phase)
	assert.Equal(t, Capabilities{}, c.Capabilities())
}

func TestSourceSwitchDisposesBeforeInitialize(t *testing.T) {
	c, recorder, adapters := newTestController(t, "a", "b")

	require.NoError(t, c.Load(testSource(), 0))
	require.NoError(t, c.Load(testSource(), 0))

	assert.Equal(t, []string{"a:initialize", "a:dispose", "b:initialize"}, recorder.log())
	assert.True(t, adapters[0].disposed)
	assert.Same(t, Adapter(adapters[1]), c.Adapter())
}

func TestSeeksWhileBufferingCoalesceToLatest(t *testing.T) {
	c, _, adapters := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))
	fake := adapters[0]

	require.NoError(t, c.TogglePlay())
	fake.sink(Event{Type: EventBufferingStart})
	require.Equal(t, PhaseBuffering, c.State().Phase)

	require.NoError(t, c.SeekAbsolute(100))
	require.NoError(t, c.SeekAbsolute(250))
	require.NoError(t, c.SeekAbsolute(200))
	assert.Empty(t, fake.seekLog(), "seeks must be queued, not forwarded, while buffering")

	fake.sink(Event{Type: EventBufferingEnd})

	// The last requested position is applied exactly once.
	assert.Equal(t, []float64{200}, fake.seekLog())
	assert.Equal(t, PhasePlaying, c.State().Phase)
}

func TestBufferingReturnsToPriorPhase(t *testing.T) {
	c, _, adapters := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))
	fake := adapters[0]

	// Entered from Paused, returns to Paused.
	require.NoError(t, c.TogglePlay())
	require.NoError(t, c.TogglePlay())
	require.Equal(t, PhasePaused, c.State().Phase)

	fake.sink(Event{Type: EventBufferingStart})
	require.Equal(t, PhaseBuffering, c.State().Phase)
	fake.sink(Event{Type: EventBufferingEnd})
	assert.Equal(t, PhasePaused, c.State().Phase)
}

func TestTogglePlayAtEndedRestartsFromZero(t *testing.T) {
	c, _, adapters := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))
	fake := adapters[0]

	require.NoError(t, c.TogglePlay())
	fake.sink(Event{Type: EventTimeUpdated, PositionSeconds: 600})
	fake.sink(Event{Type: EventEnded, PositionSeconds: 600})
	require.Equal(t, PhaseEnded, c.State().Phase)
	require.Equal(t, float64(600), c.State().PositionSeconds)

	require.NoError(t, c.TogglePlay())

	state := c.State()
	assert.Equal(t, PhasePlaying, state.Phase)
	assert.Equal(t, float64(0), state.PositionSeconds)
	assert.Equal(t, []float64{0}, fake.seekLog())
}

func TestSeekRelativeClampsAtZero(t *testing.T) {
	c, _, adapters := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))
	fake := adapters[0]

	fake.sink(Event{Type: EventTimeUpdated, PositionSeconds: 5})
	require.NoError(t, c.SeekRelative(-10))

	assert.Equal(t, []float64{0}, fake.seekLog())
	assert.Equal(t, float64(0), c.State().PositionSeconds)
}

func TestSeekAbsoluteClampsToDuration(t *testing.T) {
	c, _, adapters := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))

	require.NoError(t, c.SeekAbsolute(9999))
	assert.Equal(t, []float64{600}, adapters[0].seekLog())
}

func TestToggleMuteRoundTrip(t *testing.T) {
	volumes := []float64{0, 0.25, 0.37, 1}

	for _, v := range volumes {
		c, _, _ := newTestController(t, "a")
		require.NoError(t, c.Load(testSource(), 0))

		require.NoError(t, c.SetVolume(v))
		require.NoError(t, c.ToggleMute())
		require.True(t, c.State().Muted)

		require.NoError(t, c.ToggleMute())
		state := c.State()
		assert.False(t, state.Muted)
		assert.Equal(t, v, state.Volume, "unmute must restore exactly the pre-mute volume")
	}
}

func TestSetVolumeClamps(t *testing.T) {
	c, _, _ := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))

	require.NoError(t, c.SetVolume(1.8))
	assert.Equal(t, float64(1), c.State().Volume)

	require.NoError(t, c.SetVolume(-0.5))
	assert.Equal(t, float64(0), c.State().Volume)
}

func TestSetPlaybackRateRejectsArbitraryValues(t *testing.T) {
	c, _, _ := newTestController(t, "a")
	require.NoError(t, c.Load(testSource(), 0))

	for _, rate := range PlaybackRates {
		assert.NoError(t, c.SetPlaybackRate(rate))
	}

	for _, rate := range []float64{0, -1, 1.1, 3, 100} {
		err := c.SetPlaybackRate(rate)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))
	}
}

func TestControlsUnavailableBeforeLoad(t *testing.T) {
	c, _, _ := newTestController(t)

	assert.True(t, errors.Is(c.TogglePlay(), errors.ErrPlayerUnavailable))
	assert.True(t, errors.Is(c.SeekAbsolute(10), errors.ErrPlayerUnavailable))
	assert.True(t, errors.Is(c.ToggleMute(), errors.ErrPlayerUnavailable))
}

func TestListenersSeeEventsWithSnapshots(t *testing.T) {
	c, _, adapters := newTestController(t, "a")

	var mu sync.Mutex
	var got []Event
	c.Subscribe(func(ev Event, state State) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
		assert.Equal(t, ev.PositionSeconds, state.PositionSeconds)
	})

	require.NoError(t, c.Load(testSource(), 0))
	adapters[0].sink(Event{Type: EventTimeUpdated, PositionSeconds: 42})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, EventMetadataReady, got[0].Type)
	assert.Equal(t, EventTimeUpdated, got[1].Type)
	assert.Equal(t, float64(42), got[1].PositionSeconds)
}
