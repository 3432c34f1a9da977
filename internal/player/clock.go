package player

import (
	"sync"
	"time"
)

// clockInterval matches the native media-element time-update cadence.
const clockInterval = 250 * time.Millisecond

// mediaClock drives position for backends that play through a media
// element. It ticks at the element's native cadence, scales by the
// playback rate, and emits time-updated plus a single ended event when
// the position reaches a known duration.
type mediaClock struct {
	sink EventSink

	mu       sync.Mutex
	position float64
	duration float64 // 0 = unknown, position is unbounded
	rate     float64
	playing  bool

	done     chan struct{}
	stopOnce sync.Once
}

func newMediaClock(sink EventSink) *mediaClock {
	c := &mediaClock{
		sink: sink,
		rate: 1,
		done: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *mediaClock) run() {
	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick advances the position and emits events outside the lock, since
// sinks may call back into the adapter.
func (c *mediaClock) tick() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}

	c.position += clockInterval.Seconds() * c.rate

	ended := false
	if c.duration > 0 && c.position >= c.duration {
		c.position = c.duration
		c.playing = false
		ended = true
	}
	position := c.position
	c.mu.Unlock()

	c.sink(Event{Type: EventTimeUpdated, PositionSeconds: position})
	if ended {
		c.sink(Event{Type: EventEnded, PositionSeconds: position})
	}
}

func (c *mediaClock) play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = true
}

func (c *mediaClock) pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

func (c *mediaClock) seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.position = seconds
}

func (c *mediaClock) setRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
}

func (c *mediaClock) setDuration(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = seconds
}

func (c *mediaClock) pos() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *mediaClock) stop() {
	c.stopOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	c.playing = false
	c.mu.Unlock()
}
