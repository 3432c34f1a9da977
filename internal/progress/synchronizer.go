// Package progress turns the continuous canonical event stream into
// periodic, idempotent persistence calls and a one-time completion
// signal.
package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/player"
)

// Reporter delivers a progress report to the persistence API.
type Reporter interface {
	Report(ctx context.Context, report domain.ProgressReport) error
}

// reportTimeout bounds a single persistence call. Playback never waits
// on it.
const reportTimeout = 10 * time.Second

// Synchronizer consumes time-updated and ended events for one lesson
// and produces throttled progress reports. Each player owns its own
// instance; the throttle timer is never shared, so two mounted players
// cannot interfere.
//
// Bursts of time updates coalesce into the latest position only; there
// is no backlog. A failed report is logged and superseded by the next
// tick, since position progresses continuously and stale data has no
// value. The completed flag is a one-way latch for the lifetime of the
// instance.
type Synchronizer struct {
	lessonID string
	reporter Reporter
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	latest    float64
	dirty     bool
	completed bool
	closed    bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewSynchronizer creates a synchronizer for one lesson and starts its
// report ticker.
func NewSynchronizer(lessonID string, reporter Reporter, interval time.Duration, logger *slog.Logger) *Synchronizer {
	s := &Synchronizer{
		lessonID: lessonID,
		reporter: reporter,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Synchronizer) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// OnEvent adapts the synchronizer to the controller's listener shape.
// Events for other lessons never reach it: the shell closes this
// instance before mounting the next lesson's player.
func (s *Synchronizer) OnEvent(ev player.Event, _ player.State) {
	switch ev.Type {
	case player.EventTimeUpdated:
		s.OnTimeUpdated(ev.PositionSeconds)
	case player.EventEnded:
		s.OnEnded(ev.PositionSeconds)
	}
}

// OnTimeUpdated records the newest position. No report is sent here;
// the ticker coalesces.
func (s *Synchronizer) OnTimeUpdated(positionSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = positionSeconds
	s.dirty = true
}

// OnEnded latches completion and reports immediately rather than
// waiting for the next tick. A user who navigates away right after the
// credits must not lose the completion signal.
func (s *Synchronizer) OnEnded(positionSeconds float64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if positionSeconds > s.latest {
		s.latest = positionSeconds
	}
	s.completed = true
	s.dirty = true
	s.mu.Unlock()

	s.Flush()
}

// Flush sends the pending report, if any. Safe to call at any time;
// a no-op when nothing changed since the last send.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	report := domain.ProgressReport{
		LessonID:        s.lessonID,
		PositionSeconds: int64(s.latest),
		Completed:       s.completed,
	}
	s.dirty = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := s.reporter.Report(ctx, report); err != nil {
		// Dropped, not retried. The next tick carries a fresher position.
		s.logger.Warn("progress report dropped",
			"lesson_id", s.lessonID,
			"position_seconds", report.PositionSeconds,
			"completed", report.Completed,
			"error", err,
		)
	}
}

// Close flushes any pending report and stops the ticker. Called when
// the lesson changes or the player unmounts; the flush is what keeps a
// fast lesson switch from losing the last report.
func (s *Synchronizer) Close() {
	s.Flush()
	s.closeOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
