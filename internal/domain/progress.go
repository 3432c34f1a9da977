package domain

import "time"

// ProgressReport is the unit of watch progress a player sends.
// Completed is one-way: once a report marks a lesson completed,
// later reports cannot clear it.
type ProgressReport struct {
	LessonID        string  `json:"lesson_id"`
	PositionSeconds int64   `json:"position_seconds"`
	Completed       bool    `json:"completed"`
	PlaybackRate    float64 `json:"playback_rate,omitempty"`
	DeviceID        string  `json:"device_id,omitempty"`
}

// WatchProgress is the persisted view of a user's progress through a lesson.
// It only ever moves forward: position advances, completed latches.
type WatchProgress struct {
	UserID          string     `json:"user_id"`
	LessonID        string     `json:"lesson_id"`
	PositionSeconds int64      `json:"position_seconds"`
	Progress        float64    `json:"progress"` // 0.0 - 1.0, 0 when duration unknown
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	LastWatchedAt   time.Time  `json:"last_watched_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ProgressID generates composite key: "userID:lessonID".
func ProgressID(userID, lessonID string) string {
	return userID + ":" + lessonID
}

// NewWatchProgress creates progress from the first report for a lesson.
func NewWatchProgress(userID string, report ProgressReport, lessonDurationSeconds, completionThreshold float64) *WatchProgress {
	now := time.Now()
	p := &WatchProgress{
		UserID:          userID,
		LessonID:        report.LessonID,
		PositionSeconds: report.PositionSeconds,
		StartedAt:       now,
		LastWatchedAt:   now,
		UpdatedAt:       now,
	}
	p.recalculate(report, lessonDurationSeconds, completionThreshold)
	return p
}

// ApplyReport folds a new report into existing progress.
// Position only advances forward (rewinds don't move position back),
// and completed never flips back to false.
func (p *WatchProgress) ApplyReport(report ProgressReport, lessonDurationSeconds, completionThreshold float64) {
	if report.PositionSeconds > p.PositionSeconds {
		p.PositionSeconds = report.PositionSeconds
	}

	now := time.Now()
	p.LastWatchedAt = now
	p.UpdatedAt = now

	p.recalculate(report, lessonDurationSeconds, completionThreshold)
}

// recalculate refreshes the derived percentage and the completion latch.
// Completion comes from either the report's explicit flag (the player saw
// "ended") or from crossing the configured watched-fraction threshold.
func (p *WatchProgress) recalculate(report ProgressReport, lessonDurationSeconds, completionThreshold float64) {
	if lessonDurationSeconds > 0 {
		p.Progress = float64(p.PositionSeconds) / lessonDurationSeconds
		if p.Progress > 1 {
			p.Progress = 1
		}
	}

	if p.Completed {
		return
	}

	crossed := lessonDurationSeconds > 0 &&
		float64(p.PositionSeconds) >= lessonDurationSeconds*completionThreshold
	if report.Completed || crossed {
		p.Completed = true
		now := time.Now()
		p.CompletedAt = &now
	}
}

// ContinueWatchingItem is a display-ready item for the continue-watching
// shelf. Combines progress with essential lesson details to eliminate
// client-side joins.
type ContinueWatchingItem struct {
	LessonID        string    `json:"lesson_id"`
	PositionSeconds int64     `json:"position_seconds"`
	Progress        float64   `json:"progress"`
	LastWatchedAt   time.Time `json:"last_watched_at"`

	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
}
