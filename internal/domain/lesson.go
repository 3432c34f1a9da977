// Package domain holds the core entities of the Lectern server.
package domain

import "time"

// VideoKind identifies which playback backend serves a lesson's video.
type VideoKind string

// Video kinds.
const (
	VideoKindLocal        VideoKind = "local"
	VideoKindRemoteStream VideoKind = "remote_stream"
	VideoKindEmbedShare   VideoKind = "embed_share"
)

// Valid reports whether the kind is one of the known backends.
func (k VideoKind) Valid() bool {
	switch k {
	case VideoKindLocal, VideoKindRemoteStream, VideoKindEmbedShare:
		return true
	}
	return false
}

// Lesson is the descriptor the player consumes at construction.
// Chapters are static lesson data; the player normalizes them into
// its own index and never mutates them.
type Lesson struct {
	ID              string          `json:"id"`
	CourseID        string          `json:"course_id,omitempty"`
	Title           string          `json:"title"`
	VideoKind       VideoKind       `json:"video_kind"`
	VideoLocator    string          `json:"video_locator"`
	DurationSeconds float64         `json:"duration_seconds"`
	Chapters        []ChapterMarker `json:"chapters,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ChapterMarker is a labeled timestamp within a lesson's timeline,
// as stored. Ordering and deduplication are the player's concern.
type ChapterMarker struct {
	TimestampSeconds float64 `json:"timestamp_seconds"`
	Label            string  `json:"label"`
}
