// Package store defines the persistence interface consumed by the services.
package store

import (
	"context"
	"errors"

	"github.com/lecternapp/lectern-server/internal/domain"
)

// Sentinel errors returned by store implementations.
var (
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrProgressNotFound = errors.New("progress not found")
	ErrAlreadyExists    = errors.New("already exists")
)

// Store is the persistence surface the Lectern services depend on.
type Store interface {
	LessonStore
	ProgressStore

	Close() error
}

// LessonStore persists lesson descriptors and their chapter markers.
type LessonStore interface {
	CreateLesson(ctx context.Context, lesson *domain.Lesson) error
	GetLesson(ctx context.Context, id string) (*domain.Lesson, error)
	ListLessons(ctx context.Context, courseID string) ([]*domain.Lesson, error)
	UpdateLesson(ctx context.Context, lesson *domain.Lesson) error
	DeleteLesson(ctx context.Context, id string) error
}

// ProgressStore persists per-user watch progress.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID, lessonID string) (*domain.WatchProgress, error)
	UpsertProgress(ctx context.Context, progress *domain.WatchProgress) error
	DeleteProgress(ctx context.Context, userID, lessonID string) error
	GetProgressForUser(ctx context.Context, userID string) ([]*domain.WatchProgress, error)
	GetContinueWatching(ctx context.Context, userID string, limit int) ([]*domain.WatchProgress, error)
}
