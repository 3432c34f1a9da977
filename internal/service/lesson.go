package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/id"
	"github.com/lecternapp/lectern-server/internal/store"
)

// LessonService manages lesson descriptors.
type LessonService struct {
	store  store.Store
	logger *slog.Logger
}

// NewLessonService creates a new lesson service.
func NewLessonService(store store.Store, logger *slog.Logger) *LessonService {
	return &LessonService{
		store:  store,
		logger: logger,
	}
}

// CreateLessonRequest contains the data for creating a lesson.
type CreateLessonRequest struct {
	CourseID        string                 `json:"course_id"`
	Title           string                 `json:"title" validate:"required,max=200"`
	VideoKind       string                 `json:"video_kind" validate:"omitempty,oneof=local remote_stream embed_share"`
	VideoLocator    string                 `json:"video_locator" validate:"required"`
	DurationSeconds float64                `json:"duration_seconds" validate:"gte=0"`
	Chapters        []domain.ChapterMarker `json:"chapters"`
}

// CreateLesson creates a lesson descriptor.
// An empty video_kind is allowed: such lessons predate explicit kind tagging
// and the player resolves the backend from the locator itself.
func (s *LessonService) CreateLesson(ctx context.Context, req CreateLessonRequest) (*domain.Lesson, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	lessonID, err := id.Generate("lsn")
	if err != nil {
		return nil, fmt.Errorf("generate lesson ID: %w", err)
	}

	now := time.Now()
	lesson := &domain.Lesson{
		ID:              lessonID,
		CourseID:        req.CourseID,
		Title:           req.Title,
		VideoKind:       domain.VideoKind(req.VideoKind),
		VideoLocator:    req.VideoLocator,
		DurationSeconds: req.DurationSeconds,
		Chapters:        req.Chapters,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateLesson(ctx, lesson); err != nil {
		return nil, fmt.Errorf("store lesson: %w", err)
	}

	s.logger.Debug("created lesson",
		"lesson_id", lesson.ID,
		"title", lesson.Title,
		"video_kind", lesson.VideoKind,
	)

	return lesson, nil
}

// GetLesson retrieves a lesson descriptor by ID.
func (s *LessonService) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if errors.Is(err, store.ErrLessonNotFound) {
		return nil, errors.NotFoundf("lesson %s not found", lessonID)
	}
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessons returns lessons, optionally scoped to a course.
func (s *LessonService) ListLessons(ctx context.Context, courseID string) ([]*domain.Lesson, error) {
	return s.store.ListLessons(ctx, courseID)
}

// DeleteLesson removes a lesson descriptor.
func (s *LessonService) DeleteLesson(ctx context.Context, lessonID string) error {
	err := s.store.DeleteLesson(ctx, lessonID)
	if errors.Is(err, store.ErrLessonNotFound) {
		return errors.NotFoundf("lesson %s not found", lessonID)
	}
	return err
}
