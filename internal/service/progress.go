package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/store"
)

// ProgressService handles watch-progress reports and resume positions.
type ProgressService struct {
	store               store.Store
	completionThreshold float64
	logger              *slog.Logger
}

// NewProgressService creates a new progress service.
// completionThreshold is the watched fraction at which a lesson counts as
// completed even without an explicit ended signal.
func NewProgressService(store store.Store, completionThreshold float64, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		store:               store,
		completionThreshold: completionThreshold,
		logger:              logger,
	}
}

// RecordReportRequest contains the data for recording a progress report.
type RecordReportRequest struct {
	LessonID        string  `json:"lesson_id" validate:"required"`
	PositionSeconds int64   `json:"position_seconds" validate:"gte=0"`
	Completed       bool    `json:"completed"`
	PlaybackRate    float64 `json:"playback_rate" validate:"omitempty,gt=0,lte=4"`
	DeviceID        string  `json:"device_id"`
}

// RecordReport folds a progress report into the stored progress for
// (user, lesson). Reports are idempotent: replaying the same report
// yields the same stored state, and a completed=false report can never
// clear a persisted completion.
func (s *ProgressService) RecordReport(ctx context.Context, userID string, req RecordReportRequest) (*domain.WatchProgress, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLesson(ctx, req.LessonID)
	if errors.Is(err, store.ErrLessonNotFound) {
		return nil, errors.NotFoundf("lesson %s not found", req.LessonID)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	report := domain.ProgressReport{
		LessonID:        req.LessonID,
		PositionSeconds: req.PositionSeconds,
		Completed:       req.Completed,
		PlaybackRate:    req.PlaybackRate,
		DeviceID:        req.DeviceID,
	}

	progress, err := s.store.GetProgress(ctx, userID, req.LessonID)
	if err != nil && !errors.Is(err, store.ErrProgressNotFound) {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	if progress == nil {
		progress = domain.NewWatchProgress(userID, report, lesson.DurationSeconds, s.completionThreshold)
	} else {
		progress.ApplyReport(report, lesson.DurationSeconds, s.completionThreshold)
	}

	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}

	s.logger.Debug("recorded progress report",
		"user_id", userID,
		"lesson_id", req.LessonID,
		"position_seconds", progress.PositionSeconds,
		"completed", progress.Completed,
	)

	return progress, nil
}

// GetProgress retrieves watch progress for a specific lesson.
// Returns a zero-position progress when none exists yet, so the player
// always gets a usable resume position.
func (s *ProgressService) GetProgress(ctx context.Context, userID, lessonID string) (*domain.WatchProgress, error) {
	progress, err := s.store.GetProgress(ctx, userID, lessonID)
	if errors.Is(err, store.ErrProgressNotFound) {
		return &domain.WatchProgress{UserID: userID, LessonID: lessonID}, nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// ResetProgress removes progress for a user+lesson, allowing a restart.
func (s *ProgressService) ResetProgress(ctx context.Context, userID, lessonID string) error {
	return s.store.DeleteProgress(ctx, userID, lessonID)
}

// GetContinueWatching returns in-progress lessons with lesson details for display.
// Returns a display-ready response that doesn't require client-side joins.
func (s *ProgressService) GetContinueWatching(ctx context.Context, userID string, limit int) ([]*domain.ContinueWatchingItem, error) {
	if limit <= 0 {
		limit = 10 // Default limit
	}

	progressList, err := s.store.GetContinueWatching(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	items := make([]*domain.ContinueWatchingItem, 0, len(progressList))
	for _, progress := range progressList {
		lesson, err := s.store.GetLesson(ctx, progress.LessonID)
		if err != nil {
			s.logger.Warn("Lesson not found for progress", "lesson_id", progress.LessonID, "error", err)
			continue // Skip items where the lesson is missing
		}

		items = append(items, &domain.ContinueWatchingItem{
			LessonID:        progress.LessonID,
			PositionSeconds: progress.PositionSeconds,
			Progress:        progress.Progress,
			LastWatchedAt:   progress.LastWatchedAt,
			Title:           lesson.Title,
			DurationSeconds: lesson.DurationSeconds,
		})
	}

	return items, nil
}

// UserStats contains watch statistics for a user.
type UserStats struct {
	LessonsStarted   int `json:"lessons_started"`
	LessonsCompleted int `json:"lessons_completed"`
}

// GetUserStats calculates watch statistics for a user.
func (s *ProgressService) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	allProgress, err := s.store.GetProgressForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{}
	for _, p := range allProgress {
		stats.LessonsStarted++
		if p.Completed {
			stats.LessonsCompleted++
		}
	}

	return stats, nil
}
