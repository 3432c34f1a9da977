package sqlite

import (
	"context"
	"database/sql"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/store"
)

// progressColumns is the ordered list of columns selected in progress queries.
// Must match the scan order in scanProgress.
const progressColumns = `user_id, lesson_id, position_seconds, progress,
	completed, completed_at, started_at, last_watched_at, updated_at`

// scanProgress scans a sql.Row (or sql.Rows via its Scan method) into a domain.WatchProgress.
func scanProgress(scanner interface{ Scan(dest ...any) error }) (*domain.WatchProgress, error) {
	var p domain.WatchProgress

	var (
		completed   int
		completedAt sql.NullString
		startedAt   string
		lastWatched string
		updatedAt   string
	)

	err := scanner.Scan(
		&p.UserID,
		&p.LessonID,
		&p.PositionSeconds,
		&p.Progress,
		&completed,
		&completedAt,
		&startedAt,
		&lastWatched,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Completed = completed != 0

	p.CompletedAt, err = parseNullableTime(completedAt)
	if err != nil {
		return nil, err
	}
	p.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	p.LastWatchedAt, err = parseTime(lastWatched)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetProgress retrieves watch progress for a user+lesson.
// Returns store.ErrProgressNotFound if no progress exists.
func (s *Store) GetProgress(ctx context.Context, userID, lessonID string) (*domain.WatchProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM watch_progress WHERE user_id = ? AND lesson_id = ?`,
		userID, lessonID)

	progress, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// UpsertProgress creates or replaces watch progress for a user+lesson.
func (s *Store) UpsertProgress(ctx context.Context, progress *domain.WatchProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO watch_progress (
			user_id, lesson_id, position_seconds, progress,
			completed, completed_at, started_at, last_watched_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		progress.UserID,
		progress.LessonID,
		progress.PositionSeconds,
		progress.Progress,
		boolToInt(progress.Completed),
		nullTimeString(progress.CompletedAt),
		formatTime(progress.StartedAt),
		formatTime(progress.LastWatchedAt),
		formatTime(progress.UpdatedAt),
	)
	return err
}

// DeleteProgress removes progress for a user+lesson.
func (s *Store) DeleteProgress(ctx context.Context, userID, lessonID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM watch_progress WHERE user_id = ? AND lesson_id = ?`,
		userID, lessonID)
	return err
}

// GetProgressForUser retrieves all progress rows for a user.
func (s *Store) GetProgressForUser(ctx context.Context, userID string) ([]*domain.WatchProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM watch_progress WHERE user_id = ? ORDER BY last_watched_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*domain.WatchProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetContinueWatching returns in-progress, uncompleted lessons for a user,
// ordered by last_watched_at descending with a limit.
func (s *Store) GetContinueWatching(ctx context.Context, userID string, limit int) ([]*domain.WatchProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+progressColumns+`
		FROM watch_progress
		WHERE user_id = ?
		  AND completed = 0
		  AND position_seconds > 0
		ORDER BY last_watched_at DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*domain.WatchProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
