package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/store"
)

// lessonColumns is the ordered list of columns selected in lesson queries.
// Must match the scan order in scanLesson.
const lessonColumns = `id, course_id, title, video_kind, video_locator,
	duration_seconds, created_at, updated_at`

// scanLesson scans a sql.Row (or sql.Rows via its Scan method) into a domain.Lesson.
func scanLesson(scanner interface{ Scan(dest ...any) error }) (*domain.Lesson, error) {
	var l domain.Lesson

	var (
		kind      string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&l.ID,
		&l.CourseID,
		&l.Title,
		&kind,
		&l.VideoLocator,
		&l.DurationSeconds,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.VideoKind = domain.VideoKind(kind)

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// CreateLesson inserts a new lesson and its chapter markers.
// Returns store.ErrAlreadyExists if the lesson ID already exists.
func (s *Store) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lessons (
			id, course_id, title, video_kind, video_locator,
			duration_seconds, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lesson.ID,
		lesson.CourseID,
		lesson.Title,
		string(lesson.VideoKind),
		lesson.VideoLocator,
		lesson.DurationSeconds,
		formatTime(lesson.CreatedAt),
		formatTime(lesson.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := insertChapters(ctx, tx, lesson.ID, lesson.Chapters); err != nil {
		return err
	}

	return tx.Commit()
}

// GetLesson retrieves a lesson with its chapter markers.
// Returns store.ErrLessonNotFound if the lesson does not exist.
func (s *Store) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)

	lesson, err := scanLesson(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}

	lesson.Chapters, err = s.getChapters(ctx, id)
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListLessons retrieves lessons, optionally filtered by course, ordered by creation time.
func (s *Store) ListLessons(ctx context.Context, courseID string) ([]*domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons ORDER BY created_at`
	args := []any{}
	if courseID != "" {
		query = `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = ? ORDER BY created_at`
		args = append(args, courseID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []*domain.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, lesson := range lessons {
		lesson.Chapters, err = s.getChapters(ctx, lesson.ID)
		if err != nil {
			return nil, err
		}
	}
	return lessons, nil
}

// UpdateLesson replaces a lesson and its chapter markers.
// Returns store.ErrLessonNotFound if the lesson does not exist.
func (s *Store) UpdateLesson(ctx context.Context, lesson *domain.Lesson) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
		UPDATE lessons
		SET course_id = ?, title = ?, video_kind = ?, video_locator = ?,
		    duration_seconds = ?, updated_at = ?
		WHERE id = ?`,
		lesson.CourseID,
		lesson.Title,
		string(lesson.VideoKind),
		lesson.VideoLocator,
		lesson.DurationSeconds,
		formatTime(lesson.UpdatedAt),
		lesson.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrLessonNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_chapters WHERE lesson_id = ?`, lesson.ID); err != nil {
		return err
	}
	if err := insertChapters(ctx, tx, lesson.ID, lesson.Chapters); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteLesson removes a lesson; chapters cascade.
func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrLessonNotFound
	}
	return nil
}

// insertChapters inserts chapter markers preserving source order.
func insertChapters(ctx context.Context, tx *sql.Tx, lessonID string, chapters []domain.ChapterMarker) error {
	for i, ch := range chapters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lesson_chapters (lesson_id, position, timestamp_seconds, label)
			VALUES (?, ?, ?, ?)`,
			lessonID, i, ch.TimestampSeconds, ch.Label,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// getChapters retrieves chapter markers in stored order.
func (s *Store) getChapters(ctx context.Context, lessonID string) ([]domain.ChapterMarker, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp_seconds, label
		FROM lesson_chapters
		WHERE lesson_id = ?
		ORDER BY position`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []domain.ChapterMarker
	for rows.Next() {
		var ch domain.ChapterMarker
		if err := rows.Scan(&ch.TimestampSeconds, &ch.Label); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}
