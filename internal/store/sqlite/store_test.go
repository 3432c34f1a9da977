package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLesson(id string) *domain.Lesson {
	now := time.Now()
	return &domain.Lesson{
		ID:              id,
		CourseID:        "crs-1",
		Title:           "Lesson " + id,
		VideoKind:       domain.VideoKindLocal,
		VideoLocator:    "https://media.example.com/" + id + ".mp4",
		DurationSeconds: 600,
		Chapters: []domain.ChapterMarker{
			{TimestampSeconds: 0, Label: "Intro"},
			{TimestampSeconds: 120, Label: "Body"},
			{TimestampSeconds: 300, Label: "Outro"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLessonRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lesson := testLesson("lsn-1")
	require.NoError(t, s.CreateLesson(ctx, lesson))

	got, err := s.GetLesson(ctx, "lsn-1")
	require.NoError(t, err)

	assert.Equal(t, lesson.ID, got.ID)
	assert.Equal(t, lesson.Title, got.Title)
	assert.Equal(t, lesson.VideoKind, got.VideoKind)
	assert.Equal(t, lesson.VideoLocator, got.VideoLocator)
	assert.Equal(t, lesson.DurationSeconds, got.DurationSeconds)
	require.Len(t, got.Chapters, 3)
	assert.Equal(t, "Body", got.Chapters[1].Label)
	assert.Equal(t, float64(120), got.Chapters[1].TimestampSeconds)
}

func TestCreateLessonDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateLesson(ctx, testLesson("lsn-1")))
	err := s.CreateLesson(ctx, testLesson("lsn-1"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetLessonNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetLesson(context.Background(), "lsn-missing")
	assert.ErrorIs(t, err, store.ErrLessonNotFound)
}

func TestListLessonsByCourse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testLesson("lsn-1")
	b := testLesson("lsn-2")
	b.CourseID = "crs-2"
	require.NoError(t, s.CreateLesson(ctx, a))
	require.NoError(t, s.CreateLesson(ctx, b))

	all, err := s.ListLessons(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := s.ListLessons(ctx, "crs-2")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "lsn-2", scoped[0].ID)
}

func TestDeleteLessonCascadesChapters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateLesson(ctx, testLesson("lsn-1")))
	require.NoError(t, s.DeleteLesson(ctx, "lsn-1"))

	_, err := s.GetLesson(ctx, "lsn-1")
	assert.ErrorIs(t, err, store.ErrLessonNotFound)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM lesson_chapters WHERE lesson_id = 'lsn-1'`).Scan(&count))
	assert.Zero(t, count)
}

func TestProgressRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	completedAt := now.Add(-time.Hour)
	p := &domain.WatchProgress{
		UserID:          "usr-1",
		LessonID:        "lsn-1",
		PositionSeconds: 480,
		Progress:        0.8,
		Completed:       true,
		CompletedAt:     &completedAt,
		StartedAt:       now.Add(-2 * time.Hour),
		LastWatchedAt:   now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.UpsertProgress(ctx, p))

	got, err := s.GetProgress(ctx, "usr-1", "lsn-1")
	require.NoError(t, err)
	assert.Equal(t, int64(480), got.PositionSeconds)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, completedAt, *got.CompletedAt, time.Millisecond)
}

func TestUpsertProgressReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	p := &domain.WatchProgress{
		UserID: "usr-1", LessonID: "lsn-1", PositionSeconds: 100,
		StartedAt: now, LastWatchedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.UpsertProgress(ctx, p))

	p.PositionSeconds = 250
	require.NoError(t, s.UpsertProgress(ctx, p))

	got, err := s.GetProgress(ctx, "usr-1", "lsn-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.PositionSeconds)
}

func TestGetProgressNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProgress(context.Background(), "usr-1", "lsn-missing")
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestGetContinueWatchingFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	rows := []*domain.WatchProgress{
		{UserID: "usr-1", LessonID: "lsn-old", PositionSeconds: 50,
			StartedAt: now, LastWatchedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
		{UserID: "usr-1", LessonID: "lsn-new", PositionSeconds: 90,
			StartedAt: now, LastWatchedAt: now, UpdatedAt: now},
		{UserID: "usr-1", LessonID: "lsn-done", PositionSeconds: 600, Completed: true,
			StartedAt: now, LastWatchedAt: now, UpdatedAt: now},
		{UserID: "usr-1", LessonID: "lsn-unstarted", PositionSeconds: 0,
			StartedAt: now, LastWatchedAt: now, UpdatedAt: now},
		{UserID: "usr-2", LessonID: "lsn-other-user", PositionSeconds: 10,
			StartedAt: now, LastWatchedAt: now, UpdatedAt: now},
	}
	for _, p := range rows {
		require.NoError(t, s.UpsertProgress(ctx, p))
	}

	got, err := s.GetContinueWatching(ctx, "usr-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lsn-new", got[0].LessonID)
	assert.Equal(t, "lsn-old", got[1].LessonID)
}
