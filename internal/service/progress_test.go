package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/errors"
	"github.com/lecternapp/lectern-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServices(t *testing.T) (*LessonService, *ProgressService) {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewLessonService(s, testLogger()), NewProgressService(s, 0.99, testLogger())
}

func createTestLesson(t *testing.T, lessons *LessonService, duration float64) *domain.Lesson {
	t.Helper()

	lesson, err := lessons.CreateLesson(context.Background(), CreateLessonRequest{
		Title:           "Test Lesson",
		VideoKind:       "local",
		VideoLocator:    "https://media.example.com/test.mp4",
		DurationSeconds: duration,
		Chapters: []domain.ChapterMarker{
			{TimestampSeconds: 0, Label: "Intro"},
			{TimestampSeconds: 120, Label: "Body"},
		},
	})
	require.NoError(t, err)
	return lesson
}

func TestRecordReportCreatesProgress(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	p, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{
		LessonID:        lesson.ID,
		PositionSeconds: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(120), p.PositionSeconds)
	assert.InDelta(t, 0.2, p.Progress, 0.001)
	assert.False(t, p.Completed)
}

func TestRecordReportIsIdempotent(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	req := RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 300}
	first, err := progress.RecordReport(ctx, "usr-1", req)
	require.NoError(t, err)
	second, err := progress.RecordReport(ctx, "usr-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.PositionSeconds, second.PositionSeconds)
	assert.Equal(t, first.Completed, second.Completed)
}

func TestRecordReportUnknownLesson(t *testing.T) {
	_, progress := newTestServices(t)

	_, err := progress.RecordReport(context.Background(), "usr-1", RecordReportRequest{
		LessonID:        "lsn-missing",
		PositionSeconds: 10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRecordReportPositionForwardOnly(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	_, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 400})
	require.NoError(t, err)

	p, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(400), p.PositionSeconds)
}

func TestRecordReportCompletedLatch(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	p, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{
		LessonID:        lesson.ID,
		PositionSeconds: 600,
		Completed:       true,
	})
	require.NoError(t, err)
	require.True(t, p.Completed)

	// A later report without the flag cannot clear the completion.
	p, err = progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 30})
	require.NoError(t, err)
	assert.True(t, p.Completed)
}

func TestRecordReportThresholdCompletion(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	// 594/600 = 0.99 crosses the default threshold without an explicit
	// ended signal.
	p, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 594})
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.NotNil(t, p.CompletedAt)
}

func TestGetProgressWithoutHistory(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)

	p, err := progress.GetProgress(context.Background(), "usr-1", lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PositionSeconds)
	assert.False(t, p.Completed)
}

func TestResetProgressAllowsRestart(t *testing.T) {
	lessons, progress := newTestServices(t)
	lesson := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	_, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: lesson.ID, PositionSeconds: 500})
	require.NoError(t, err)

	require.NoError(t, progress.ResetProgress(ctx, "usr-1", lesson.ID))

	p, err := progress.GetProgress(ctx, "usr-1", lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PositionSeconds)
}

func TestContinueWatchingExcludesCompleted(t *testing.T) {
	lessons, progress := newTestServices(t)
	watching := createTestLesson(t, lessons, 600)
	finished := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	_, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: watching.ID, PositionSeconds: 150})
	require.NoError(t, err)
	_, err = progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: finished.ID, PositionSeconds: 600, Completed: true})
	require.NoError(t, err)

	items, err := progress.GetContinueWatching(ctx, "usr-1", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, watching.ID, items[0].LessonID)
	assert.Equal(t, "Test Lesson", items[0].Title)
}

func TestGetUserStats(t *testing.T) {
	lessons, progress := newTestServices(t)
	a := createTestLesson(t, lessons, 600)
	b := createTestLesson(t, lessons, 600)
	ctx := context.Background()

	_, err := progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: a.ID, PositionSeconds: 100})
	require.NoError(t, err)
	_, err = progress.RecordReport(ctx, "usr-1", RecordReportRequest{LessonID: b.ID, PositionSeconds: 600, Completed: true})
	require.NoError(t, err)

	stats, err := progress.GetUserStats(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.LessonsStarted)
	assert.Equal(t, 1, stats.LessonsCompleted)
}
