package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecternapp/lectern-server/internal/domain"
)

func markers(ts ...float64) []domain.ChapterMarker {
	out := make([]domain.ChapterMarker, len(ts))
	for i, t := range ts {
		out[i] = domain.ChapterMarker{TimestampSeconds: t, Label: "ch"}
	}
	return out
}

func TestNewNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.ChapterMarker
		want  []float64
	}{
		{
			name:  "already sorted",
			input: markers(0, 120, 300),
			want:  []float64{0, 120, 300},
		},
		{
			name:  "unsorted input",
			input: markers(300, 0, 120),
			want:  []float64{0, 120, 300},
		},
		{
			name: "duplicates keep first",
			input: []domain.ChapterMarker{
				{TimestampSeconds: 120, Label: "first"},
				{TimestampSeconds: 0, Label: "intro"},
				{TimestampSeconds: 120, Label: "second"},
			},
			want: []float64{0, 120},
		},
		{
			name:  "empty",
			input: nil,
			want:  []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(tt.input)
			got := make([]float64, 0, idx.Len())
			for _, m := range idx.Markers() {
				got = append(got, m.TimestampSeconds)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuplicateKeepsFirstLabel(t *testing.T) {
	idx := New([]domain.ChapterMarker{
		{TimestampSeconds: 120, Label: "first"},
		{TimestampSeconds: 120, Label: "second"},
	})

	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "first", idx.Markers()[0].Label)
}

func TestCurrent(t *testing.T) {
	// Lesson duration 600s, chapters at 0, 120, 300.
	idx := New([]domain.ChapterMarker{
		{TimestampSeconds: 0, Label: "intro"},
		{TimestampSeconds: 120, Label: "middle"},
		{TimestampSeconds: 300, Label: "outro"},
	})

	tests := []struct {
		name      string
		position  float64
		wantLabel string
		wantFound bool
	}{
		{"at zero", 0, "intro", true},
		{"between markers", 150, "middle", true},
		{"near the end", 599, "outro", true},
		{"exact boundary", 120, "middle", true},
		{"at duration", 600, "outro", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Current(tt.position)
			require.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantLabel, got.Label)
		})
	}
}

func TestCurrentBeforeFirstChapter(t *testing.T) {
	idx := New(markers(30, 60))

	_, ok := idx.Current(10)
	assert.False(t, ok)
}

func TestCurrentEmptyIndex(t *testing.T) {
	idx := New(nil)

	_, ok := idx.Current(100)
	assert.False(t, ok)
}

func TestCurrentAtDurationReturnsLastChapter(t *testing.T) {
	idx := New(markers(0, 120, 300, 450))

	got, ok := idx.Current(600)
	require.True(t, ok)
	assert.Equal(t, float64(450), got.TimestampSeconds)
}

type seekRecorder struct {
	positions []float64
}

func (s *seekRecorder) SeekAbsolute(seconds float64) error {
	s.positions = append(s.positions, seconds)
	return nil
}

func TestSeekTo(t *testing.T) {
	idx := New(markers(0, 120, 300))
	rec := &seekRecorder{}

	err := idx.SeekTo(rec, idx.Markers()[1])
	require.NoError(t, err)
	assert.Equal(t, []float64{120}, rec.positions)
}
