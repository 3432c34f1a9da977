// Package chapters provides the static chapter index for a lesson
// timeline: overlay display and click-to-seek lookups over a sorted
// marker list. Pure lookup structure, no mutation after construction.
package chapters

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lecternapp/lectern-server/internal/domain"
)

// Seeker is the one controller operation chapter navigation needs.
type Seeker interface {
	SeekAbsolute(seconds float64) error
}

// Index is a sorted, timestamp-deduplicated chapter sequence.
type Index struct {
	markers []domain.ChapterMarker
}

// New builds an index from raw lesson chapter data. Source data may be
// unsorted or carry duplicate timestamps; the index normalizes once at
// construction: stable sort by timestamp, then drop duplicates keeping
// the first.
func New(markers []domain.ChapterMarker) *Index {
	normalized := make([]domain.ChapterMarker, len(markers))
	copy(normalized, markers)

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].TimestampSeconds < normalized[j].TimestampSeconds
	})
	normalized = lo.UniqBy(normalized, func(m domain.ChapterMarker) float64 {
		return m.TimestampSeconds
	})

	return &Index{markers: normalized}
}

// Markers returns the normalized sequence in timeline order.
func (idx *Index) Markers() []domain.ChapterMarker {
	return idx.markers
}

// Len returns the number of chapters.
func (idx *Index) Len() int {
	return len(idx.markers)
}

// Current returns the chapter whose timestamp is the greatest one at or
// before the position. Returns false before the first chapter's
// timestamp, or when the lesson has no chapters.
func (idx *Index) Current(positionSeconds float64) (domain.ChapterMarker, bool) {
	// First marker strictly after the position.
	i := sort.Search(len(idx.markers), func(i int) bool {
		return idx.markers[i].TimestampSeconds > positionSeconds
	})
	if i == 0 {
		return domain.ChapterMarker{}, false
	}
	return idx.markers[i-1], true
}

// SeekTo jumps playback to a chapter's start.
func (idx *Index) SeekTo(seeker Seeker, marker domain.ChapterMarker) error {
	return seeker.SeekAbsolute(marker.TimestampSeconds)
}
