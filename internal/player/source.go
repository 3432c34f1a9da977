package player

import (
	"regexp"

	"github.com/lecternapp/lectern-server/internal/domain"
)

// Source identifies which adapter to build and what it should play.
// Immutable for the lifetime of one player instance; selecting a new
// lesson destroys the player and creates a fresh one.
type Source struct {
	Kind         domain.VideoKind
	Locator      string
	DisplayTitle string

	// DurationHintSeconds comes from the lesson descriptor. Backends
	// that cannot report a duration themselves fall back to it; zero
	// means unknown.
	DurationHintSeconds float64
}

// SourceFromLesson builds a Source from a lesson descriptor.
func SourceFromLesson(lesson *domain.Lesson) Source {
	return Source{
		Kind:                lesson.VideoKind,
		Locator:             lesson.VideoLocator,
		DisplayTitle:        lesson.Title,
		DurationHintSeconds: lesson.DurationSeconds,
	}
}

// Embed locator patterns. Share IDs are 11 characters from the URL-safe
// alphabet, reachable through watch URLs, short links, or embed paths.
var embedLocatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\.)youtube\.com/watch\?(?:.*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:^|\.)youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:^|/)youtu\.be/([A-Za-z0-9_-]{11})`),
}

// ExtractEmbedID attempts to pull an embedded-share identifier out of a
// locator. Returns false when the locator does not look like a share
// URL, which is not an error: the caller falls through to treating the
// locator as a direct media URL.
func ExtractEmbedID(locator string) (string, bool) {
	for _, pattern := range embedLocatorPatterns {
		if m := pattern.FindStringSubmatch(locator); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ResolveKind decides which backend serves a source. Fallback order:
// explicit kind tag, then share-URL pattern extraction for untagged
// locators (data that predates kind tagging), then local.
func ResolveKind(source Source) domain.VideoKind {
	if source.Kind.Valid() {
		return source.Kind
	}
	if _, ok := ExtractEmbedID(source.Locator); ok {
		return domain.VideoKindEmbedShare
	}
	return domain.VideoKindLocal
}
