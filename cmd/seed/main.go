// Package main provides a tool to seed the database with sample lessons.
//
// Handy for trying the player against each backend kind without a real
// course catalog.
//
// Usage:
//
//	DATA_PATH=~/Lectern/data go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/id"
	"github.com/lecternapp/lectern-server/internal/store/sqlite"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Lectern/data")
	}

	dbPath := filepath.Join(dataPath, "lectern.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	courseID := id.MustGenerate("crs")

	lessons := []*domain.Lesson{
		{
			Title:           "Introduction to the Course",
			VideoKind:       domain.VideoKindLocal,
			VideoLocator:    "https://media.lectern.app/samples/intro.mp4",
			DurationSeconds: 600,
			Chapters: []domain.ChapterMarker{
				{TimestampSeconds: 0, Label: "Welcome"},
				{TimestampSeconds: 120, Label: "What you will build"},
				{TimestampSeconds: 300, Label: "Tooling setup"},
			},
		},
		{
			Title:           "Deep Dive: Architecture",
			VideoKind:       domain.VideoKindRemoteStream,
			VideoLocator:    "pb_9f8e7d6c5b4a",
			DurationSeconds: 1740,
			Chapters: []domain.ChapterMarker{
				{TimestampSeconds: 0, Label: "Overview"},
				{TimestampSeconds: 480, Label: "Data flow"},
				{TimestampSeconds: 1100, Label: "Failure modes"},
			},
		},
		{
			Title:           "Guest Lecture (recorded)",
			VideoKind:       domain.VideoKindEmbedShare,
			VideoLocator:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			DurationSeconds: 212,
		},
		{
			// Untagged locator; the player sniffs the share pattern.
			Title:        "Bonus: Q&A Session",
			VideoLocator: "https://youtu.be/jNQXAC9IVRw",
		},
	}

	now := time.Now()
	for _, lesson := range lessons {
		lesson.ID = id.MustGenerate("lsn")
		lesson.CourseID = courseID
		lesson.CreatedAt = now
		lesson.UpdatedAt = now
		if err := s.CreateLesson(ctx, lesson); err != nil {
			log.Fatalf("Failed to create lesson %q: %v", lesson.Title, err)
		}
		fmt.Printf("Created lesson %s (%s)\n", lesson.ID, lesson.Title)
	}

	fmt.Printf("Seeded %d lessons in course %s\n", len(lessons), courseID)
}
