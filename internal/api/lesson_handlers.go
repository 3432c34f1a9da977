package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lecternapp/lectern-server/internal/http/response"
	"github.com/lecternapp/lectern-server/internal/service"
)

// handleCreateLesson creates a lesson descriptor.
// POST /api/v1/lessons
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.CreateLessonRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	lesson, err := s.services.Lesson.CreateLesson(ctx, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, lesson, s.logger)
}

// handleGetLesson returns the lesson descriptor the player mounts with.
// GET /api/v1/lessons/{id}
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lessonID := chi.URLParam(r, "id")

	lesson, err := s.services.Lesson.GetLesson(ctx, lessonID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, lesson, s.logger)
}

// handleListLessons returns lessons, optionally filtered by course.
// GET /api/v1/lessons?course_id=...
func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courseID := r.URL.Query().Get("course_id")

	lessons, err := s.services.Lesson.ListLessons(ctx, courseID)
	if err != nil {
		s.logger.Error("Failed to list lessons", "error", err)
		response.InternalError(w, "Failed to list lessons", s.logger)
		return
	}

	response.Success(w, lessons, s.logger)
}

// handleDeleteLesson removes a lesson descriptor.
// DELETE /api/v1/lessons/{id}
func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lessonID := chi.URLParam(r, "id")

	if err := s.services.Lesson.DeleteLesson(ctx, lessonID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}
