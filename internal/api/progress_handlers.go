package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lecternapp/lectern-server/internal/http/response"
	"github.com/lecternapp/lectern-server/internal/service"
)

// RecordProgressRequest is the request body for reporting watch progress.
// The lesson ID comes from the URL; a mismatching body lesson_id is rejected
// rather than silently overridden.
type RecordProgressRequest struct {
	LessonID        string  `json:"lesson_id"`
	PositionSeconds int64   `json:"position_seconds"`
	Completed       bool    `json:"completed"`
	PlaybackRate    float64 `json:"playback_rate,omitempty"`
	DeviceID        string  `json:"device_id,omitempty"`
}

// handleRecordProgress records a progress report for the authenticated user.
// POST /api/v1/lessons/{id}/progress
//
// All failures are equivalent from the player's perspective: the synchronizer
// logs and supersedes them with the next report, so no retry semantics exist
// server-side either.
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	lessonID := chi.URLParam(r, "id")

	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	if !s.progressRL.Allow(userID) {
		response.TooManyRequests(w, "Progress reports are rate limited", s.logger)
		return
	}

	var req RecordProgressRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if req.LessonID != "" && req.LessonID != lessonID {
		response.BadRequest(w, "lesson_id mismatch", s.logger)
		return
	}

	progress, err := s.services.Progress.RecordReport(ctx, userID, service.RecordReportRequest{
		LessonID:        lessonID,
		PositionSeconds: req.PositionSeconds,
		Completed:       req.Completed,
		PlaybackRate:    req.PlaybackRate,
		DeviceID:        req.DeviceID,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, progress, s.logger)
}

// handleGetProgress returns the resume position for the authenticated user.
// GET /api/v1/lessons/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	lessonID := chi.URLParam(r, "id")

	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	progress, err := s.services.Progress.GetProgress(ctx, userID, lessonID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, progress, s.logger)
}

// handleResetProgress removes progress so a lesson can be restarted.
// DELETE /api/v1/lessons/{id}/progress
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)
	lessonID := chi.URLParam(r, "id")

	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	if err := s.services.Progress.ResetProgress(ctx, userID, lessonID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleContinueWatching returns the continue-watching shelf.
// GET /api/v1/progress/continue?limit=N
func (s *Server) handleContinueWatching(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := s.services.Progress.GetContinueWatching(ctx, userID, limit)
	if err != nil {
		s.logger.Error("Failed to get continue watching", "error", err)
		response.InternalError(w, "Failed to get continue watching", s.logger)
		return
	}

	response.Success(w, items, s.logger)
}

// handleUserStats returns watch statistics for the authenticated user.
// GET /api/v1/progress/stats
func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	stats, err := s.services.Progress.GetUserStats(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user stats", "error", err)
		response.InternalError(w, "Failed to get user stats", s.logger)
		return
	}

	response.Success(w, stats, s.logger)
}

// IssueDevTokenRequest is the request body for the development token endpoint.
type IssueDevTokenRequest struct {
	UserID string `json:"user_id"`
}

// handleIssueDevToken mints a playback credential for local development.
// POST /api/v1/auth/token (non-production only)
func (s *Server) handleIssueDevToken(w http.ResponseWriter, r *http.Request) {
	var req IssueDevTokenRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if req.UserID == "" {
		response.BadRequest(w, "user_id is required", s.logger)
		return
	}

	token, err := s.tokens.GenerateAccessToken(req.UserID)
	if err != nil {
		s.logger.Error("Failed to generate token", "error", err)
		response.InternalError(w, "Failed to generate token", s.logger)
		return
	}

	response.Success(w, map[string]string{"token": token}, s.logger)
}
