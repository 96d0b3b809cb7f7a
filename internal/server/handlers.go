package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	maxBodyBytes     = 64 << 10
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func validateRequest(req *models.ActivityRequest) string {
	if !req.ActivityType.Valid() {
		return "unknown activityType"
	}
	if req.ActivityType != models.ActivitySearch && req.JobID == "" {
		return "jobId is required"
	}
	return ""
}

func (s *Server) recordActivity(w http.ResponseWriter, r *http.Request) {
	var req models.ActivityRequest

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateRequest(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.repo.InsertActivity(r.Context(), req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, models.ActivityResponse{ID: id})
	case s.isDup(err):
		respondJSON(w, http.StatusOK, models.ActivityResponse{ID: id, Duplicate: true})
	default:
		s.logger.Error("failed to record activity",
			zap.String("job_id", req.JobID),
			zap.String("activity_type", string(req.ActivityType)),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to record activity")
	}
}

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.repo.ListUserActivity(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("failed to list activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}

	activities := make([]models.RemoteActivity, 0, len(rows))
	for i := range rows {
		activities = append(activities, rows[i].ToRemote())
	}

	respondJSON(w, http.StatusOK, activities)
}

// ActivityCount is the body of GET /api/activity/count.
type ActivityCount struct {
	UserID string                `json:"userId"`
	Types  []models.ActivityType `json:"types,omitempty"`
	Count  int                   `json:"count"`
}

func (s *Server) countActivity(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var types []models.ActivityType
	for _, raw := range r.URL.Query()["type"] {
		t := models.ActivityType(raw)
		if !t.Valid() {
			respondError(w, http.StatusBadRequest, "unknown activity type")
			return
		}
		types = append(types, t)
	}

	count, err := s.repo.CountUserActivity(r.Context(), userID, types...)
	if err != nil {
		s.logger.Error("failed to count activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to count activity")
		return
	}

	respondJSON(w, http.StatusOK, ActivityCount{UserID: userID, Types: types, Count: count})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
