package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"errorhelper/internal/feedback"
	"errorhelper/internal/middleware"
	"errorhelper/internal/models"
	"errorhelper/internal/utils"
)

type FeedbackHandler struct {
	feedbackManager *feedback.FeedbackManager
	logger          *zap.Logger
}

func NewFeedbackHandler(feedbackManager *feedback.FeedbackManager, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackManager: feedbackManager, logger: logger}
}

// SubmitFeedback handles POST /api/v1/feedback/{request_id}
func (fh *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	if requestID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "request_id is required"})
		return
	}
	req := middleware.GetValidatedRequest[*models.SubmitFeedbackRequest](r)

	if err := fh.feedbackManager.SubmitFeedback(requestID, *req.IsPositive); err != nil {
		if errors.Is(err, feedback.ErrContextNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, models.Resp{OK: false, Info: "explanation not found or expired"})
			return
		}
		fh.logger.Error("failed to submit feedback", zap.String("request_id", requestID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to submit feedback"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "feedback submitted successfully"})
}

// ExportFeedback handles GET /api/v1/feedback/export
// Query params:
// - days: number of days to look back (default: 7)
// - limit: maximum number of records (optional)
// - format: "jsonl" (default) or "json"
func (fh *FeedbackHandler) ExportFeedback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	days := positiveInt(query.Get("days"), 7)
	limit := positiveInt(query.Get("limit"), 0)
	format := query.Get("format")
	if format == "" {
		format = "jsonl"
	}
	if format != "jsonl" && format != "json" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "format must be jsonl or json"})
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	records, err := fh.feedbackManager.GetFeedbackSince(since, limit)
	if err != nil {
		fh.logger.Error("failed to get feedback", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to export feedback"})
		return
	}

	if len(records) == 0 {
		utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "no feedback to export"})
		return
	}

	if format == "json" {
		utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: records})
		return
	}

	data, err := fh.feedbackManager.ExportToJSONL(records)
	if err != nil {
		fh.logger.Error("failed to export to JSONL", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to export to JSONL"})
		return
	}

	w.Header().Set("Content-Type", "application/jsonl")
	w.Header().Set("Content-Disposition", "attachment; filename=feedback_export.jsonl")
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	fh.logger.Info("exported feedback", zap.Int("records", len(records)), zap.Int("days", days))
}

// GetFeedbackStats handles GET /api/v1/feedback/stats
func (fh *FeedbackHandler) GetFeedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := fh.feedbackManager.GetFeedbackStats()
	if err != nil {
		fh.logger.Error("failed to get feedback stats", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to get feedback stats"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: stats})
}

func positiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return def
}
