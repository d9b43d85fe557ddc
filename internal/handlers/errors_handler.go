package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"errorhelper/internal/bridge"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/explain"
	"errorhelper/internal/middleware"
	"errorhelper/internal/models"
	"errorhelper/internal/tts"
	"errorhelper/internal/utils"
	"errorhelper/internal/voice"
)

// ErrorsHandler serves the error tree and its explain/voice actions.
type ErrorsHandler struct {
	cache   *diagnostics.Cache
	explain *explain.Coordinator
	voice   *voice.Coordinator
	logger  *zap.Logger
}

func NewErrorsHandler(cache *diagnostics.Cache, explainCoord *explain.Coordinator, voiceCoord *voice.Coordinator, logger *zap.Logger) *ErrorsHandler {
	return &ErrorsHandler{cache: cache, explain: explainCoord, voice: voiceCoord, logger: logger}
}

// List handles GET /api/v1/errors
func (h *ErrorsHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, models.ErrorListResponse{Errors: bridge.ErrorViews(h.cache.Records())})
}

// Get handles GET /api/v1/errors/{id}
func (h *ErrorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, bridge.ErrorView(record))
}

// Explain handles POST /api/v1/errors/{id}/explain. The explanation completes in
// the background; clients follow it through the tree or a detail panel.
func (h *ErrorsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	record, ok := h.lookup(w, r)
	if !ok {
		return
	}

	_, err := h.explain.Start(r.Context(), record.Fingerprint)
	switch {
	case errors.Is(err, diagnostics.ErrAlreadyPending):
		current, _ := h.cache.Get(record.Fingerprint)
		utils.JSON(w, http.StatusOK, bridge.ErrorView(current))
		return
	case errors.Is(err, diagnostics.ErrUnknownFingerprint):
		notFound(w)
		return
	case err != nil:
		h.logger.Error("failed to start explanation", zap.String("fingerprint", record.Fingerprint.String()), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "explain_error",
			Message: "Failed to start explanation",
		})
		return
	}

	current, _ := h.cache.Get(record.Fingerprint)
	utils.JSON(w, http.StatusAccepted, bridge.ErrorView(current))
}

// Voice handles POST /api/v1/errors/{id}/voice
func (h *ErrorsHandler) Voice(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.VoiceExplanationRequest](r)
	record, ok := h.lookup(w, r)
	if !ok {
		return
	}

	narration, err := h.explain.Narrate(r.Context(), record.Fingerprint)
	if err != nil {
		if errors.Is(err, diagnostics.ErrUnknownFingerprint) {
			notFound(w)
			return
		}
		utils.JSON(w, http.StatusBadGateway, models.ErrorResponse{
			Code:    "explanation_failed",
			Message: explain.FailureText,
		})
		return
	}

	sink := &voice.CaptureSink{}
	control := "error/" + record.Fingerprint.ID()
	err = h.voice.Synthesize(r.Context(), control, tts.Request{Text: narration.Text, VoiceID: req.Voice, Style: req.Style}, sink)
	switch {
	case errors.Is(err, voice.ErrBusy):
		utils.JSON(w, http.StatusConflict, models.ErrorResponse{
			Code:    "voice_pending",
			Message: "A voice explanation for this error is already being generated",
		})
		return
	case err != nil:
		message := sink.Message
		if message == "" {
			message = voice.FailureText
		}
		utils.JSON(w, http.StatusBadGateway, models.ErrorResponse{
			Code:    "voice_failed",
			Message: message,
		})
		return
	}

	utils.JSON(w, http.StatusOK, models.VoiceExplanationResponse{
		AudioURL:  sink.URL,
		Text:      narration.Text,
		RequestID: narration.RequestID,
	})
}

func (h *ErrorsHandler) lookup(w http.ResponseWriter, r *http.Request) (diagnostics.ErrorRecord, bool) {
	id := utils.NormalizeID(chi.URLParam(r, "id"))
	record, ok := h.cache.Lookup(id)
	if !ok {
		notFound(w)
	}
	return record, ok
}

func notFound(w http.ResponseWriter) {
	utils.JSON(w, http.StatusNotFound, models.ErrorResponse{
		Code:    "error_not_found",
		Message: "No current error matches this id",
	})
}
