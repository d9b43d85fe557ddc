package routers

import (
	"github.com/go-chi/chi/v5"

	"errorhelper/internal/handlers"
	"errorhelper/internal/metrics"
	"errorhelper/internal/middleware"
	"errorhelper/internal/models"
)

func HealthRoutes(router chi.Router, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Method("GET", "/metrics", metrics.Handler())
}

func WorkspaceRoutes(router chi.Router, workspaceHandler *handlers.WorkspaceHandler) {
	router.Route("/api/v1/workspace", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.ActiveDocumentRequest]()).Put("/active", workspaceHandler.SetActive)
		r.Delete("/active", workspaceHandler.ClearActive)
	})
}

func ErrorRoutes(router chi.Router, errorsHandler *handlers.ErrorsHandler) {
	router.Route("/api/v1/errors", func(r chi.Router) {
		r.Get("/", errorsHandler.List)
		r.Get("/{id}", errorsHandler.Get)
		r.Post("/{id}/explain", errorsHandler.Explain)
		r.With(middleware.ValidateRequest[*models.VoiceExplanationRequest]()).Post("/{id}/voice", errorsHandler.Voice)
	})
}

// FeedbackRoutes is skipped when the feedback store is unavailable.
func FeedbackRoutes(router chi.Router, feedbackHandler *handlers.FeedbackHandler) {
	if feedbackHandler == nil {
		return
	}
	router.Route("/api/v1/feedback", func(r chi.Router) {
		r.Get("/export", feedbackHandler.ExportFeedback)
		r.Get("/stats", feedbackHandler.GetFeedbackStats)
		r.With(middleware.ValidateRequest[*models.SubmitFeedbackRequest]()).Post("/{request_id}", feedbackHandler.SubmitFeedback)
	})
}

// PanelRoutes registers the transcript endpoint and the panel websocket. The
// websocket must not sit behind a request timeout.
func PanelRoutes(router chi.Router, bridgeHandler *handlers.BridgeHandler) {
	router.Get("/api/v1/chat/{panel_id}/messages", bridgeHandler.Transcript)
	router.Get("/ws/panels/{panel_id}", bridgeHandler.ServePanel)
}
