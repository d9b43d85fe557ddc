package handlers

import (
	"context"
	"net/http"
	"time"

	"errorhelper/internal/config"
	"errorhelper/internal/llm"
	"errorhelper/internal/tts"
	"errorhelper/internal/utils"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// TemplateLister reports the loaded prompt templates.
type TemplateLister interface {
	GetTemplates() []string
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	provider    llm.Provider
	synthesizer tts.Synthesizer
	templates   TemplateLister
	db          Pinger
	config      *config.Config
}

func NewHealthHandler(provider llm.Provider, synthesizer tts.Synthesizer, templates TemplateLister, db Pinger, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		provider:    provider,
		synthesizer: synthesizer,
		templates:   templates,
		db:          db,
		config:      cfg,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "errorhelper",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := map[string]ReadinessCheck{
		"provider":      presence(handler.provider != nil, "AI provider not initialized"),
		"synthesizer":   presence(handler.synthesizer != nil, "speech provider not initialized"),
		"configuration": presence(handler.config != nil, "Configuration not loaded"),
	}

	switch {
	case handler.templates == nil:
		checks["prompt_manager"] = ReadinessCheck{Status: "failed", Message: "Prompt manager not initialized"}
	case len(handler.templates.GetTemplates()) == 0:
		checks["prompt_manager"] = ReadinessCheck{Status: "failed", Message: "No prompt templates loaded"}
	default:
		checks["prompt_manager"] = ReadinessCheck{Status: "ok"}
	}

	if handler.db == nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "Database not initialized"}
	} else {
		ctx, cancel := context.WithTimeout(request.Context(), 2*time.Second)
		defer cancel()
		if err := handler.db.PingContext(ctx); err != nil {
			checks["database"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		} else {
			checks["database"] = ReadinessCheck{Status: "ok"}
		}
	}

	response := ReadinessResponse{Status: "ready", Service: "errorhelper", Checks: checks}
	status := http.StatusOK
	for _, check := range checks {
		if check.Status != "ok" {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}
	utils.JSON(writer, status, response)
}

func presence(ok bool, message string) ReadinessCheck {
	if ok {
		return ReadinessCheck{Status: "ok"}
	}
	return ReadinessCheck{Status: "failed", Message: message}
}
