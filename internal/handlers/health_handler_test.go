package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"errorhelper/internal/config"
)

func decodeReadinessResponse(t *testing.T, rec *httptest.ResponseRecorder) ReadinessResponse {
	t.Helper()
	var response ReadinessResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func healthyHandler() *HealthHandler {
	return NewHealthHandler(&mockProvider{}, &mockSynthesizer{}, &mockPromptManager{}, mockPinger{}, &config.Config{Provider: "gemini"})
}

func TestReadyzHandler_AllHealthy(t *testing.T) {
	handler := healthyHandler()

	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	response := decodeReadinessResponse(t, rec)
	if response.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", response.Status)
	}
	if response.Service != "errorhelper" {
		t.Errorf("expected service 'errorhelper', got '%s'", response.Service)
	}
	for _, name := range []string{"provider", "synthesizer", "prompt_manager", "configuration", "database"} {
		check, exists := response.Checks[name]
		if !exists {
			t.Errorf("missing check: %s", name)
			continue
		}
		if check.Status != "ok" {
			t.Errorf("check %s: expected status 'ok', got '%s'", name, check.Status)
		}
	}
}

func TestReadyzHandler_DependenciesFail(t *testing.T) {
	handler := &HealthHandler{}

	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	response := decodeReadinessResponse(t, rec)
	if response.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", response.Status)
	}
	for name, check := range response.Checks {
		if check.Status != "failed" || check.Message == "" {
			t.Errorf("check %s: expected failure with message, got %+v", name, check)
		}
	}
}

func TestReadyzHandler_NoTemplates(t *testing.T) {
	handler := healthyHandler()
	handler.templates = &mockPromptManager{getTemplatesFn: func() []string { return nil }}

	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	response := decodeReadinessResponse(t, rec)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
	if msg := response.Checks["prompt_manager"].Message; msg != "No prompt templates loaded" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestReadyzHandler_DatabaseDown(t *testing.T) {
	handler := healthyHandler()
	handler.db = mockPinger{err: errors.New("connection refused")}

	rec := httptest.NewRecorder()
	handler.ReadyzHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	response := decodeReadinessResponse(t, rec)
	if response.Checks["database"].Message != "connection refused" {
		t.Errorf("expected ping error surfaced, got %+v", response.Checks["database"])
	}
}

func TestHealthzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).HealthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" || body["service"] != "errorhelper" {
		t.Errorf("unexpected body %v", body)
	}
}
