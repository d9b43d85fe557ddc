package llm

import (
	"context"

	"errorhelper/internal/models"
)

// Provider is the TextExplanationService: given a prompt it returns free-form text.
// Failures are returned as *backend.Error.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error)
	GetProviderName() string
}
