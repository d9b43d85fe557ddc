package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"errorhelper/internal/backend"
	"errorhelper/internal/models"
)

const providerName = "gemini"

// Client represents a Gemini LLM client
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(ctx context.Context, config *Config) (*Client, error) {
	return newClient(ctx, config, nil)
}

func newClient(ctx context.Context, config *Config, httpClient *http.Client) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if config.BaseURL != "" || config.APIVersion != "" {
		cc.HTTPOptions = genai.HTTPOptions{
			BaseURL:    config.BaseURL,
			APIVersion: config.APIVersion,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &backend.Error{
			Backend: providerName,
			Code:    backend.ErrCodeAPIKey,
			Message: "Failed to create Gemini client",
			Err:     err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// GenerateContent sends the prompt as a single user turn.
func (c *Client) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	startTime := time.Now()
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.config.Model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		code := backend.ErrCodeServiceDown
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			code = backend.ErrCodeTimeout
		case isRateLimitError(err):
			code = backend.ErrCodeRateLimit
		}
		return nil, &backend.Error{
			Backend: providerName,
			Code:    code,
			Message: "Failed to generate content",
			Err:     err,
		}
	}

	text := firstCandidateText(result)
	if text == "" {
		return nil, &backend.Error{
			Backend: providerName,
			Code:    backend.ErrCodeMalformedResponse,
			Message: "Response carried no candidate text",
		}
	}

	return &models.GenerationResponse{
		Content:   text,
		RequestID: requestID,
		Metadata: models.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          c.config.Model,
			ModelVersion:   result.ModelVersion,
		},
	}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

// firstCandidateText joins the text parts of the first candidate.
func firstCandidateText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	candidate := result.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}
