package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"errorhelper/internal/backend"
	"errorhelper/internal/tts"
)

const (
	providerName = "murf"
	generatePath = "/v1/speech/generate"
)

type Client struct {
	config     *Config
	httpClient *http.Client
}

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Style   string `json:"style,omitempty"`
}

// the provider has answered with either field name
type generateResponse struct {
	AudioFile string `json:"audioFile"`
	AudioURL  string `json:"audio_url"`
}

func NewClient(config *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{config: config, httpClient: httpClient}
}

func (c *Client) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	body, err := json.Marshal(generateRequest{
		Text:    req.Text,
		VoiceID: req.VoiceID,
		Style:   req.Style,
	})
	if err != nil {
		return nil, c.fail(backend.ErrCodeInvalidInput, "encode request", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + generatePath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(backend.ErrCodeInvalidInput, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		code := backend.ErrCodeServiceDown
		if errors.Is(err, context.DeadlineExceeded) {
			code = backend.ErrCodeTimeout
		}
		return nil, c.fail(code, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.fail(backend.ErrCodeServiceDown, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(statusCode(resp.StatusCode), fmt.Sprintf("unexpected status %d", resp.StatusCode), errors.New(string(raw)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, c.fail(backend.ErrCodeMalformedResponse, "decode response", err)
	}

	audio := parsed.AudioFile
	if audio == "" {
		audio = parsed.AudioURL
	}
	if audio == "" {
		return nil, c.fail(backend.ErrCodeMalformedResponse, "response without audio url", nil)
	}

	return &tts.Result{AudioURL: audio}, nil
}

func (c *Client) GetProviderName() string {
	return providerName
}

func (c *Client) fail(code, message string, err error) error {
	return &backend.Error{Backend: providerName, Code: code, Message: message, Err: err}
}

func statusCode(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backend.ErrCodeAPIKey
	case status == http.StatusTooManyRequests:
		return backend.ErrCodeRateLimit
	case status == http.StatusBadRequest:
		return backend.ErrCodeInvalidInput
	default:
		return backend.ErrCodeServiceDown
	}
}
