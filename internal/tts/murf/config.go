package murf

import (
	"errors"
	"os"
)

const defaultBaseURL = "https://api.murf.ai"

type Config struct {
	APIKey  string
	BaseURL string
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("MURF_API_KEY")
	if apiKey == "" {
		return nil, errors.New("MURF_API_KEY environment variable is required")
	}

	baseURL := os.Getenv("MURF_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Config{APIKey: apiKey, BaseURL: baseURL}, nil
}
