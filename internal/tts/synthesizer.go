package tts

import "context"

// Request is a single text-to-speech job.
type Request struct {
	Text    string
	VoiceID string
	Style   string
}

// Result carries the location of the synthesized audio.
type Result struct {
	AudioURL string
}

// Synthesizer turns text into a playable audio URL.
// Implementations return *backend.Error on failure.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	GetProviderName() string
}
