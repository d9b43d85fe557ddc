package murf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"errorhelper/internal/backend"
	"errorhelper/internal/tts"
)

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{APIKey: "secret", BaseURL: server.URL}, server.Client())
}

func TestSynthesizeSuccess(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "hello" || body["voice_id"] != "en-US-natalie" || body["style"] != "Promo" {
			t.Errorf("unexpected body %v", body)
		}
		w.Write([]byte(`{"audioFile":"https://cdn/a.mp3"}`))
	})

	res, err := client.Synthesize(context.Background(), tts.Request{Text: "hello", VoiceID: "en-US-natalie", Style: "Promo"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if res.AudioURL != "https://cdn/a.mp3" {
		t.Fatalf("unexpected url %s", res.AudioURL)
	}
}

func TestSynthesizeAlternateField(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"audio_url":"https://cdn/b.mp3"}`))
	})

	res, err := client.Synthesize(context.Background(), tts.Request{Text: "hello"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if res.AudioURL != "https://cdn/b.mp3" {
		t.Fatalf("unexpected url %s", res.AudioURL)
	}
}

func TestSynthesizeMissingAudio(t *testing.T) {
	client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"encodedAudio":null}`))
	})

	_, err := client.Synthesize(context.Background(), tts.Request{Text: "hello"})
	if !backend.IsMalformed(err) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestSynthesizeStatusCodes(t *testing.T) {
	cases := map[int]string{
		http.StatusUnauthorized:        backend.ErrCodeAPIKey,
		http.StatusTooManyRequests:     backend.ErrCodeRateLimit,
		http.StatusBadRequest:          backend.ErrCodeInvalidInput,
		http.StatusInternalServerError: backend.ErrCodeServiceDown,
	}
	for status, want := range cases {
		client := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		})
		_, err := client.Synthesize(context.Background(), tts.Request{Text: "hello"})
		if got := backend.Code(err); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
		if !backend.IsNetwork(err) {
			t.Fatalf("status %d should be a network failure", status)
		}
	}
}

func TestSynthesizeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(&Config{APIKey: "k", BaseURL: url}, nil)
	_, err := client.Synthesize(context.Background(), tts.Request{Text: "hello"})
	if backend.Code(err) != backend.ErrCodeServiceDown {
		t.Fatalf("expected service_unavailable, got %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("MURF_API_KEY", "")
	if _, err := NewConfig(); err == nil {
		t.Fatal("expected error when api key missing")
	}

	t.Setenv("MURF_API_KEY", "k")
	t.Setenv("MURF_BASE_URL", "")
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.BaseURL)
	}
	if (&Client{}).GetProviderName() != "murf" {
		t.Fatal("unexpected provider name")
	}
}
