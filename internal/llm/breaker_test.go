package llm

import (
	"context"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/models"
)

type funcProvider struct {
	calls int
	fn    func() (*models.GenerationResponse, error)
}

func (p *funcProvider) GenerateContent(context.Context, string, string) (*models.GenerationResponse, error) {
	p.calls++
	return p.fn()
}

func (p *funcProvider) GetProviderName() string { return "flaky" }

func TestBreakerPassesThrough(t *testing.T) {
	inner := &funcProvider{fn: func() (*models.GenerationResponse, error) {
		return &models.GenerationResponse{Content: "ok"}, nil
	}}
	p := NewBreakerProvider(inner, BreakerConfig{}, zap.NewNop())

	resp, err := p.GenerateContent(context.Background(), "prompt", "req")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "flaky", p.GetProviderName())
}

func TestBreakerOpensAfterNetworkFailures(t *testing.T) {
	inner := &funcProvider{fn: func() (*models.GenerationResponse, error) {
		return nil, &backend.Error{Backend: "flaky", Code: backend.ErrCodeServiceDown, Message: "down"}
	}}
	p := NewBreakerProvider(inner, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := p.GenerateContent(context.Background(), "prompt", "req")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.GenerateContent(context.Background(), "prompt", "req")
	require.Error(t, err)
	assert.Equal(t, backend.ErrCodeServiceDown, backend.Code(err))
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the provider")
}

func TestBreakerIgnoresMalformedResponses(t *testing.T) {
	inner := &funcProvider{fn: func() (*models.GenerationResponse, error) {
		return nil, &backend.Error{Backend: "flaky", Code: backend.ErrCodeMalformedResponse, Message: "no text"}
	}}
	p := NewBreakerProvider(inner, BreakerConfig{MaxFailures: 1}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := p.GenerateContent(context.Background(), "prompt", "req")
		require.True(t, backend.IsMalformed(err))
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
	assert.Equal(t, 3, inner.calls)
}
