package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/models"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

type BreakerConfig struct {
	// consecutive network failures before the circuit opens
	MaxFailures uint32
	// how long the circuit stays open before letting one probe through
	Timeout time.Duration
	// cyclic period of the closed state for clearing counts
	Interval time.Duration
}

// BreakerProvider fails fast while the wrapped provider is down. It never retries:
// a rejected call is reported to the caller like any other service failure.
// Malformed responses do not count as failures.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*models.GenerationResponse]
}

func NewBreakerProvider(inner Provider, cfg BreakerConfig, logger *zap.Logger) *BreakerProvider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[*models.GenerationResponse](gobreaker.Settings{
		Name:        "llm:" + inner.GetProviderName(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || backend.IsMalformed(err) || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{inner: inner, breaker: cb}
}

func (p *BreakerProvider) GenerateContent(ctx context.Context, prompt string, requestID string) (*models.GenerationResponse, error) {
	resp, err := p.breaker.Execute(func() (*models.GenerationResponse, error) {
		return p.inner.GenerateContent(ctx, prompt, requestID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &backend.Error{
			Backend: p.inner.GetProviderName(),
			Code:    backend.ErrCodeServiceDown,
			Message: "circuit open",
			Err:     err,
		}
	}
	return resp, err
}

func (p *BreakerProvider) GetProviderName() string { return p.inner.GetProviderName() }

func (p *BreakerProvider) State() gobreaker.State { return p.breaker.State() }

var _ Provider = (*BreakerProvider)(nil)
