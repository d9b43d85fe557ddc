package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/metrics"
	"errorhelper/internal/tts"
)

var (
	ErrBusy       = errors.New("voice: synthesis already in progress for this control")
	ErrEmptyInput = errors.New("voice: nothing to synthesize")
)

const FailureText = "Failed to generate voice explanation."

// Sink receives the outcome of one synthesis. Audio or Failed comes first,
// Finished always comes last.
type Sink interface {
	Audio(url string)
	Failed(message string)
	Finished()
}

type Coordinator struct {
	synth        tts.Synthesizer
	defaultVoice string
	defaultStyle string
	timeout      time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewCoordinator(synth tts.Synthesizer, defaultVoice, defaultStyle string, timeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		synth:        synth,
		defaultVoice: defaultVoice,
		defaultStyle: defaultStyle,
		timeout:      timeout,
		logger:       logger,
		pending:      make(map[string]struct{}),
	}
}

// Synthesize speaks req.Text on behalf of control (a panel button, a chat
// message). While a request for the same control is pending further requests
// are ignored with ErrBusy and the sink is not touched. Every other call ends
// with exactly one sink.Finished.
func (c *Coordinator) Synthesize(ctx context.Context, control string, req tts.Request, sink Sink) (err error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		sink.Finished()
		return ErrEmptyInput
	}

	if !c.acquire(control) {
		metrics.ObserveSynthesis(metrics.OutcomeSkipped)
		return ErrBusy
	}

	logger := c.logger.With(zap.String("control", control), zap.String("provider", c.synth.GetProviderName()))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("speech backend panicked", zap.Any("panic", r))
			metrics.ObserveSynthesis(metrics.OutcomeFailure)
			sink.Failed(FailureText)
			err = fmt.Errorf("voice: backend panic: %v", r)
		}
		c.release(control)
		sink.Finished()
	}()

	if req.VoiceID == "" {
		req.VoiceID = c.defaultVoice
	}
	if req.Style == "" {
		req.Style = c.defaultStyle
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.synth.Synthesize(ctx, req)
	if err != nil {
		logger.Error("speech synthesis failed", zap.String("code", backend.Code(err)), zap.Error(err))
		if backend.IsMalformed(err) {
			metrics.ObserveSynthesis(metrics.OutcomeMalformed)
		} else {
			metrics.ObserveSynthesis(metrics.OutcomeFailure)
		}
		sink.Failed(FailureText)
		return err
	}

	metrics.ObserveSynthesis(metrics.OutcomeSuccess)
	sink.Audio(result.AudioURL)
	return nil
}

// Pending reports whether control has a synthesis in flight.
func (c *Coordinator) Pending(control string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[control]
	return ok
}

func (c *Coordinator) acquire(control string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.pending[control]; busy {
		return false
	}
	c.pending[control] = struct{}{}
	return true
}

func (c *Coordinator) release(control string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, control)
}

// CaptureSink records the outcome for synchronous callers.
type CaptureSink struct {
	URL     string
	Message string
	Done    bool
}

func (s *CaptureSink) Audio(url string) { s.URL = url }

func (s *CaptureSink) Failed(message string) { s.Message = message }

func (s *CaptureSink) Finished() { s.Done = true }
