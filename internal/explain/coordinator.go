package explain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/llm"
	"errorhelper/internal/metrics"
	"errorhelper/internal/models"
	"errorhelper/internal/prompts"
	"errorhelper/internal/sanitize"
)

// User-facing texts. Failure detail only goes to the log.
const (
	Placeholder = "Explanation loading, please wait a moment..."
	FailureText = "Failed to get AI solution. Check the host log for details."
)

const (
	requestTypeExplanation = "explanation"
	requestTypeNarration   = "narration"
)

// DetailView shows a finished explanation to the user.
type DetailView interface {
	ShowSolution(record diagnostics.ErrorRecord, text string)
}

// Recorder keeps generated explanations around so they can be rated.
type Recorder interface {
	StoreRequestContext(ctx *models.RequestContext)
}

type Coordinator struct {
	cache    *diagnostics.Cache
	provider llm.Provider
	prompts  prompts.PromptProvider
	timeout  time.Duration
	logger   *zap.Logger

	view     DetailView
	recorder Recorder

	wg sync.WaitGroup
}

func NewCoordinator(cache *diagnostics.Cache, provider llm.Provider, pm prompts.PromptProvider, timeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		cache:    cache,
		provider: provider,
		prompts:  pm,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetDetailView must be called before the first request.
func (c *Coordinator) SetDetailView(view DetailView) { c.view = view }

func (c *Coordinator) SetRecorder(recorder Recorder) { c.recorder = recorder }

// RequestExplanation asks the text backend to explain the error identified by fp
// and waits for the outcome.
//
// It returns ErrUnknownFingerprint or ErrAlreadyPending without touching the
// backend, ErrStaleTarget when the record changed while the backend was working,
// and the backend error after the record has been marked Failed.
func (c *Coordinator) RequestExplanation(ctx context.Context, fp diagnostics.Fingerprint) error {
	j, err := c.begin(fp)
	if err != nil {
		return err
	}
	return c.finish(ctx, j)
}

// Start moves the record to Pending and finishes the request in the background.
// Cancelling ctx does not abort the background work; the configured timeout does.
func (c *Coordinator) Start(ctx context.Context, fp diagnostics.Fingerprint) (string, error) {
	j, err := c.begin(fp)
	if err != nil {
		return "", err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.finish(context.WithoutCancel(ctx), j)
	}()
	return j.requestID, nil
}

// Wait blocks until background requests started with Start are done.
func (c *Coordinator) Wait() { c.wg.Wait() }

type job struct {
	fp        diagnostics.Fingerprint
	token     uint64
	record    diagnostics.ErrorRecord
	requestID string
}

func (c *Coordinator) begin(fp diagnostics.Fingerprint) (job, error) {
	requestID := uuid.NewString()
	token, record, err := c.cache.Begin(fp, Placeholder, requestID)
	if err != nil {
		if errors.Is(err, diagnostics.ErrAlreadyPending) {
			metrics.ObserveExplanation(metrics.OutcomeSkipped)
		}
		return job{}, err
	}
	return job{fp: fp, token: token, record: record, requestID: requestID}, nil
}

func (c *Coordinator) finish(ctx context.Context, j job) error {
	fp, requestID := j.fp, j.requestID
	logger := c.logger.With(zap.String("fingerprint", fp.String()), zap.String("request_id", requestID))

	text, gen, prompt, err := c.generate(ctx, prompts.VariantDetail, j.record, requestID)
	if err != nil {
		logger.Error("explanation failed",
			zap.String("provider", c.provider.GetProviderName()),
			zap.String("code", backend.Code(err)),
			zap.Error(err))
		if backend.IsMalformed(err) {
			metrics.ObserveExplanation(metrics.OutcomeMalformed)
		} else {
			metrics.ObserveExplanation(metrics.OutcomeFailure)
		}
		if cerr := c.cache.Complete(fp, j.token, diagnostics.Failed(FailureText)); cerr != nil {
			logger.Info("dropping failure for a record that changed", zap.Error(cerr))
			return cerr
		}
		return err
	}

	if err := c.cache.Complete(fp, j.token, diagnostics.Ready(text, requestID)); err != nil {
		metrics.ObserveExplanation(metrics.OutcomeStale)
		logger.Info("dropping explanation for a record that changed", zap.Error(err))
		return err
	}
	metrics.ObserveExplanation(metrics.OutcomeSuccess)

	if updated, ok := c.cache.Get(fp); ok && c.view != nil {
		c.view.ShowSolution(updated, text)
	}
	c.record(requestTypeExplanation, fp, requestID, prompt, text, gen)

	logger.Info("explanation ready",
		zap.String("provider", c.provider.GetProviderName()),
		zap.Int("processing_time_ms", gen.Metadata.ProcessingTime))
	return nil
}

// Narration is a speech-friendly explanation. RequestID can be rated like an
// explanation's.
type Narration struct {
	Text      string
	RequestID string
}

// Narrate produces a shorter explanation meant to be read aloud. It leaves the
// record's solution state alone.
func (c *Coordinator) Narrate(ctx context.Context, fp diagnostics.Fingerprint) (*Narration, error) {
	record, ok := c.cache.Get(fp)
	if !ok {
		return nil, diagnostics.ErrUnknownFingerprint
	}

	requestID := uuid.NewString()
	text, gen, prompt, err := c.generate(ctx, prompts.VariantVoice, record, requestID)
	if err != nil {
		c.logger.Error("narration failed",
			zap.String("fingerprint", fp.String()),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}

	c.record(requestTypeNarration, fp, requestID, prompt, text, gen)
	return &Narration{Text: text, RequestID: requestID}, nil
}

func (c *Coordinator) generate(ctx context.Context, variant string, record diagnostics.ErrorRecord, requestID string) (string, *models.GenerationResponse, string, error) {
	data := prompts.ErrorData{
		Message:  record.Diagnostic.Message,
		CodeLine: c.codeLine(record),
	}
	prompt, err := c.prompts.BuildPrompt(prompts.ModeExplain, variant, data)
	if err != nil {
		return "", nil, "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	gen, err := c.provider.GenerateContent(ctx, prompt, requestID)
	if err != nil {
		return "", nil, prompt, err
	}

	text := sanitize.Sanitize(gen.Content)
	if text == "" {
		return "", nil, prompt, &backend.Error{
			Backend: c.provider.GetProviderName(),
			Code:    backend.ErrCodeMalformedResponse,
			Message: "explanation empty after sanitizing",
		}
	}
	return text, gen, prompt, nil
}

// codeLine falls back to an empty line when the document no longer has it.
func (c *Coordinator) codeLine(record diagnostics.ErrorRecord) string {
	if record.Document == nil {
		return ""
	}
	line, err := record.Document.LineAt(record.Diagnostic.Range.StartLine)
	if err != nil {
		c.logger.Warn("source line unavailable", zap.String("fingerprint", record.Fingerprint.String()), zap.Error(err))
		return ""
	}
	return line
}

func (c *Coordinator) record(kind string, fp diagnostics.Fingerprint, requestID, prompt, text string, gen *models.GenerationResponse) {
	if c.recorder == nil {
		return
	}
	version := gen.Metadata.ModelVersion
	if version == "" {
		version = gen.Metadata.Model
	}
	c.recorder.StoreRequestContext(&models.RequestContext{
		RequestID:    requestID,
		RequestType:  kind,
		Fingerprint:  fp.ID(),
		Prompt:       prompt,
		Response:     text,
		ModelVersion: version,
		Timestamp:    time.Now(),
	})
}
