package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"errorhelper/internal/backend"
	"errorhelper/internal/llm"
	"errorhelper/internal/metrics"
	"errorhelper/internal/sanitize"
)

const FailureText = "Failed to fetch AI reply."

var ErrEmptyInput = errors.New("chat: empty message")

type Coordinator struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCoordinator(provider llm.Provider, timeout time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{provider: provider, timeout: timeout, logger: logger}
}

// Send appends the user's message, asks the backend and appends its reply.
// The user's message is not emitted; the panel already shows it. Exactly one
// ai message is emitted per accepted call, the reply or FailureText.
// Concurrent sends on one session are not serialized, replies land in arrival order.
func (c *Coordinator) Send(ctx context.Context, session *Session, text string, emit func(Message)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}

	session.Append(RoleUser, text)

	reply, err := c.reply(ctx, text)
	if err != nil {
		c.logger.Error("chat reply failed",
			zap.String("provider", c.provider.GetProviderName()),
			zap.String("code", backend.Code(err)),
			zap.Error(err))
		metrics.ObserveChatReply(metrics.OutcomeFailure)
		emit(session.Append(RoleAI, FailureText))
		return err
	}

	metrics.ObserveChatReply(metrics.OutcomeSuccess)
	emit(session.Append(RoleAI, reply))
	return nil
}

func (c *Coordinator) reply(ctx context.Context, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	gen, err := c.provider.GenerateContent(ctx, text, uuid.NewString())
	if err != nil {
		return "", err
	}
	reply := sanitize.Sanitize(gen.Content)
	if reply == "" {
		return "", &backend.Error{
			Backend: c.provider.GetProviderName(),
			Code:    backend.ErrCodeMalformedResponse,
			Message: "empty chat reply",
		}
	}
	return reply, nil
}
