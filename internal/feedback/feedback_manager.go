package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"errorhelper/internal/models"
)

var ErrContextNotFound = errors.New("feedback: request context not found or expired")

// FeedbackManager stores ratings of generated explanations.
type FeedbackManager struct {
	db           *gorm.DB
	contextCache *ContextCache
	logger       *zap.Logger
}

func NewFeedbackManager(db *gorm.DB, cacheTTL time.Duration, logger *zap.Logger) *FeedbackManager {
	return &FeedbackManager{
		db:           db,
		contextCache: NewContextCache(cacheTTL),
		logger:       logger,
	}
}

// StoreRequestContext keeps a generated explanation so it can be rated later.
func (fm *FeedbackManager) StoreRequestContext(ctx *models.RequestContext) {
	fm.contextCache.Set(ctx.RequestID, ctx)
	fm.logger.Debug("stored request context",
		zap.String("request_id", ctx.RequestID),
		zap.String("type", ctx.RequestType),
		zap.String("fingerprint", ctx.Fingerprint))
}

// SubmitFeedback persists a rating. The context is consumed on success.
func (fm *FeedbackManager) SubmitFeedback(requestID string, isPositive bool) error {
	ctx, ok := fm.contextCache.Get(requestID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrContextNotFound, requestID)
	}

	record := &models.AIFeedback{
		RequestID:    requestID,
		RequestType:  ctx.RequestType,
		Fingerprint:  ctx.Fingerprint,
		Prompt:       ctx.Prompt,
		Response:     ctx.Response,
		IsPositive:   isPositive,
		ModelVersion: ctx.ModelVersion,
		FeedbackAt:   time.Now(),
	}
	if err := fm.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	fm.contextCache.Delete(requestID)
	fm.logger.Info("stored feedback",
		zap.String("request_id", requestID),
		zap.Bool("positive", isPositive),
		zap.String("type", ctx.RequestType))
	return nil
}

// GetUnexportedFeedback returns the oldest unexported ratings first; limit <= 0 means all.
func (fm *FeedbackManager) GetUnexportedFeedback(limit int) ([]models.AIFeedback, error) {
	var out []models.AIFeedback
	query := fm.db.Where("exported = ?", false).Order("feedback_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get unexported feedback: %w", err)
	}
	return out, nil
}

func (fm *FeedbackManager) GetFeedbackSince(since time.Time, limit int) ([]models.AIFeedback, error) {
	var out []models.AIFeedback
	query := fm.db.Where("feedback_at >= ?", since).Order("feedback_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to get feedback since %v: %w", since, err)
	}
	return out, nil
}

func (fm *FeedbackManager) MarkAsExported(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	result := fm.db.Model(&models.AIFeedback{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"exported":    true,
			"exported_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark feedback as exported: %w", result.Error)
	}
	fm.logger.Info("marked feedback as exported", zap.Int64("rows", result.RowsAffected))
	return nil
}

// ExportToJSONL renders positively rated explanations as user/model turns, one
// JSON object per line. Negative ratings are skipped.
func (fm *FeedbackManager) ExportToJSONL(records []models.AIFeedback) ([]byte, error) {
	var lines [][]byte
	for _, fb := range records {
		if !fb.IsPositive {
			continue
		}
		point := models.TrainingDataPoint{
			Contents: []models.TrainingContent{
				{Role: "user", Parts: []models.TrainingPart{{Text: fb.Prompt}}},
				{Role: "model", Parts: []models.TrainingPart{{Text: fb.Response}}},
			},
		}
		line, err := json.Marshal(point)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal training data: %w", err)
		}
		lines = append(lines, line)
	}

	fm.logger.Info("exported feedback to JSONL",
		zap.Int("positive", len(lines)),
		zap.Int("total", len(records)))
	return bytes.Join(lines, []byte("\n")), nil
}

// Stats summarises stored feedback.
type Stats struct {
	TotalCount      int64 `json:"total_count"`
	PositiveCount   int64 `json:"positive_count"`
	UnexportedCount int64 `json:"unexported_count"`
	CachedContexts  int   `json:"cached_contexts"`
}

func (fm *FeedbackManager) GetFeedbackStats() (*Stats, error) {
	stats := &Stats{CachedContexts: fm.contextCache.Size()}

	base := fm.db.Model(&models.AIFeedback{})
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalCount).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_positive = ?", true).Count(&stats.PositiveCount).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("exported = ?", false).Count(&stats.UnexportedCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// Close stops the context sweeper.
func (fm *FeedbackManager) Close() {
	fm.contextCache.Close()
}
