package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"errorhelper/internal/models"
)

// FeedbackSource is the part of the feedback store the exporter needs.
type FeedbackSource interface {
	GetUnexportedFeedback(limit int) ([]models.AIFeedback, error)
	ExportToJSONL(records []models.AIFeedback) ([]byte, error)
	MarkAsExported(ids []uint) error
}

type ExporterConfig struct {
	Schedule      string // cron spec, e.g. "0 2 * * *"
	ExportDir     string
	ExportEnabled bool
}

// ExportResult describes one export run. File is empty when nothing positive
// was exported.
type ExportResult struct {
	File     string
	Records  int
	Positive int
}

// FeedbackExporterJob periodically writes rated explanations to JSONL files.
type FeedbackExporterJob struct {
	source FeedbackSource
	config *ExporterConfig
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

func NewFeedbackExporterJob(source FeedbackSource, config *ExporterConfig, logger *zap.Logger) *FeedbackExporterJob {
	return &FeedbackExporterJob{
		source: source,
		config: config,
		cron:   cron.New(),
		logger: logger,
		now:    time.Now,
	}
}

func (j *FeedbackExporterJob) Start() error {
	if !j.config.ExportEnabled {
		j.logger.Info("feedback export disabled, scheduler not started")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if _, err := j.RunExport(); err != nil {
			j.logger.Error("feedback export failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("feedback exporter started", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop waits for a running export to finish.
func (j *FeedbackExporterJob) Stop() {
	<-j.cron.Stop().Done()
}

// RunExport exports everything not yet exported. Records are marked exported
// even when none of them is positive so negatives are not reprocessed.
func (j *FeedbackExporterJob) RunExport() (*ExportResult, error) {
	records, err := j.source.GetUnexportedFeedback(0)
	if err != nil {
		return nil, fmt.Errorf("failed to get unexported feedback: %w", err)
	}

	result := &ExportResult{Records: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(records))
	for _, fb := range records {
		ids = append(ids, fb.ID)
		if fb.IsPositive {
			result.Positive++
		}
	}

	if result.Positive > 0 {
		data, err := j.source.ExportToJSONL(records)
		if err != nil {
			return nil, fmt.Errorf("failed to export to JSONL: %w", err)
		}
		if err := os.MkdirAll(j.config.ExportDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
		name := fmt.Sprintf("feedback_export_%s.jsonl", j.now().Format("20060102_150405"))
		result.File = filepath.Join(j.config.ExportDir, name)
		if err := os.WriteFile(result.File, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write export file: %w", err)
		}
	}

	if err := j.source.MarkAsExported(ids); err != nil {
		return nil, fmt.Errorf("failed to mark as exported: %w", err)
	}

	j.logger.Info("feedback exported",
		zap.Int("records", result.Records),
		zap.Int("positive", result.Positive),
		zap.String("file", result.File))
	return result, nil
}
