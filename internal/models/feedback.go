package models

import (
	"time"

	"gorm.io/gorm"
)

// AIFeedback stores a user's rating of an AI explanation.
// Note: document contents beyond the prompt are intentionally not stored
type AIFeedback struct {
	gorm.Model
	RequestID    string     `gorm:"uniqueIndex;not null" json:"request_id"`
	RequestType  string     `gorm:"not null" json:"request_type"` // "explanation", "narration"
	Fingerprint  string     `gorm:"index" json:"fingerprint"`
	Prompt       string     `gorm:"type:text;not null" json:"prompt"`
	Response     string     `gorm:"type:text;not null" json:"response"`
	IsPositive   bool       `gorm:"not null" json:"is_positive"`
	ModelVersion string     `gorm:"not null" json:"model_version"`
	FeedbackAt   time.Time  `gorm:"not null" json:"feedback_at"`
	Exported     bool       `gorm:"not null;default:false;index" json:"exported"`
	ExportedAt   *time.Time `json:"exported_at"`
}

// TrainingDataPoint is one JSONL line of exported feedback
type TrainingDataPoint struct {
	Contents []TrainingContent `json:"contents"`
}

type TrainingContent struct {
	Role  string         `json:"role"` // "user" or "model"
	Parts []TrainingPart `json:"parts"`
}

type TrainingPart struct {
	Text string `json:"text"`
}

// RequestContext keeps a prompt/response pair in memory until the user rates it
type RequestContext struct {
	RequestID    string
	RequestType  string
	Fingerprint  string
	Prompt       string
	Response     string
	ModelVersion string
	Timestamp    time.Time
}
