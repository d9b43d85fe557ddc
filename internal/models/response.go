package models

// GenerationResponse is the text produced by a TextExplanationService.
type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

// additional information about the generation
type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	ModelVersion   string `json:"model_version,omitempty"`
}

// ErrorView is one row of the error tree.
type ErrorView struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Label     string `json:"label"`
	Status    string `json:"status"`
	Solution  string `json:"solution,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorListResponse struct {
	URI    string      `json:"uri,omitempty"`
	Errors []ErrorView `json:"errors"`
}

type VoiceExplanationResponse struct {
	AudioURL  string `json:"audio_url"`
	Text      string `json:"text"`
	RequestID string `json:"request_id"`
}

type ChatTranscriptResponse struct {
	PanelID  string        `json:"panel_id"`
	Messages []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// generic envelope for feedback endpoints
type Resp struct {
	OK   bool        `json:"ok"`
	Info interface{} `json:"info,omitempty"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []ValidationErrorDetail `json:"details,omitempty"`
}

func (e *ErrorResponse) Error() string { return e.Message }

// single field validation error
type ValidationErrorDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
