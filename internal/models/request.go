package models

import (
	"fmt"
	"strings"
)

// DiagnosticPayload is a diagnostic as reported by the editor shim.
type DiagnosticPayload struct {
	Message        string `json:"message"`
	StartLine      int    `json:"start_line"`
	StartCharacter int    `json:"start_character"`
	EndLine        int    `json:"end_line"`
	EndCharacter   int    `json:"end_character"`
	Severity       int    `json:"severity"`
	Source         string `json:"source,omitempty"`
}

// ActiveDocumentRequest replaces the active document and its diagnostics.
// Lines wins over Text when both are sent.
type ActiveDocumentRequest struct {
	URI         string              `json:"uri"`
	Lines       []string            `json:"lines,omitempty"`
	Text        string              `json:"text,omitempty"`
	Diagnostics []DiagnosticPayload `json:"diagnostics"`
}

// implements the Validator interface
func (r *ActiveDocumentRequest) Validate() error {
	r.URI = strings.TrimSpace(r.URI)
	if r.URI == "" {
		return &ErrorResponse{Code: "missing_uri", Message: "uri is required"}
	}

	var details []ValidationErrorDetail
	for i, d := range r.Diagnostics {
		field := fmt.Sprintf("diagnostics[%d]", i)
		if d.StartLine < 0 {
			details = append(details, ValidationErrorDetail{Field: field + ".start_line", Reason: "must not be negative"})
		}
		if d.Severity < 0 || d.Severity > 3 {
			details = append(details, ValidationErrorDetail{Field: field + ".severity", Reason: "must be between 0 and 3"})
		}
	}
	if len(details) > 0 {
		return &ErrorResponse{Code: "invalid_diagnostics", Message: "diagnostics are malformed", Details: details}
	}
	return nil
}

// SubmitFeedbackRequest represents the request body for feedback submission
type SubmitFeedbackRequest struct {
	IsPositive *bool `json:"is_positive"`
}

func (r *SubmitFeedbackRequest) Validate() error {
	if r.IsPositive == nil {
		return &ErrorResponse{Code: "missing_is_positive", Message: "is_positive is required"}
	}
	return nil
}

// VoiceExplanationRequest overrides the default voice for a narrated explanation.
type VoiceExplanationRequest struct {
	Voice string `json:"voice,omitempty"`
	Style string `json:"style,omitempty"`
}

func (r *VoiceExplanationRequest) Validate() error {
	r.Voice = strings.TrimSpace(r.Voice)
	r.Style = strings.TrimSpace(r.Style)
	return nil
}
