package diagnostics

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Severity follows the editor's numbering.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Range is zero-based, like the editor API.
type Range struct {
	StartLine      int `json:"start_line"`
	StartCharacter int `json:"start_character"`
	EndLine        int `json:"end_line"`
	EndCharacter   int `json:"end_character"`
}

// Diagnostic is a snapshot of an editor-reported issue.
type Diagnostic struct {
	Message  string   `json:"message"`
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Source   string   `json:"source,omitempty"`
}

// Fingerprint identifies a visible error by its message and starting line.
// Two diagnostics with the same message on the same line are the same logical error.
type Fingerprint struct {
	Message string
	Line    int
}

func FingerprintOf(d Diagnostic) Fingerprint {
	return Fingerprint{Message: d.Message, Line: d.Range.StartLine}
}

func (f Fingerprint) String() string {
	return f.Message + "|" + strconv.Itoa(f.Line)
}

// ID is a URL-safe, stable short form of the fingerprint.
func (f Fingerprint) ID() string {
	sum := sha256.Sum256([]byte(f.String()))
	return hex.EncodeToString(sum[:8])
}

// Document is the read-only source document a diagnostic belongs to.
type Document interface {
	URI() string
	LineAt(line int) (string, error)
}

// ErrorRecord ties a diagnostic to its explanation state. Records are owned by Cache;
// callers only ever see copies.
type ErrorRecord struct {
	Fingerprint Fingerprint
	Diagnostic  Diagnostic
	Document    Document
	Solution    SolutionState
}
