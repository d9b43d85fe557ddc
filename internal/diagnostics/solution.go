package diagnostics

import "errors"

type SolutionStatus int

const (
	StatusUnrequested SolutionStatus = iota
	StatusPending
	StatusReady
	StatusFailed
)

func (s SolutionStatus) String() string {
	switch s {
	case StatusUnrequested:
		return "unrequested"
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownFingerprint = errors.New("diagnostics: no error record for fingerprint")
	ErrAlreadyPending     = errors.New("diagnostics: explanation already pending")
	ErrStaleTarget        = errors.New("diagnostics: result no longer matches the latest request")
	ErrIllegalTransition  = errors.New("diagnostics: illegal solution transition")
)

// SolutionState is the explanation state of one ErrorRecord.
// Text holds the placeholder while pending, the explanation when ready and the
// user-facing reason when failed.
type SolutionState struct {
	Status    SolutionStatus
	Text      string
	RequestID string

	// token identifies the request that put the state into Pending.
	token uint64
}

func Unrequested() SolutionState { return SolutionState{Status: StatusUnrequested} }

func Ready(text, requestID string) SolutionState {
	return SolutionState{Status: StatusReady, Text: text, RequestID: requestID}
}

func Failed(reason string) SolutionState {
	return SolutionState{Status: StatusFailed, Text: reason}
}

func pending(placeholder, requestID string, token uint64) SolutionState {
	return SolutionState{Status: StatusPending, Text: placeholder, RequestID: requestID, token: token}
}

// HasSolution reports whether an explanation was ever requested for the record.
func (s SolutionState) HasSolution() bool { return s.Status != StatusUnrequested }

// CanTransition reports whether moving to next keeps the lifecycle
// Unrequested -> Pending -> {Ready|Failed} -> Pending -> ...
func (s SolutionState) CanTransition(next SolutionStatus) bool {
	switch s.Status {
	case StatusUnrequested, StatusReady, StatusFailed:
		return next == StatusPending
	case StatusPending:
		return next == StatusReady || next == StatusFailed
	default:
		return false
	}
}
