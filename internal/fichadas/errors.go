package fichadas

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeSourceUnavailable      Code = "SOURCE_UNAVAILABLE"
	CodeMissingAgentRef        Code = "MISSING_AGENT_REF"
	CodeUnresolvedAgent        Code = "UNRESOLVED_AGENT"
	CodeDestinationUnavailable Code = "DESTINATION_UNAVAILABLE"
)

// SyncError classifies a failed pipeline step. Every code is recoverable:
// the loop logs it and retries after the long pause, never crashing.
type SyncError struct {
	Code    Code
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Err }

func ErrSource(err error) error {
	return &SyncError{Code: CodeSourceUnavailable, Message: "source store query failed", Err: err}
}

func ErrMissingAgentRef() error {
	return &SyncError{Code: CodeMissingAgentRef, Message: "fichada carries no agent reference"}
}

func ErrUnresolvedAgent(ref string) error {
	return &SyncError{Code: CodeUnresolvedAgent, Message: fmt.Sprintf("no agent matches reference %q", ref)}
}

func ErrDestination(err error) error {
	return &SyncError{Code: CodeDestinationUnavailable, Message: "destination store operation failed", Err: err}
}

// CodeOf extracts the sync error code, unwrapping as needed. Errors that
// did not come from a constructor yield the empty code.
func CodeOf(err error) Code {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
