// Package errors defines stable error codes for all bpa failure modes.
//
// Degraded-but-defined situations (empty corpus, extraction with no match,
// re-evaluation without new evidence) are NOT errors; they have defined
// outputs and never reach this package.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RegistryInvalid indicates the rule registry failed structural validation
	RegistryInvalid ErrorCode = "REGISTRY_INVALID"
	// MatrixInvalid indicates a strategic matrix is missing block-slots
	MatrixInvalid ErrorCode = "MATRIX_INVALID"
	// StepOutOfRange indicates a diagnosis step index outside [0,9]
	StepOutOfRange ErrorCode = "STEP_OUT_OF_RANGE"
	// GapNotFound indicates the referenced gap id does not exist
	GapNotFound ErrorCode = "GAP_NOT_FOUND"
	// ProjectNotFound indicates the referenced project does not exist
	ProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	// DiagnosisMissing indicates an operation needs a prior diagnosis run
	DiagnosisMissing ErrorCode = "DIAGNOSIS_MISSING"
	// SnapshotCorrupt indicates a matrix snapshot could not be decoded
	SnapshotCorrupt ErrorCode = "SNAPSHOT_CORRUPT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// SupplyEvidence suggests attaching more evidence to the corpus
	SupplyEvidence FixActionType = "supply-evidence"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// BpaError represents a bpa error with code, message, and suggestions
type BpaError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new BpaError with the suggested fixes registered for its code
func New(code ErrorCode, message string, cause error) *BpaError {
	return &BpaError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *BpaError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BpaError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *BpaError) WithDetails(details interface{}) *BpaError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RegistryInvalid: {
		{
			Type:        RunCommand,
			Command:     "bpa registry validate",
			Safe:        true,
			Description: "Validate the rule registry artifact and report broken criteria",
		},
	},
	MatrixInvalid: {
		{
			Type:        RunCommand,
			Command:     "bpa diagnose",
			Safe:        true,
			Description: "Re-run the full diagnosis to rebuild the strategic matrix",
		},
	},
	DiagnosisMissing: {
		{
			Type:        RunCommand,
			Command:     "bpa diagnose",
			Safe:        true,
			Description: "Run the ten-step diagnosis to produce a gap list",
		},
	},
	GapNotFound: {
		{
			Type:        RunCommand,
			Command:     "bpa gap list",
			Safe:        true,
			Description: "List the gaps of the latest diagnosis",
		},
	},
	SnapshotCorrupt: {
		{
			Type:        RunCommand,
			Command:     "bpa matrix export",
			Safe:        true,
			Description: "Export a fresh snapshot from the stored matrix",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// As re-exports the standard helper so callers need a single errors import
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Is re-exports the standard helper so callers need a single errors import
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// CodeOf extracts the stable code from an error chain, or INTERNAL_ERROR
func CodeOf(err error) ErrorCode {
	var bpaErr *BpaError
	if As(err, &bpaErr) {
		return bpaErr.Code
	}
	return InternalError
}
