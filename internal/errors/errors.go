// Package errors defines the coded error taxonomy used across the PLR
// pipeline. Every failure that reaches a report or a log entry carries
// a stable error code plus the recording it belongs to, so one bad
// recording never aborts the batch silently or anonymously.
package errors

import (
	"errors"
	"fmt"
)

// Stable error codes reported in logs and batch summaries.
const (
	CodeLoadFailed           = "LOAD_FAILED"
	CodeMissingStimulusEvent = "MISSING_STIMULUS_EVENT"
	CodeExcessiveDataLoss    = "EXCESSIVE_DATA_LOSS"
	CodeInvalidFilterWindow  = "INVALID_FILTER_WINDOW"
	CodeStageFailed          = "STAGE_FAILED"
	CodeConfigInvalid        = "CONFIG_INVALID"
	CodeExportFailed         = "EXPORT_FAILED"
)

// RecordingError scopes a pipeline failure to a single recording and
// the stage that produced it.
type RecordingError struct {
	RecordingID string
	Stage       string
	Code        string
	Err         error
}

// Error implements the error interface
func (e *RecordingError) Error() string {
	return fmt.Sprintf("recording %s: %s [%s]: %v", e.RecordingID, e.Stage, e.Code, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As
func (e *RecordingError) Unwrap() error {
	return e.Err
}

// NewRecordingError wraps err with recording and stage scope.
func NewRecordingError(recordingID, stage, code string, err error) *RecordingError {
	return &RecordingError{
		RecordingID: recordingID,
		Stage:       stage,
		Code:        code,
		Err:         err,
	}
}

// Code extracts the stable error code from err, walking the wrap chain.
// Unknown errors report STAGE_FAILED.
func Code(err error) string {
	var re *RecordingError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeStageFailed
}

// RecordingID extracts the recording scope from err, or "" when the
// error is not recording-scoped.
func RecordingID(err error) string {
	var re *RecordingError
	if errors.As(err, &re) {
		return re.RecordingID
	}
	return ""
}
