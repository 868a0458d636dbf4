package models

import (
	"errors"
	"fmt"
)

// DataErrorCode categorizes data-quality problems
type DataErrorCode string

const (
	// ErrCodeMissingField indicates a required field is absent from a record.
	ErrCodeMissingField DataErrorCode = "MISSING_FIELD"

	// ErrCodeDuplicateID indicates two records share an id.
	ErrCodeDuplicateID DataErrorCode = "DUPLICATE_ID"

	// ErrCodeDanglingParent indicates a parent reference to a comment that was not retained.
	ErrCodeDanglingParent DataErrorCode = "DANGLING_PARENT"

	// ErrCodeParentCycle indicates the parent chain loops back on itself.
	ErrCodeParentCycle DataErrorCode = "PARENT_CYCLE"

	// ErrCodeThreadMismatch indicates a reply whose ancestor lives in another thread.
	ErrCodeThreadMismatch DataErrorCode = "THREAD_MISMATCH"

	// ErrCodeInvalidURL indicates a canonical URL that cannot be parsed.
	ErrCodeInvalidURL DataErrorCode = "INVALID_URL"

	// ErrCodeAmbiguousMatch indicates more than one remote discussion carries the same fingerprint.
	ErrCodeAmbiguousMatch DataErrorCode = "AMBIGUOUS_MATCH"
)

// DataError is a fatal problem with the source data or override tables.
// The run must stop so the input can be corrected by hand.
type DataError struct {
	Code     DataErrorCode
	Message  string
	RecordID string
}

func (e *DataError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s: %s (record=%s)", e.Code, e.Message, e.RecordID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDataError creates a DataError for the given record
func NewDataError(code DataErrorCode, recordID, format string, args ...interface{}) *DataError {
	return &DataError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		RecordID: recordID,
	}
}

// IsDataError returns true if err is, or wraps, a DataError
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// DataErrorCodeOf returns the code of a wrapped DataError, or "" if err is not one
func DataErrorCodeOf(err error) DataErrorCode {
	var de *DataError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
