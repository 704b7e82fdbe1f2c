package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedTag indicates a reference tag that does not follow the canonical grammar
	MalformedTag ErrorCode = "MALFORMED_TAG"
	// UnknownType indicates a type designator outside the enumerated set
	UnknownType ErrorCode = "UNKNOWN_TYPE"
	// MalformedMetadata indicates a metadata block that is neither JSON nor key=value syntax
	MalformedMetadata ErrorCode = "MALFORMED_METADATA"
	// DuplicateIdentity indicates two scanned elements produced the same identity key
	DuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"
	// DanglingEdge indicates an edge whose endpoint is not present in the index
	DanglingEdge ErrorCode = "DANGLING_EDGE"
	// SnapshotNotFound indicates a requested snapshot does not exist in the store
	SnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// BaselineMissing indicates drift was requested with no stored baseline
	BaselineMissing ErrorCode = "BASELINE_MISSING"
	// ScanInputInvalid indicates a scan result file could not be decoded
	ScanInputInvalid ErrorCode = "SCAN_INPUT_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// CodeRefError represents an engine error with a stable code and optional detail
type CodeRefError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new CodeRefError
func New(code ErrorCode, message string, cause error) *CodeRefError {
	return &CodeRefError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new CodeRefError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *CodeRefError {
	return &CodeRefError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *CodeRefError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CodeRefError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *CodeRefError) WithDetails(details interface{}) *CodeRefError {
	e.Details = details
	return e
}

// ParseDetail carries the byte offset at which a tag parse failed
type ParseDetail struct {
	Offset int    `json:"offset"`
	Near   string `json:"near,omitempty"`
}

// NewParseError creates a parse error carrying the byte offset of the failure
func NewParseError(code ErrorCode, message string, offset int, near string) *CodeRefError {
	e := New(code, message, nil)
	e.Details = &ParseDetail{Offset: offset, Near: near}
	return e
}

// CodeOf extracts the ErrorCode from an error, or InternalError for foreign errors
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ce, ok := err.(*CodeRefError); ok {
		return ce.Code
	}
	return InternalError
}

// OffsetOf returns the byte offset attached to a parse error, or -1
func OffsetOf(err error) int {
	ce, ok := err.(*CodeRefError)
	if !ok {
		return -1
	}
	if d, ok := ce.Details.(*ParseDetail); ok {
		return d.Offset
	}
	return -1
}
