// Package errors provides structured error handling for nmapxlsx operations.
// It defines error codes and error types for the load, write and configuration
// stages of a conversion, with helpers to classify errors by code.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeUsage         ErrorCode = "USAGE"

	// File system errors.
	CodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	CodeFilePermission ErrorCode = "FILE_PERMISSION"

	// Conversion errors.
	CodeParse ErrorCode = "PARSE"
	CodeWrite ErrorCode = "WRITE"
)

// ParseError represents an error that occurred while loading a scan report.
type ParseError struct {
	Code    ErrorCode
	Message string
	File    string
	// Lenient is set when the failure happened in the tolerant parse pass.
	Lenient bool
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.File != "" {
		msg = fmt.Sprintf("%s (file: %s)", msg, e.File)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WrapParseError wraps an existing error as a parse error.
func WrapParseError(code ErrorCode, message, file string, err error) *ParseError {
	return &ParseError{
		Code:    code,
		Message: message,
		File:    file,
		Cause:   err,
	}
}

// WriteError represents workbook write and finalization failures.
type WriteError struct {
	Code    ErrorCode
	Message string
	Sheet   string
	Cell    string
	Cause   error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	switch {
	case e.Sheet != "" && e.Cell != "":
		msg = fmt.Sprintf("%s (sheet: %s, cell: %s)", msg, e.Sheet, e.Cell)
	case e.Sheet != "":
		msg = fmt.Sprintf("%s (sheet: %s)", msg, e.Sheet)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// AtCell records the sheet and cell the failure happened at.
func (e *WriteError) AtCell(sheet, cell string) *WriteError {
	e.Sheet = sheet
	e.Cell = cell
	return e
}

// WrapWriteError wraps an existing error as a write error.
func WrapWriteError(code ErrorCode, message string, err error) *WriteError {
	return &WriteError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from the first coded error in err's chain.
func GetCode(err error) ErrorCode {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	var we *WriteError
	if stderrors.As(err, &we) {
		return we.Code
	}
	var ce *ConfigError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// IsFatal reports whether an error must abort the whole conversion.
// Only a strict parse failure is recoverable, and that recovery happens
// inside the loader before an error ever reaches a caller.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var pe *ParseError
	if stderrors.As(err, &pe) && !pe.Lenient && pe.Code == CodeParse {
		return false
	}
	return true
}

// Common error creation functions

// ErrUsage creates an error for invalid command-line usage.
func ErrUsage(message string) *ConfigError {
	return NewConfigError(CodeUsage, message)
}

// ErrFileRead classifies a failure to read an input file.
func ErrFileRead(file string, err error, notFound, permission bool) *ParseError {
	switch {
	case notFound:
		return WrapParseError(CodeFileNotFound, "Input file does not exist", file, err)
	case permission:
		return WrapParseError(CodeFilePermission, "Input file is not readable", file, err)
	}
	return WrapParseError(CodeUnknown, "Failed to read input file", file, err)
}

// ErrParseFailed creates an error for a report that could not be parsed.
func ErrParseFailed(file string, lenient bool, err error) *ParseError {
	pe := WrapParseError(CodeParse, "Failed to parse scan report", file, err)
	if lenient {
		pe.Message = "Failed to parse incomplete scan report"
	}
	pe.Lenient = lenient
	return pe
}

// ErrWriteFailed creates an error for a failed workbook operation.
func ErrWriteFailed(operation string, err error) *WriteError {
	return WrapWriteError(CodeWrite, fmt.Sprintf("Failed to %s", operation), err)
}

// ErrSaveFailed creates an error for a workbook that could not be saved.
func ErrSaveFailed(path string, err error) *WriteError {
	return WrapWriteError(CodeWrite, fmt.Sprintf("Failed to save workbook to %s", path), err)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// ErrConfigMissing creates an error for missing required configuration.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "Required configuration field missing", field, nil)
}
