// Package domainerrors defines the coded error type shared by services, stores
// and HTTP handlers. Services create or wrap errors with a Code; the transport
// layer translates the Code into a status without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeBadRequest      Code = "bad_request"
	CodeValidation      Code = "validation_error"
	CodeNotFound        Code = "not_found"
	CodeTimeout         Code = "timeout"
	CodeInternal        Code = "internal_error"
	CodeTooLarge        Code = "payload_too_large"
	CodeUnavailable     Code = "service_unavailable"
	CodeInvalidInput    Code = "invalid_input"
	CodeInvalidFile     Code = "invalid_file_type"
	CodePDFExtraction   Code = "pdf_extraction_failed"
	CodeDocumentInvalid Code = "document_invalid"

	// LLM boundary failures.
	CodeLLMTimeout     Code = "llm_timeout"
	CodeLLMUnavailable Code = "llm_unavailable"
	CodeLLMBadResponse Code = "llm_bad_response"
)

// Error carries a Code, a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost coded error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in the chain has the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the outermost code in the chain, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the API returns for it.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeValidation, CodeInvalidFile, CodePDFExtraction, CodeDocumentInvalid:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTimeout, CodeLLMTimeout:
		return http.StatusGatewayTimeout
	case CodeLLMUnavailable, CodeLLMBadResponse:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
