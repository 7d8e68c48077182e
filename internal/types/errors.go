package types

import (
	"errors"
	"fmt"
	"net/http"
)

// BackendError reports a single failed executor attempt against one model.
// It is always recoverable at the orchestrator level unless the attempt
// already produced output.
type BackendError struct {
	Model   string
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend %s: %s", e.Model, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a BackendError for the given model
func NewBackendError(model, message string, cause error) *BackendError {
	return &BackendError{Model: model, Message: message, Cause: cause}
}

// IsBackendError reports whether err is (or wraps) a BackendError
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// ExhaustedFallbackError reports that every candidate in the attempt chain
// failed before producing output.
type ExhaustedFallbackError struct {
	LastModel string
	LastErr   error
	Attempts  int
}

func (e *ExhaustedFallbackError) Error() string {
	return fmt.Sprintf("all models failed after %d attempts, last error from %s: %v",
		e.Attempts, e.LastModel, e.LastErr)
}

func (e *ExhaustedFallbackError) Unwrap() error {
	return e.LastErr
}

// APIError is the error shape returned on the HTTP edge
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Type       string `json:"type,omitempty"`
}

const (
	ErrCodeEmptyPrompt = "llm-bridge.empty_prompt"
	ErrMsgEmptyPrompt  = "No prompt content in messages."

	ErrCodeModelUnavailable = "llm-bridge.model_unavailable"
	ErrMsgModelUnavailable  = "Unable to reach any configured model backend. Please try again later."

	ErrCodeInternalError = "llm-bridge.internal_error"
	ErrMsgInternalError  = "Internal Server Error. Please try again later."
)

func NewEmptyPromptError() *APIError {
	return &APIError{
		Code:       ErrCodeEmptyPrompt,
		Message:    ErrMsgEmptyPrompt,
		Success:    false,
		StatusCode: http.StatusBadRequest,
	}
}

func NewModelUnavailableError(detail string) *APIError {
	msg := ErrMsgModelUnavailable
	if detail != "" {
		msg = detail
	}
	return &APIError{
		Code:       ErrCodeModelUnavailable,
		Message:    msg,
		Success:    false,
		StatusCode: http.StatusBadGateway,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf(`{"code":"%s","message":"%s","success":%v}`, e.Code, e.Message, e.Success)
}
