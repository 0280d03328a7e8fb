package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("reservation not found")
	ErrInvalidStatus       = errors.New("invalid reservation status")
	ErrAccessDenied        = errors.New("you do not have admin permissions to view reservations")
	ErrEmailNotConfigured  = errors.New("email service not configured")
	ErrDuplicateSubmission = errors.New("reservation already submitted")
)

// ContactPhone is the channel guests are pointed to when the backend is unusable.
const ContactPhone = "+32 465 20 60 24"

// ValidationError is raised for bad input before any backend call is made.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// ConfigurationError means the backend credentials are missing or malformed.
// Retrying does not help until the service is redeployed.
type ConfigurationError struct {
	Component string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Component)
}

// UserMessage is what a guest sees instead of the raw reason.
func (e *ConfigurationError) UserMessage() string {
	return "Online reservations are currently unavailable. Please call us at " + ContactPhone + "."
}

// PermissionError is an authorization failure reported by the backend or the
// admin check. It must never be retried automatically.
type PermissionError struct {
	Op  string
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: permission denied", e.Op)
	}
	return fmt.Sprintf("%s: permission denied: %v", e.Op, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TransientError covers every other backend failure. Whether the mutation
// happened is unknown to the caller.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// NotificationError is an email delivery failure. It is logged, never shown
// to the guest as a failure of their reservation.
type NotificationError struct {
	StatusCode int
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("email delivery failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("email delivery failed: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
