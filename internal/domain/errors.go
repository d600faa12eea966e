package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Content errors
	ErrPostNotFound    = errors.New("post not found")
	ErrTagNotFound     = errors.New("tag not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrSlugConflict    = errors.New("a post with this slug already exists for the publish date")
	ErrPageOutOfRange  = errors.New("page not found")
	ErrDisallowedHost  = errors.New("invalid host header")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotActive      = errors.New("user account is not active")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Media errors
	ErrAttachmentTooLarge = errors.New("attachment too large")
	ErrAttachmentType     = errors.New("attachment type not allowed")
	ErrStorageUnavailable = errors.New("media storage unavailable")

	// Transport errors
	ErrEmailDelivery = errors.New("email delivery failed")

	// Search errors
	ErrSearchUnavailable = errors.New("ranked search unavailable")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationErrors carries field-level validation messages
type ValidationErrors struct {
	Err    error
	Fields map[string]string
}

func (e *ValidationErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v: %s", e.cause(), strings.Join(parts, "; "))
}

func (e *ValidationErrors) Unwrap() error {
	return e.cause()
}

func (e *ValidationErrors) cause() error {
	if e.Err == nil {
		return ErrValidationFailed
	}
	return e.Err
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationErrors {
	return &ValidationErrors{Fields: map[string]string{field: message}}
}

// IsValidation reports whether err carries field-level messages
func IsValidation(err error) (*ValidationErrors, bool) {
	var verr *ValidationErrors
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
