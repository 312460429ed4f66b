package models

import (
	"errors"
	"fmt"
)

var (
	ErrMeetingNotFound       = errors.New("meeting not found")
	ErrCalendarNotConfigured = errors.New("calendar backend not configured")
)

// ValidationError reports bad input shape or values and maps to a 4xx at the
// HTTP boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DeliveryError wraps an email transport failure. It is always fatal to the
// enclosing operation.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// SyncError wraps a calendar transport failure. Fatal for update and cancel,
// tolerated during create.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
