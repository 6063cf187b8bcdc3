// Package edit talks to the hosted generative-media API and defines the
// error taxonomy for edit operations.
package edit

import (
	"errors"
	"fmt"

	"room-studio/internal/mask"
)

// ErrNotConfigured is returned by every operation when no API key is set.
// This is a deployment problem, not a per-request condition.
var ErrNotConfigured = errors.New("FAL_KEY is not configured; set it in the environment")

// ValidationError marks a user-correctable problem (missing prompt,
// missing polygon, missing reference image). Operations that fail
// validation never reach the network.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is user-correctable.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// TransportError wraps an upload or model-invocation failure. No automatic
// retry is attempted; the caller surfaces it and leaves all state unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage converts any operation error into the single string shown to
// the user. Rasterizer failures read like transport failures; nothing
// escapes as a crash.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Msg
	}
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured.Error()
	}
	if errors.Is(err, mask.ErrInvalidSelection) || errors.Is(err, mask.ErrAssetFetch) {
		return err.Error()
	}
	var t *TransportError
	if errors.As(err, &t) {
		return "Failed to process request: " + t.Err.Error()
	}
	return err.Error()
}
