package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// kindNameRegex matches registry kind names: lowercase, digits, dashes.
var kindNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateKindName validates a kind name used as a registry key.
func ValidateKindName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidKind, "kind name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidKind, "kind name too long (max 64 characters)")
	}
	if !kindNameRegex.MatchString(name) {
		return New(ErrCodeInvalidKind, "invalid kind name: %q", name)
	}
	return nil
}

// ValidateID validates a cue or output identifier taken from a URL path
// or a config document. IDs are opaque but must be printable and free of
// path separators.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidID, "id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "id contains invalid characters")
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidID, "id cannot contain path separators")
	}
	return nil
}

// ValidateName validates a human-facing name for a cue or output.
func ValidateName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return nil
}

// ValidateAlpha validates an opacity value in [0, 1].
func ValidateAlpha(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return New(ErrCodeInvalidConfig, "%s must be between 0 and 1, got %v", field, v)
	}
	return nil
}

// ValidateChannel validates a color channel value in [0, 255].
func ValidateChannel(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 255 {
		return New(ErrCodeInvalidConfig, "%s must be between 0 and 255, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative validates a rate or duration that must not be negative.
func ValidateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidConfig, "%s must be a non-negative number, got %v", field, v)
	}
	return nil
}
