package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLength  = 200
	maxNotesLength = 4000
)

// ValidateShapeName validates a user-supplied shape name.
//
// The validation rules:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of 200 characters
//
// Hebrew and other non-Latin scripts are accepted.
func ValidateShapeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "shape name cannot be empty")
	}

	if utf8.RuneCountInString(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "shape name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "shape name contains invalid control characters")
		}
	}

	return nil
}

// ValidateNotes validates free-form shape notes. Line breaks and tabs are
// allowed, other control characters are not.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return New(ErrCodeInvalidInput, "notes too long (max %d characters)", maxNotesLength)
	}

	for _, r := range notes {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "notes contain invalid control characters")
		}
	}

	return nil
}

// colorRegex matches #RGB and #RRGGBB hex colors.
var colorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a hex color string such as "#3b82f6".
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidInput, "invalid color %q (want #RGB or #RRGGBB)", color)
	}
	return nil
}

// sessionIDRegex matches UUIDs and the simple slugs accepted from the CLI.
var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateSessionID validates a session identifier for safety. Session ids
// become file names and database keys, so path separators and traversal
// sequences are rejected.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "session id cannot contain path traversal sequences (..)")
	}
	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid session id: %q", id)
	}
	return nil
}
