package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// idRegex matches surface and object identifiers: a letter followed by
// letters, digits, dots, dashes, colons or underscores.
var idRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._:-]*$`)

// ValidateID validates a surface or object identifier.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - Maximum length of 128 characters
//   - Must start with a letter
//   - Only letters, digits and . _ : - afterwards
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "identifier cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidID, "identifier too long (max 128 characters)")
	}
	if !idRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid identifier: %q", id)
	}
	return nil
}

// ValidatePath validates a scene or config file path supplied by a user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
