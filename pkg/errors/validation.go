package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// moduleCodeRegex matches catalogue codes such as MATH0005 or PHAS0040.
var moduleCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]*$`)

// ValidateModuleCode validates a normalised module code.
func ValidateModuleCode(code string) error {
	if code == "" {
		return New(ErrCodeInvalidInput, "module code cannot be empty")
	}
	if len(code) > 32 {
		return New(ErrCodeInvalidInput, "module code too long (max 32 characters)")
	}
	if !moduleCodeRegex.MatchString(code) {
		return New(ErrCodeInvalidInput, "invalid module code: %q", code)
	}
	return nil
}

// ValidateThemeName validates a theme label taken from a query string or
// command line.
func ValidateThemeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "theme name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "theme name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "theme name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates an output file name or relative path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}
	return nil
}

// IsURL reports whether s looks like an http(s) URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !IsURL(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
