package errors

import (
	"strings"
	"unicode"
)

// maxPackageNameLength bounds names accepted from untrusted input.
const maxPackageNameLength = 256

// ValidatePackageName validates a package name received from untrusted input
// (HTTP query parameters, CLI arguments).
//
// The rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //) or backslashes
//   - Maximum length of 256 characters
//
// Scoped npm names such as "@scope/pkg" are accepted.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > maxPackageNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}
