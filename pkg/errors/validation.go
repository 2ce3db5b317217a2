package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// mavenIDRegex matches the characters Maven accepts in groupId and artifactId.
var mavenIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ValidateCoordinate validates a groupId/artifactId pair before it is turned
// into a repository path or URL.
//
// The validation rules are intentionally conservative:
//   - No empty parts
//   - No control characters
//   - No path traversal sequences (..)
//   - Only letters, digits, '.', '-' and '_'
func ValidateCoordinate(groupID, artifactID string) error {
	if err := validateID("groupId", groupID); err != nil {
		return err
	}
	return validateID("artifactId", artifactID)
}

func validateID(field, id string) error {
	if id == "" {
		return New(ErrCodeInvalidCoordinate, "%s cannot be empty", field)
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidCoordinate, "%s too long (max 256 characters)", field)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCoordinate, "%s contains invalid control characters", field)
		}
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidCoordinate, "%s cannot contain path traversal sequences (..)", field)
	}
	if !mavenIDRegex.MatchString(id) {
		return New(ErrCodeInvalidCoordinate, "invalid %s: %q", field, id)
	}
	return nil
}

// ValidateVersion validates a concrete version string used as a path segment.
func ValidateVersion(v string) error {
	if v == "" {
		return New(ErrCodeInvalidInput, "version cannot be empty")
	}
	if strings.ContainsAny(v, "/\\\x00") || strings.Contains(v, "..") {
		return New(ErrCodeInvalidInput, "version contains invalid characters: %q", v)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
