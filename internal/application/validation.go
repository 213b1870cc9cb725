package application

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Validation limits for application fields and configuration documents.
const (
	maxNameLength        = 255
	maxDescriptionLength = 1000

	// maxConfigBytes bounds the serialised configuration document (1 MiB).
	maxConfigBytes = 1 << 20

	namePattern = `^[a-zA-Z0-9_-]+$`
)

var nameRegex = regexp.MustCompile(namePattern)

// ValidateName checks an application name against the naming rules:
// non-empty, at most 255 characters, limited to letters, digits,
// underscores, and hyphens.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: name must contain only letters, digits, underscores, and hyphens", ErrInvalidName)
	}
	return nil
}

// NormalizeName trims surrounding whitespace and validates the result.
//
// Returns:
//   - string: The trimmed name
//   - error: ErrInvalidName (wrapped) when the trimmed name is invalid
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateName(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// NormalizeDescription trims whitespace and collapses empty descriptions
// to nil, so the database stores NULL rather than "".
//
// Returns:
//   - *string: The trimmed description, or nil when absent or blank
//   - error: ErrInvalidDescription (wrapped) when over the length limit
func NormalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return &trimmed, nil
}

// ValidateDocument checks a configuration document: it must be a non-empty
// JSON object and serialise to at most 1 MiB.
func ValidateDocument(doc Document) error {
	if len(doc) == 0 {
		return fmt.Errorf("%w: config must be a non-empty object", ErrInvalidConfig)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: config is not serialisable: %v", ErrInvalidConfig, err)
	}
	if len(b) > maxConfigBytes {
		return fmt.Errorf("%w: config exceeds %d bytes when serialised", ErrInvalidConfig, maxConfigBytes)
	}
	return nil
}
