package validation

import (
	"errors"
	"strings"
)

var (
	ErrNameRequired = errors.New("goal name is required")
	ErrNameTooLong  = errors.New("goal name is too long (max 120 characters)")
)

// ValidateGoalName validates a goal name
func ValidateGoalName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return ErrNameRequired
	}

	if len(trimmed) > 120 {
		return ErrNameTooLong
	}

	return nil
}
