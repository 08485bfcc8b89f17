package probset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a parameter lies outside its
	// mathematical domain or a required field is missing.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedConfiguration is returned for a structurally valid
	// combination the calculators have no model for.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
)

// InvalidInputf wraps ErrInvalidInput with a formatted reason
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("probset: %s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Unsupportedf wraps ErrUnsupportedConfiguration with a formatted reason
func Unsupportedf(format string, args ...interface{}) error {
	return fmt.Errorf("probset: %s: %w", fmt.Sprintf(format, args...), ErrUnsupportedConfiguration)
}
