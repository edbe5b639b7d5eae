package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var localNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidationError represents a field-level validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return ve.Errors[0].Message
	}
	return fmt.Sprintf("validation failed with %d errors", len(ve.Errors))
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// Validator provides common validation methods
type Validator struct {
	errors ValidationErrors
}

// New creates a new Validator instance
func New() *Validator {
	return &Validator{
		errors: ValidationErrors{Errors: []ValidationError{}},
	}
}

// Required validates that a field is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, fmt.Sprintf("%s is required", field))
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, fmt.Sprintf("%s must not exceed %d characters", field, max))
	}
	return v
}

// GitURL validates that a string is a valid Git repository URL
func (v *Validator) GitURL(field, value string) *Validator {
	if value == "" {
		return v
	}

	// Support HTTP(S) and SSH Git URLs
	httpPattern := regexp.MustCompile(`^https?://[^/]+/.+\.git$|^https?://[^/]+/.+$`)
	sshPattern := regexp.MustCompile(`^[A-Za-z0-9._-]+@[^:]+:.+$|^ssh://([^@/]+@)?[^/]+/.+$`)

	if !httpPattern.MatchString(value) && !sshPattern.MatchString(value) {
		v.errors.Add(field, fmt.Sprintf("%s must be a valid Git repository URL (HTTP(S) or SSH)", field))
	}
	return v
}

// InRange validates that an integer is within a range
func (v *Validator) InRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors.Add(field, fmt.Sprintf("%s must be between %d and %d", field, min, max))
	}
	return v
}

// GreaterThanOrEqual validates that an integer is greater than or equal to a minimum
func (v *Validator) GreaterThanOrEqual(field string, value, min int) *Validator {
	if value < min {
		v.errors.Add(field, fmt.Sprintf("%s must be greater than or equal to %d", field, min))
	}
	return v
}

// FloatInRange validates that a float is within a range, bounds inclusive
func (v *Validator) FloatInRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.errors.Add(field, fmt.Sprintf("%s must be between %g and %g", field, min, max))
	}
	return v
}

// NotEmpty validates that a list has at least one element
func (v *Validator) NotEmpty(field string, values []string) *Validator {
	if len(values) == 0 {
		v.errors.Add(field, fmt.Sprintf("%s must not be empty", field))
	}
	return v
}

// LocalName validates a clone name: a single path element of letters, digits,
// dots, dashes and underscores that does not start with a dot
func (v *Validator) LocalName(field, value string) *Validator {
	if value == "" {
		return v
	}

	if !localNamePattern.MatchString(value) || !filepath.IsLocal(value) {
		v.errors.Add(field, fmt.Sprintf("%s must be a single path element of letters, digits, '.', '-' or '_'", field))
	}
	return v
}

// Matches validates that a string matches a regex pattern
func (v *Validator) Matches(field, value, pattern, message string) *Validator {
	if value == "" {
		return v
	}

	matched, err := regexp.MatchString(pattern, value)
	if err != nil || !matched {
		if message == "" {
			message = fmt.Sprintf("%s format is invalid", field)
		}
		v.errors.Add(field, message)
	}
	return v
}

// Custom allows for custom validation logic
func (v *Validator) Custom(field string, fn func() error) *Validator {
	if err := fn(); err != nil {
		v.errors.Add(field, err.Error())
	}
	return v
}

// Validate returns the validation errors if any exist
func (v *Validator) Validate() error {
	if v.errors.HasErrors() {
		return &v.errors
	}
	return nil
}
