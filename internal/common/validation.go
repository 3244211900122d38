package common

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Error returns the collected failures as a VALIDATION AppError, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("VALIDATION", v.ErrorMessage(), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func stringOf(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	if str, ok := stringOf(value); ok && strings.TrimSpace(str) == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	if p, ok := value.(*string); ok && p == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// MaxLength rejects strings longer than max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := stringOf(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// OneOf accepts only the listed strings.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := stringOf(value)
		if !ok {
			return nil
		}
		for _, a := range allowed {
			if str == a {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")),
		}
	}
}

// Between accepts numbers in [lo, hi]. Numeric strings are parsed; nil pointers pass.
func Between(lo, hi float64) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		var f float64
		switch v := value.(type) {
		case nil:
			return nil
		case float64:
			f = v
		case *float64:
			if v == nil {
				return nil
			}
			f = *v
		case string:
			if strings.TrimSpace(v) == "" {
				return nil
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return &ValidationError{Field: fieldName, Value: value, Message: "must be a number"}
			}
			f = parsed
		default:
			return &ValidationError{Field: fieldName, Value: value, Message: "must be a number"}
		}
		if f < lo || f > hi {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be between %g and %g", lo, hi),
			}
		}
		return nil
	}
}

// InvalidArgumentError wraps message as a caller-input failure.
func InvalidArgumentError(message string) error {
	return NewAppError("INVALID_ARGUMENT", message, ErrInvalidInput)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// NotFoundError wraps message as a missing-resource failure.
func NotFoundError(message string) error {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}

func NotFoundErrorf(format string, args ...interface{}) error {
	return NotFoundError(fmt.Sprintf(format, args...))
}

// UnsupportedErrorf reports a document the pipeline cannot read.
func UnsupportedErrorf(format string, args ...interface{}) error {
	return NewAppError("UNSUPPORTED", fmt.Sprintf(format, args...), ErrUnsupported)
}
