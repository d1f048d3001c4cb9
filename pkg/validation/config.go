package validation

import (
	"cmp"
	"errors"
	"fmt"
	"time"
)

// FieldError is one rejected configuration value.
type FieldError struct {
	Section string
	Field   string
	Reason  string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %v", e.Section, e.Field, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ConfigValidator checks a configuration section field by field. Every
// failing field is kept, and Validate joins them.
type ConfigValidator struct {
	section string
	failed  []*FieldError
}

// NewConfigValidator starts a validator whose errors are prefixed with
// section.
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) *ConfigValidator {
	cv.failed = append(cv.failed, &FieldError{Section: cv.section, Field: field, Reason: fmt.Sprintf(format, args...)})
	return cv
}

func outside[T cmp.Ordered](value, lo, hi T) bool {
	return cmp.Less(value, lo) || cmp.Less(hi, value)
}

// Required rejects an empty string.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		return cv.fail(field, "required field is empty")
	}
	return cv
}

// RangeInt rejects values outside [lo, hi].
func (cv *ConfigValidator) RangeInt(field string, value, lo, hi int) *ConfigValidator {
	if outside(value, lo, hi) {
		return cv.fail(field, "value %d is outside range [%d, %d]", value, lo, hi)
	}
	return cv
}

// RangeDuration rejects durations outside [lo, hi].
func (cv *ConfigValidator) RangeDuration(field string, value, lo, hi time.Duration) *ConfigValidator {
	if outside(value, lo, hi) {
		return cv.fail(field, "duration %v is outside range [%v, %v]", value, lo, hi)
	}
	return cv
}

func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value < 0 {
		return cv.fail(field, "value %d must be non-negative", value)
	}
	return cv
}

// OpenRangeFloat requires lo < value < hi. NaN always fails.
func (cv *ConfigValidator) OpenRangeFloat(field string, value, lo, hi float64) *ConfigValidator {
	if !(value > lo && value < hi) {
		return cv.fail(field, "value %g is outside range (%g, %g)", value, lo, hi)
	}
	return cv
}

func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	return cv.fail(field, "value %q must be one of %v", value, allowed)
}

// Custom records the error returned by check, if any. The error stays
// reachable through errors.Is and errors.As.
func (cv *ConfigValidator) Custom(field string, check func() error) *ConfigValidator {
	if err := check(); err != nil {
		cv.failed = append(cv.failed, &FieldError{Section: cv.section, Field: field, Err: err})
	}
	return cv
}

// When runs validations only if cond holds.
func (cv *ConfigValidator) When(cond bool, validations func(*ConfigValidator)) *ConfigValidator {
	if cond {
		validations(cv)
	}
	return cv
}

func (cv *ConfigValidator) HasErrors() bool { return len(cv.failed) > 0 }

// Errors returns the failures in the order they were found.
func (cv *ConfigValidator) Errors() []*FieldError { return cv.failed }

// Validate joins every failure into one error, or returns nil.
func (cv *ConfigValidator) Validate() error {
	errs := make([]error, len(cv.failed))
	for i, fe := range cv.failed {
		errs[i] = fe
	}
	return errors.Join(errs...)
}

// DefaultOr returns value unless it is the zero value.
func DefaultOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

// DefaultOrInt returns value if it is positive, otherwise fallback.
func DefaultOrInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// DefaultOrDuration returns value if it is positive, otherwise fallback.
func DefaultOrDuration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
