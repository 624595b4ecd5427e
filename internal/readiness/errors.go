// internal/readiness/errors.go
package readiness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScoringCancelled is returned when the caller abandons a scoring call.
// No partial score is ever produced alongside it.
var ErrScoringCancelled = errors.New("readiness scoring cancelled")

// ValidationError reports caller input outside the declared vocabulary.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ValidationErrors collects every offending field of one request.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the offending field names in report order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, ve := range e {
		fields[i] = ve.Field
	}
	return fields
}

// InternalConsistencyError signals a component that broke its contract.
// It indicates a bug upstream of the aggregator and must not be swallowed.
type InternalConsistencyError struct {
	Component string
	Points    int
	MaxPoints int
	Reason    string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation in component %q (points=%d, max_points=%d): %s",
		e.Component, e.Points, e.MaxPoints, e.Reason)
}

// IsValidationError reports whether err carries caller-input validation failures.
func IsValidationError(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInternalConsistencyError reports whether err is a component contract violation.
func IsInternalConsistencyError(err error) bool {
	var ice *InternalConsistencyError
	return errors.As(err, &ice)
}
