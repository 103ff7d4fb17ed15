package applications

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("application not found")
	ErrDuplicate   = errors.New("application already exists for client and job")
	ErrStaleStatus = errors.New("application status changed concurrently")
)

const (
	ErrorCodeDuplicate  = "duplicate_application"
	ErrorCodeValidation = "validation_error"
	ErrorCodeInternal   = "internal_error"
)

// InvalidTransitionError reports a rejected status transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite InvalidTransitionError
	return errors.As(err, &ite)
}
