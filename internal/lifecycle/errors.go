package lifecycle

import (
	"errors"
	"fmt"
)

// Kind-level sentinels; every typed error below matches exactly one of them
// through errors.Is.
var (
	ErrIllegalTransition = errors.New("illegal transition")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidState      = errors.New("invalid state")
)

// IllegalTransitionError is returned when the requested status is not
// reachable from the current one under the deal's type policy.
type IllegalTransitionError struct {
	From     Status
	To       Status
	DealType DealType
	Reason   string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
	if e.DealType != InvalidDealType {
		msg += " for " + string(e.DealType) + " deal"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// ValidationError is returned for a missing or malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidStateError is returned when reviewing a content submission that has
// already been resolved, or one whose deal is closed.
type InvalidStateError struct {
	SubmissionID string
	State        string

	// DealStatus is set when the deal, not the submission, is closed.
	DealStatus Status
}

func (e *InvalidStateError) Error() string {
	if e.DealStatus != "" {
		return fmt.Sprintf("submission %s cannot be reviewed, deal is %s", e.SubmissionID, e.DealStatus)
	}
	return fmt.Sprintf("submission %s is already %s", e.SubmissionID, e.State)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

const (
	KindIllegalTransition = "illegal_transition"
	KindValidation        = "validation"
	KindInvalidState      = "invalid_state"
	KindInternal          = "internal"
)

// Kind classifies err for hosts that translate failures into responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrIllegalTransition):
		return KindIllegalTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	}
	return KindInternal
}
