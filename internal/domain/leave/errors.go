package leave

import (
	"errors"
	"fmt"
)

// Sentinel errors, used with errors.Is. Structured variants below wrap
// these and carry the context needed to render a user-facing reason.
var (
	ErrUnknownLeaveType = errors.New("unknown leave type")
	ErrAdvanceNotice    = errors.New("advance notice too short")
	ErrAlreadyOnLeave   = errors.New("requester is currently on leave")
	ErrDateConflict     = errors.New("date range conflicts with an existing request")
	ErrDocumentRequired = errors.New("supporting document required")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyFinalized = errors.New("request already finalized")
	ErrNotFound         = errors.New("leave request not found")
	ErrValidation       = errors.New("invalid request")
	ErrStoreUnavailable = errors.New("record store unavailable")
)

type AdvanceNoticeError struct {
	Category      Category
	RequiredHours int
	ActualHours   int
}

func (e *AdvanceNoticeError) Error() string {
	return fmt.Sprintf("%s leave requires %d hours advance notice; starts in %d hours",
		e.Category.Code, e.RequiredHours, e.ActualHours)
}

func (e *AdvanceNoticeError) Unwrap() error { return ErrAdvanceNotice }

type AlreadyOnLeaveError struct {
	Active Request
}

func (e *AlreadyOnLeaveError) Error() string {
	return fmt.Sprintf("an approved %s leave is active from %s to %s; new requests are blocked until it ends",
		e.Active.Category.Code,
		e.Active.StartDate.Format("2006-01-02"),
		e.Active.EndDate.Format("2006-01-02"))
}

func (e *AlreadyOnLeaveError) Unwrap() error { return ErrAlreadyOnLeave }

type DateConflictError struct {
	With Request
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("dates overlap a %s request from %s to %s",
		e.With.Status,
		e.With.StartDate.Format("2006-01-02"),
		e.With.EndDate.Format("2006-01-02"))
}

func (e *DateConflictError) Unwrap() error { return ErrDateConflict }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPolicyViolation reports whether the error is a business-rule rejection
// that should be rendered to the end user verbatim.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrAdvanceNotice) ||
		errors.Is(err, ErrAlreadyOnLeave) ||
		errors.Is(err, ErrDateConflict) ||
		errors.Is(err, ErrDocumentRequired)
}
