package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the error type carried through the application. It wraps a
// cause (cockroachdb/errors chain), an operator hint safe to surface to API
// consumers, and optional structured details for reporting.
type InternalError struct {
	cause             error
	hint              string
	reportableDetails map[string]interface{}
	mark              error
}

// ErrorBuilder builds an InternalError fluently:
//
//	ierr.NewError("grace entry not found").
//		WithHint("Member is not in a grace period").
//		WithReportableDetails(map[string]interface{}{"member_id": id}).
//		Mark(ierr.ErrNotFound)
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder from a new error message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: errors.New(msg)},
	}
}

// NewErrorf starts a builder from a formatted error message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: errors.Newf(format, args...)},
	}
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err: &InternalError{cause: err},
	}
}

// WithHint attaches a human-readable hint surfaced to API consumers.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details for logs and API payloads.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.reportableDetails = details
	return b
}

// Mark finalizes the builder, marking the error with one of the sentinel
// errors so errors.Is matches it.
func (b *ErrorBuilder) Mark(mark error) error {
	b.err.mark = mark
	b.err.cause = errors.Mark(b.err.cause, mark)
	return b.err
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the hint attached to the error, if any.
func Hint(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.hint
	}
	return ""
}

// ReportableDetails returns the structured details attached to the error, if any.
func ReportableDetails(err error) map[string]interface{} {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.reportableDetails
	}
	return nil
}
