package tx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode categorizes operation and batch errors.
type ErrorCode string

const (
	// ErrCodeInvalidTemporalRange: a validity window with start >= end.
	ErrCodeInvalidTemporalRange ErrorCode = "INVALID_TEMPORAL_RANGE"

	// ErrCodeMissingIdentity: a zero document or identity.
	ErrCodeMissingIdentity ErrorCode = "MISSING_IDENTITY"

	// ErrCodeIdentityMismatch: a Match whose expected document has another identity.
	ErrCodeIdentityMismatch ErrorCode = "IDENTITY_MISMATCH"

	// ErrCodeInvalidArgument: an Fn argument that cannot be canonically encoded.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeEmptyTransaction: Build on a builder with no operations.
	ErrCodeEmptyTransaction ErrorCode = "EMPTY_TRANSACTION"

	// ErrCodeConflictingIdentity: overlapping Put/Delete windows for one identity.
	ErrCodeConflictingIdentity ErrorCode = "CONFLICTING_IDENTITY"

	// ErrCodeBuilderFrozen: Append or Build after Build.
	ErrCodeBuilderFrozen ErrorCode = "BUILDER_ALREADY_FROZEN"

	// ErrCodeNilOperation: Append(nil).
	ErrCodeNilOperation ErrorCode = "NIL_OPERATION"
)

// Error is the error type for every failure raised by operation
// construction and batch assembly.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the operation variant involved, if any.
	Kind Kind

	// Identity is the document identity involved, if any.
	Identity string

	// Positions are the batch positions involved (batch errors only).
	Positions []int
}

// Sentinels for errors.Is. They match any *Error with the same Code.
var (
	ErrInvalidTemporalRange = &Error{Code: ErrCodeInvalidTemporalRange}
	ErrMissingIdentity      = &Error{Code: ErrCodeMissingIdentity}
	ErrIdentityMismatch     = &Error{Code: ErrCodeIdentityMismatch}
	ErrInvalidArgument      = &Error{Code: ErrCodeInvalidArgument}
	ErrEmptyTransaction     = &Error{Code: ErrCodeEmptyTransaction}
	ErrConflictingIdentity  = &Error{Code: ErrCodeConflictingIdentity}
	ErrBuilderFrozen        = &Error{Code: ErrCodeBuilderFrozen}
	ErrNilOperation         = &Error{Code: ErrCodeNilOperation}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var ctx []string
	if e.Kind != 0 {
		ctx = append(ctx, "op="+e.Kind.String())
	}
	if e.Identity != "" {
		ctx = append(ctx, "id="+e.Identity)
	}
	if len(e.Positions) > 0 {
		pos := make([]string, len(e.Positions))
		for i, p := range e.Positions {
			pos[i] = strconv.Itoa(p)
		}
		ctx = append(ctx, "positions="+strings.Join(pos, ","))
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(ctx, ", "))
	}
	return b.String()
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsInvalidTemporalRange reports whether err is an invalid validity window.
func IsInvalidTemporalRange(err error) bool {
	return IsCode(err, ErrCodeInvalidTemporalRange)
}

// IsEmptyTransaction reports whether err is an empty batch.
func IsEmptyTransaction(err error) bool {
	return IsCode(err, ErrCodeEmptyTransaction)
}

// IsConflictingIdentity reports whether err is an overlapping-window conflict.
func IsConflictingIdentity(err error) bool {
	return IsCode(err, ErrCodeConflictingIdentity)
}

// IsBuilderFrozen reports whether err is a use of a frozen builder.
func IsBuilderFrozen(err error) bool {
	return IsCode(err, ErrCodeBuilderFrozen)
}

func newRangeError(kind Kind, identity string, start, end fmt.Stringer) *Error {
	return &Error{
		Code:     ErrCodeInvalidTemporalRange,
		Message:  fmt.Sprintf("start valid time %s must be before end valid time %s", start, end),
		Kind:     kind,
		Identity: identity,
	}
}

func newMissingIdentityError(kind Kind, what string) *Error {
	return &Error{
		Code:    ErrCodeMissingIdentity,
		Message: what + " is required",
		Kind:    kind,
	}
}
