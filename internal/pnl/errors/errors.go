package errors

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

// PolicyViolationError marks an operation that targets a category whose
// management policy does not allow it, e.g. a manual-ledger write against an
// auto-managed category. Kept distinct from validation so callers can render
// a specific remediation message.
type PolicyViolationError struct {
	Msg string
}

func (e *PolicyViolationError) Error() string {
	return e.Msg
}

func NewPolicyViolationError(msg string) error {
	return &PolicyViolationError{Msg: msg}
}

func IsPolicyViolationError(err error) bool {
	var policyError *PolicyViolationError
	ok := errors.As(err, &policyError)
	return ok
}

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Msg: msg}
}

func IsNotFoundError(err error) bool {
	var notFoundError *NotFoundError
	ok := errors.As(err, &notFoundError)
	return ok
}

type ReferentialIntegrityError struct {
	Msg string
}

func (e *ReferentialIntegrityError) Error() string {
	return e.Msg
}

func NewReferentialIntegrityError(msg string) error {
	return &ReferentialIntegrityError{Msg: msg}
}

func IsReferentialIntegrityError(err error) bool {
	var refError *ReferentialIntegrityError
	ok := errors.As(err, &refError)
	return ok
}

// UpstreamUnavailableError is soft: a transaction source or the exchange-rate
// lookup failed. During aggregation it is contained per category; direct
// manual-ledger writes surface it unmodified.
type UpstreamUnavailableError struct {
	Msg string
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

func NewUpstreamUnavailableError(msg string, err error) error {
	return &UpstreamUnavailableError{Msg: msg, Err: err}
}

func IsUpstreamUnavailableError(err error) bool {
	var upstreamError *UpstreamUnavailableError
	ok := errors.As(err, &upstreamError)
	return ok
}

// InvariantViolationError should never occur in a correct implementation but
// is checked anyway, e.g. a grand total that does not equal the sum of its
// category totals.
type InvariantViolationError struct {
	Msg string
}

func (e *InvariantViolationError) Error() string {
	return e.Msg
}

func NewInvariantViolationError(msg string) error {
	return &InvariantViolationError{Msg: msg}
}

func IsInvariantViolationError(err error) bool {
	var invariantError *InvariantViolationError
	ok := errors.As(err, &invariantError)
	return ok
}

var ErrCategoryNotFound = NewNotFoundError("Category not found")
var ErrEntryNotFound = NewNotFoundError("Manual ledger entry not found")
var ErrCategoryNotManual = NewPolicyViolationError("Category is not managed manually")
var ErrCategoryInUse = NewReferentialIntegrityError("Category is referenced by transactions or manual entries")
