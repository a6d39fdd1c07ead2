package streamledger

import (
	"errors"
	"fmt"
)

// Sentinel errors, grouped by the kind of failure they report.
var (
	// Validation errors
	ErrInvalidInput  = errors.New("streamledger: invalid input")
	ErrInvalidAmount = errors.New("streamledger: deposit amount must be positive")
	ErrInvalidRate   = errors.New("streamledger: rate per second must be positive")
	ErrSameParty     = errors.New("streamledger: sender and recipient must be different")
	ErrInvalidTimes  = errors.New("streamledger: invalid time bounds")
	ErrUnderfunded   = errors.New("streamledger: deposit does not cover rate times duration")
	ErrOverflow      = errors.New("streamledger: arithmetic overflow")

	// Authorization errors
	ErrUnauthorized = errors.New("streamledger: unauthorized")

	// State errors
	ErrAlreadyInitialized = errors.New("streamledger: already initialised")
	ErrStreamNotActive    = errors.New("streamledger: stream is not active")
	ErrStreamNotPaused    = errors.New("streamledger: stream is not paused")
	ErrStreamPaused       = errors.New("streamledger: cannot withdraw from paused stream")
	ErrStreamTerminal     = errors.New("streamledger: stream is completed or cancelled")
	ErrNothingToWithdraw  = errors.New("streamledger: nothing to withdraw")

	// Not-found errors
	ErrStreamNotFound = errors.New("streamledger: stream not found")

	// Uninitialized errors
	ErrNotInitialized = errors.New("streamledger: not initialised")

	// Insufficient-funds errors
	ErrInsufficientFunds = errors.New("streamledger: insufficient funds")

	// Store errors
	ErrConflict    = errors.New("streamledger: concurrent allocation conflict")
	ErrStoreClosed = errors.New("streamledger: store is closed")
)

// ErrorKind is the class of a ledger error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindState
	KindNotFound
	KindUninitialized
	KindInsufficientFunds
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindUninitialized:
		return "uninitialized"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// ValidationError reports which creation parameter was rejected. Index is
// the position within a batch, or -1 for a single stream.
type ValidationError struct {
	Index   int
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("streamledger: validation failed for streams[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("streamledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the sentinel the failure maps to.
func (e ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidInput
	}
	return e.Err
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "streamledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("streamledger: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrOrNil returns nil when nothing was collected, the single error when
// one was, and the MultiError otherwise.
func (e MultiError) ErrOrNil() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}

// IsValidation returns true if creation parameters were rejected.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrSameParty) ||
		errors.Is(err, ErrInvalidTimes) ||
		errors.Is(err, ErrUnderfunded) ||
		errors.Is(err, ErrOverflow)
}

// IsUnauthorized returns true if the caller lacked the required role.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsStateError returns true if the operation is invalid for the current status.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized) ||
		errors.Is(err, ErrStreamNotActive) ||
		errors.Is(err, ErrStreamNotPaused) ||
		errors.Is(err, ErrStreamPaused) ||
		errors.Is(err, ErrStreamTerminal) ||
		errors.Is(err, ErrNothingToWithdraw)
}

// IsAlreadyInitialized returns true if Init was called on a configured ledger.
func IsAlreadyInitialized(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStreamNotFound)
}

// IsUninitialized returns true if the ledger has no configuration yet.
func IsUninitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsInsufficientFunds returns true if a value transfer could not complete.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// KindOf classifies err. Authorization and funds take precedence over the
// other kinds.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case IsUnauthorized(err):
		return KindUnauthorized
	case IsInsufficientFunds(err):
		return KindInsufficientFunds
	case IsNotFound(err):
		return KindNotFound
	case IsUninitialized(err):
		return KindUninitialized
	case IsStateError(err):
		return KindState
	case IsValidation(err):
		return KindValidation
	case IsRetryable(err), errors.Is(err, ErrStoreClosed):
		return KindStore
	default:
		return KindUnknown
	}
}
