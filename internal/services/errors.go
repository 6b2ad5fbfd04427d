// internal/services/errors.go
package services

import "errors"

// Workflow error taxonomy. Handlers map these onto HTTP status codes; callers
// decide retryability from the kind of failure.
var (
	// ErrInvalidTransition means the requested status is not reachable from
	// the record's current status. Not retryable without correcting the call.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIncompleteCriteria means an approval was requested before all three
	// criteria scores were supplied.
	ErrIncompleteCriteria = errors.New("all criteria scores are required before approval")

	// ErrRejectionReasonRequired means a rejection was requested without a reason.
	ErrRejectionReasonRequired = errors.New("rejection reason is required")

	// ErrLedgerUnavailable means the notarization service could not be reached
	// or answered with a failure. Retryable.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerAnchoringFailed means the approval transition was aborted
	// because anchoring did not complete; the record is unchanged. Retryable.
	ErrLedgerAnchoringFailed = errors.New("ledger anchoring failed")

	// ErrConcurrentModification means the conditional write lost an optimistic
	// lock race. The caller should reread and retry.
	ErrConcurrentModification = errors.New("verification record was modified concurrently")

	// ErrDuplicateVerificationID means the store's uniqueness constraint on
	// the verification code fired. Should never happen; fatal integrity error.
	ErrDuplicateVerificationID = errors.New("duplicate verification id")

	// ErrRecordNotFound means no verification record exists for the given id.
	ErrRecordNotFound = errors.New("verification record not found")
)
