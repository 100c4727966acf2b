package apperr

import "errors"

// Domain errors shared across repositories and services. Handlers map these
// to HTTP statuses; everything else wraps them with %w and context.
var (
	// ErrInvalidPayload marks a malformed or incomplete request. Recoverable
	// by resubmission.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotFound marks a missing product, variant, category or transaction.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyReviewed marks a stale decision against a transaction that
	// already left the Pending state. The caller should refresh.
	ErrAlreadyReviewed = errors.New("transaction already reviewed")

	// ErrInsufficientStock marks an OUT approval whose quantity exceeds the
	// variant's current stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateSKU marks a SKU collision, surfaced at the authoritative
	// write (unique index), not just the advisory pre-check.
	ErrDuplicateSKU = errors.New("sku already exists")

	// ErrDuplicateName marks a category name collision.
	ErrDuplicateName = errors.New("name already exists")
)
