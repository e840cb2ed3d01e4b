package core

import "errors"

// Repository errors. RepositoryClient implementations wrap their failures
// with these so callers can classify them with errors.Is.
var (
	ErrTransport           = errors.New("repository unavailable")
	ErrValidation          = errors.New("content or headers rejected by repository")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrNotFound            = errors.New("resource not found")
	ErrTransactionConflict = errors.New("transaction conflict")
)

// Composition outcomes.
var (
	// ErrContainerNotFound is a handled outcome: the parent has no container
	// for the requested relation. Nothing was created.
	ErrContainerNotFound = errors.New("membership container not found")

	// ErrCompositionFailed is the only error reported for a composing call
	// that owned its transaction and rolled it back. The underlying cause is
	// logged, not returned.
	ErrCompositionFailed = errors.New("composition failed")

	// ErrTransactionOwnership guards commit and rollback of a transaction
	// the current call did not open.
	ErrTransactionOwnership = errors.New("transaction not owned by this call")
)
