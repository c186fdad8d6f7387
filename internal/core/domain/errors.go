package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors. Adapters wrap their
// failures with the matching sentinel so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested source document or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProvider indicates an embedding provider call failed
	// (network, auth, rate limit). The whole operation is aborted;
	// there is no partial result and no automatic retry.
	ErrProvider = errors.New("embedding provider error")

	// ErrStore indicates a persistence call failed.
	ErrStore = errors.New("knowledge store error")

	// ErrMalformedInput indicates an unreadable or corrupt document,
	// or a document whose extracted text is empty.
	ErrMalformedInput = errors.New("malformed input")

	// ErrConfig indicates invalid processing parameters
	// (e.g. chunk overlap >= chunk size). Rejected before any I/O.
	ErrConfig = errors.New("invalid configuration")
)
