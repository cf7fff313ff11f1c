package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTopK indicates a top-k value outside the allowed range.
	// Rejected before any provider call is made.
	ErrInvalidTopK = errors.New("top-k out of range")

	// ErrInvalidBudget indicates a non-positive context token budget.
	ErrInvalidBudget = errors.New("token budget must be positive")

	// ErrProviderUnavailable indicates an AI provider backend is
	// unreachable or misconfigured. Note operations continue with an
	// absent embedding; only AI-dependent features are affected.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRetrievalUnavailable indicates the query could not be embedded.
	// Retrieval without a query vector is meaningless, so the whole
	// search fails with this error.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the answer model is not
	// configured or the call failed. Note CRUD is unaffected.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrIndexInconsistency indicates the vector index and note store
	// disagree about a record. Treated as a missing candidate, never fatal.
	ErrIndexInconsistency = errors.New("vector index inconsistency")

	// ErrDimensionMismatch indicates a vector whose length does not match
	// the configured embedding dimension. Always a hard error, never a
	// silent truncation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
