package model

import "github.com/rotisserie/eris"

// Error classes shared across the assessment flow. Callers wrap these with
// eris and classify with errors.Is.
var (
	// ErrInvalidProfile marks input that failed schema validation.
	ErrInvalidProfile = eris.New("invalid patient profile")

	// ErrEstimator marks an estimator failure (missing artifact, schema mismatch).
	// It aborts the request.
	ErrEstimator = eris.New("estimator failure")

	// ErrUpstream marks a failed call to the narration service (transport error,
	// non-success status, timeout, open circuit).
	ErrUpstream = eris.New("narration service error")
)
