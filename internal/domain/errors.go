package domain

import "errors"

// Sentinel errors shared across adapters, the price router, and the
// analytics engine. Callers check with errors.Is, never string matching.
var (
	// ErrNotFound is returned by store lookups when a row does not exist.
	ErrNotFound = errors.New("domain: not found")

	// ErrPriceStale is returned by the price router when every source
	// failed and the caller must fall back to the last known trade
	// price. A stale price is a value (0), never a crash.
	ErrPriceStale = errors.New("domain: price unavailable, stale")

	// ErrSourceExhausted names a source whose failure counter reached
	// its cap. The price router skips such a source without returning
	// this error.
	ErrSourceExhausted = errors.New("domain: source exhausted its failure budget")

	// ErrAlreadyRunning names a job id that is already executing. The
	// scheduler skips an overlapping run through cron's
	// SkipIfStillRunning chain and does not return this error.
	ErrAlreadyRunning = errors.New("scheduler: job already running")

	// ErrInvalidInput marks a request that failed basic shape
	// validation before reaching any store or pipeline logic.
	ErrInvalidInput = errors.New("domain: invalid input")
)
