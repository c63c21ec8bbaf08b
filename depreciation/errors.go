/*
errors.go - Centralized error types for the depreciation engine

PURPOSE:
  All engine error kinds in one place. Callers branch with errors.Is on
  the sentinels; the structured types carry asset/sequence context and
  Unwrap to them.

ERROR CATEGORIES:
  1. Precondition failures - eligibility, configuration, targets
  2. Terminal non-failures - exhausted useful life ("nothing to do")
  3. Ledger integrity - duplicate or out-of-order sequences

RETRY POLICY:
  Nothing in this package is auto-retried. A duplicate period means a
  concurrent writer already advanced the asset; everything else needs a
  caller-side change (status, configuration, target) before retrying.

SEE ALSO:
  - engine.go: Returns these from creation and bulk operations
  - store/sqlite: Maps unique-constraint violations to ErrDuplicatePeriod
*/
package depreciation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAssetNotEligible is returned when the lifecycle status excludes
	// depreciation (disposed, lost, sold). Not retryable until the status
	// changes.
	ErrAssetNotEligible = errors.New("asset not eligible for depreciation")

	// ErrUsefulLifeExhausted is returned when the next sequence would
	// exceed the useful life. Terminal for the asset but not a failure:
	// there is simply nothing left to depreciate.
	ErrUsefulLifeExhausted = errors.New("useful life exhausted")

	// ErrDuplicatePeriod is returned by the storage layer when an entry
	// for the same (asset, sequence) pair already exists. Treated as a
	// benign "someone else already advanced this asset" signal.
	ErrDuplicatePeriod = errors.New("duplicate depreciation period")

	// ErrInvalidTarget is returned when an until-value target is not
	// strictly below the current book value (or is negative).
	ErrInvalidTarget = errors.New("target value must be below current book value")

	// ErrInvalidConfiguration is returned when the asset itself cannot be
	// depreciated (non-positive useful life, negative acquisition value).
	ErrInvalidConfiguration = errors.New("invalid depreciation configuration")

	// ErrSequenceConflict indicates a corrupted ledger: sequences are not
	// a contiguous 1..N run. Fatal for that creation; the engine aborts
	// rather than appending on top of a broken ledger.
	ErrSequenceConflict = errors.New("ledger sequence conflict")

	// ErrAssetNotFound is returned when the referenced asset doesn't exist.
	ErrAssetNotFound = errors.New("asset not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EligibilityError reports which status blocked depreciation.
type EligibilityError struct {
	AssetID AssetID
	Status  Status
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("asset %s not eligible: status %s", e.AssetID, e.Status)
}

func (e *EligibilityError) Unwrap() error { return ErrAssetNotEligible }

// ConfigurationError reports which asset field makes depreciation
// impossible to compute.
type ConfigurationError struct {
	AssetID AssetID
	Field   string
	Detail  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("asset %s: %s %s", e.AssetID, e.Field, e.Detail)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// SequenceConflictError reports a ledger whose recorded sequences are not
// the contiguous run the engine expected.
type SequenceConflictError struct {
	AssetID  AssetID
	Expected int
	Found    int
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("asset %s ledger conflict: expected sequence %d, found %d", e.AssetID, e.Expected, e.Found)
}

func (e *SequenceConflictError) Unwrap() error { return ErrSequenceConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNothingToDo returns true for outcomes that mean "no entry was needed",
// as opposed to genuine failures.
func IsNothingToDo(err error) bool {
	return errors.Is(err, ErrUsefulLifeExhausted) ||
		errors.Is(err, ErrDuplicatePeriod)
}

// IsClientError returns true if the error is due to the caller's input or
// the asset's current state rather than an internal fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAssetNotEligible) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrAssetNotFound)
}
