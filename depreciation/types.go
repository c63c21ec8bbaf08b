/*
Package depreciation provides the straight-line asset depreciation engine.

PURPOSE:
  This package owns the per-asset depreciation ledger: it computes which
  monthly periods are due from a purchase-date anchor, appends ledger
  entries one at a time with strict sequence invariants, and derives
  summary/status/preview/schedule projections without any stored state
  of their own.

KEY CONCEPTS IN THIS FILE (types.go):
  - Asset: The depreciable entity (value, useful life, purchase date, status)
  - Entry: An immutable ledger row recording one period of depreciation
  - Outcome: Tagged result of a single-entry creation attempt
  - AssetID/EntryID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Entries are never updated; corrections go through Reset
  2. Precision: Uses decimal.Decimal so the final period lands on zero exactly
  3. Determinism: The current date is always an explicit parameter, never an
     ambient clock read
  4. Contiguity: Entry sequences for an asset are exactly 1..N, no gaps,
     no duplicates

USAGE:
  asset := depreciation.Asset{
      ID:               depreciation.NewAssetID(),
      AcquisitionValue: decimal.NewFromInt(1200000),
      UsefulLifeMonths: 12,
      PurchaseDate:     depreciation.NewDate(2024, time.January, 15),
      Status:           depreciation.StatusActive,
  }
  engine := depreciation.NewEngine(store)
  result, err := engine.CatchUp(ctx, asset.ID, depreciation.DateOf(time.Now()))

SEE ALSO:
  - date.go: Calendar date type and month arithmetic with day clamping
  - period.go: Due-period calculation from the purchase-date anchor
  - engine.go: Single-entry creation and bulk operations
  - projection.go: Summary/Status/Preview/Schedule read models
*/
package depreciation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AssetID string
type EntryID string

func NewAssetID() AssetID { return AssetID(uuid.NewString()) }
func NewEntryID() EntryID { return EntryID(uuid.NewString()) }

// =============================================================================
// ASSET - The depreciable entity
// =============================================================================

// Status is the asset lifecycle state. Only active and in-repair assets
// are eligible for new depreciation entries; the terminal states keep
// their existing ledger but stop accruing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInRepair Status = "in_repair"
	StatusDisposed Status = "disposed"
	StatusLost     Status = "lost"
	StatusSold     Status = "sold"
)

// Eligible reports whether the lifecycle state permits further depreciation.
func (s Status) Eligible() bool {
	return s == StatusActive || s == StatusInRepair
}

// Asset carries the fields the engine needs. The surrounding registry may
// hold many more; edits to the critical fields (value, life, purchase date)
// do not retroactively alter recorded entries - that is an explicit
// Reset-then-regenerate workflow.
type Asset struct {
	ID               AssetID
	Name             string
	AcquisitionValue decimal.Decimal
	UsefulLifeMonths int
	PurchaseDate     Date
	Status           Status

	CreatedAt Date
}

// Validate checks the configuration invariants required before any
// depreciation can be computed.
func (a *Asset) Validate() error {
	if a.UsefulLifeMonths <= 0 {
		return &ConfigurationError{AssetID: a.ID, Field: "useful_life_months", Detail: "must be positive"}
	}
	if a.AcquisitionValue.IsNegative() {
		return &ConfigurationError{AssetID: a.ID, Field: "acquisition_value", Detail: "must not be negative"}
	}
	return nil
}

// MonthlyAmount is the standard straight-line period amount, rounded to
// cents. The final period may be smaller so cumulative depreciation lands
// on the acquisition value exactly.
func (a *Asset) MonthlyAmount() decimal.Decimal {
	if a.UsefulLifeMonths <= 0 {
		return decimal.Zero
	}
	return a.AcquisitionValue.
		Div(decimal.NewFromInt(int64(a.UsefulLifeMonths))).
		Round(2)
}

// =============================================================================
// ENTRY - Immutable ledger row, one per depreciated period
// =============================================================================

// Entry records one month of depreciation for an asset.
//
// INVARIANTS:
//   - Sequence values per asset are exactly 1..N (unique, contiguous)
//   - Cumulative is non-decreasing in sequence order
//   - BookValue = AcquisitionValue - Cumulative, floored at 0
//   - PeriodDate is the purchase date advanced Sequence months, with the
//     day-of-month clamped to the target month's last valid day
type Entry struct {
	ID         EntryID
	AssetID    AssetID
	Sequence   int
	Amount     decimal.Decimal
	Cumulative decimal.Decimal
	BookValue  decimal.Decimal
	PeriodDate Date
	CreatedAt  Date
}

// =============================================================================
// OUTCOME - Tagged result of a single-entry creation attempt
// =============================================================================

// Outcome tells bulk loops why a creation attempt did or did not advance.
// Modeling this explicitly (instead of catch-and-ignore on storage errors)
// lets callers branch without parsing error strings.
type Outcome string

const (
	// OutcomeInserted: the entry was appended.
	OutcomeInserted Outcome = "inserted"

	// OutcomeAlreadyExists: the storage layer reported a duplicate
	// (asset, sequence) pair - a concurrent request advanced the asset
	// first. Benign for the single attempt; bulk loops stop advancing.
	OutcomeAlreadyExists Outcome = "already_exists"

	// OutcomeRejected: a precondition failed (eligibility, exhausted life,
	// invalid configuration, ledger corruption). See CreateResult.Err.
	OutcomeRejected Outcome = "rejected"
)

// CreateResult is the result of one single-entry creation attempt.
type CreateResult struct {
	Outcome Outcome
	Entry   *Entry // set when Outcome == OutcomeInserted
	Err     error  // set when Outcome == OutcomeRejected
}

// =============================================================================
// STOP REASON - Why a bulk operation ended
// =============================================================================

type StopReason string

const (
	StopCaughtUp      StopReason = "caught_up"       // no pending periods remain
	StopLifeExhausted StopReason = "life_exhausted"  // next sequence would exceed useful life
	StopZeroReached   StopReason = "zero_reached"    // book value reached zero
	StopTargetReached StopReason = "target_reached"  // book value at or below target
	StopCountReached  StopReason = "count_reached"   // requested N entries created
	StopDuplicate     StopReason = "duplicate"       // concurrent writer advanced the asset
	StopError         StopReason = "error"           // creation failed, see Err
)

// BatchResult reports a bulk operation. Partial progress is always
// retained: Processed counts entries durably created before the loop
// stopped, whatever the reason.
type BatchResult struct {
	AssetID   AssetID
	Processed int
	Reason    StopReason
	Err       error // set when Reason == StopError
}
