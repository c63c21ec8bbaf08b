/*
engine.go - Single-entry creation and bulk depreciation operations

PURPOSE:
  The write side of the ledger. One function creates the next entry for an
  asset (with every invariant checked); every bulk operation is a thin loop
  over it with its own stopping condition and safety bound.

CREATION RULES:
  - The target sequence is ALWAYS lastSequence+1. Callers never pick one.
  - amount = acquisitionValue / usefulLifeMonths, rounded to cents. The
    final period absorbs the rounding drift: its amount is adjusted so
    cumulative depreciation lands on the acquisition value exactly and
    book value on zero.
  - Each creation runs inside a store transaction; a unique-constraint
    violation from a concurrent writer surfaces as OutcomeAlreadyExists,
    not a hard failure.

BULK SEMANTICS:
  Entries are durably created one at a time. When a step fails the loop
  stops, progress made so far is retained, and BatchResult reports both
  the processed count and the terminating reason. Nothing is rolled back
  across the batch and nothing is auto-retried.

SEE ALSO:
  - period.go: Due-date and eligibility rules
  - projection.go: Read models layered on the same ledger
*/
package depreciation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Store TxStore
}

func NewEngine(store TxStore) *Engine {
	return &Engine{Store: store}
}

// generateNBound is the hard per-request cap enforced at the API boundary.
// The engine itself never passes the asset's useful life regardless of N.
const generateNBound = 60

// =============================================================================
// SINGLE-ENTRY CREATION
// =============================================================================

// createNext appends the next ledger entry for the asset using the given
// store view. It assumes the caller already holds a transaction.
func (e *Engine) createNext(ctx context.Context, s Store, a *Asset, today Date) CreateResult {
	if err := a.Validate(); err != nil {
		return CreateResult{Outcome: OutcomeRejected, Err: err}
	}
	if !a.Status.Eligible() {
		return CreateResult{Outcome: OutcomeRejected, Err: &EligibilityError{AssetID: a.ID, Status: a.Status}}
	}

	entries, err := s.Entries(ctx, a.ID)
	if err != nil {
		return CreateResult{Outcome: OutcomeRejected, Err: err}
	}
	if err := verifyLedger(a.ID, entries); err != nil {
		// A broken sequence run means something bypassed the engine.
		// Abort this creation rather than appending onto a corrupt ledger.
		return CreateResult{Outcome: OutcomeRejected, Err: err}
	}

	lastSeq := 0
	lastCumulative := decimal.Zero
	if n := len(entries); n > 0 {
		lastSeq = entries[n-1].Sequence
		lastCumulative = entries[n-1].Cumulative
	}

	next := lastSeq + 1
	if next > a.UsefulLifeMonths {
		return CreateResult{Outcome: OutcomeRejected, Err: ErrUsefulLifeExhausted}
	}

	amount := a.MonthlyAmount()
	cumulative := lastCumulative.Add(amount)
	if next == a.UsefulLifeMonths || cumulative.GreaterThan(a.AcquisitionValue) {
		// Final-period rounding: absorb the per-period rounding drift in
		// either direction so the ledger conserves the acquisition value
		// exactly.
		amount = a.AcquisitionValue.Sub(lastCumulative)
		cumulative = a.AcquisitionValue
	}
	bookValue := a.AcquisitionValue.Sub(cumulative)
	if bookValue.IsNegative() {
		bookValue = decimal.Zero
	}

	entry := Entry{
		ID:         NewEntryID(),
		AssetID:    a.ID,
		Sequence:   next,
		Amount:     amount,
		Cumulative: cumulative,
		BookValue:  bookValue,
		PeriodDate: PeriodDate(a, next),
		CreatedAt:  today,
	}

	if err := s.AppendEntry(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicatePeriod) {
			return CreateResult{Outcome: OutcomeAlreadyExists}
		}
		return CreateResult{Outcome: OutcomeRejected, Err: err}
	}
	return CreateResult{Outcome: OutcomeInserted, Entry: &entry}
}

// createNextTx runs one creation in its own transaction.
func (e *Engine) createNextTx(ctx context.Context, a *Asset, today Date) CreateResult {
	var result CreateResult
	err := e.Store.WithTx(ctx, func(s Store) error {
		result = e.createNext(ctx, s, a, today)
		return nil
	})
	if err != nil {
		return CreateResult{Outcome: OutcomeRejected, Err: err}
	}
	return result
}

// verifyLedger checks the contiguous 1..N sequence invariant.
func verifyLedger(assetID AssetID, entries []Entry) error {
	for i, entry := range entries {
		if entry.Sequence != i+1 {
			return &SequenceConflictError{AssetID: assetID, Expected: i + 1, Found: entry.Sequence}
		}
	}
	return nil
}

// GenerateNext creates exactly one entry for the asset, ignoring the
// calendar: the manual rule only requires an eligible status and remaining
// periods, so an operator can force-advance ahead of the due date.
func (e *Engine) GenerateNext(ctx context.Context, assetID AssetID, today Date) (*Entry, error) {
	a, err := e.Store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	result := e.createNextTx(ctx, a, today)
	switch result.Outcome {
	case OutcomeInserted:
		return result.Entry, nil
	case OutcomeAlreadyExists:
		return nil, ErrDuplicatePeriod
	default:
		return nil, result.Err
	}
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// checkBulkPreconditions loads the asset and rejects operations that
// cannot do anything at all. Bulk loops must not start on an ineligible
// or misconfigured asset.
func (e *Engine) checkBulkPreconditions(ctx context.Context, assetID AssetID) (*Asset, error) {
	a, err := e.Store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if !a.Status.Eligible() {
		return nil, &EligibilityError{AssetID: a.ID, Status: a.Status}
	}
	return a, nil
}

// stepOutcome folds one CreateResult into the running batch and reports
// whether the loop should stop. Used identically by every bulk loop.
func stepOutcome(batch *BatchResult, result CreateResult) bool {
	switch result.Outcome {
	case OutcomeInserted:
		batch.Processed++
		return false
	case OutcomeAlreadyExists:
		batch.Reason = StopDuplicate
		return true
	default:
		if errors.Is(result.Err, ErrUsefulLifeExhausted) {
			batch.Reason = StopLifeExhausted
		} else {
			batch.Reason = StopError
			batch.Err = result.Err
		}
		return true
	}
}

// CatchUp creates every period that is due but not yet recorded as of
// today. Bounded by the useful life as a hard cap so a date-math defect
// can never loop forever.
func (e *Engine) CatchUp(ctx context.Context, assetID AssetID, today Date) (*BatchResult, error) {
	a, err := e.checkBulkPreconditions(ctx, assetID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{AssetID: a.ID, Reason: StopCaughtUp}
	last, err := e.Store.LastEntry(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	lastSeq := 0
	if last != nil {
		lastSeq = last.Sequence
	}

	for i := 0; i < a.UsefulLifeMonths; i++ {
		if PendingPeriods(a, lastSeq, today) == 0 {
			batch.Reason = StopCaughtUp
			break
		}
		if done := stepOutcome(batch, e.createNextTx(ctx, a, today)); done {
			break
		}
		lastSeq++
	}
	return batch, nil
}

// GenerateN creates up to n entries. The API boundary enforces
// 1 <= n <= 60; the engine additionally refuses to pass the useful life
// whatever n says.
func (e *Engine) GenerateN(ctx context.Context, assetID AssetID, n int, today Date) (*BatchResult, error) {
	a, err := e.checkBulkPreconditions(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		n = 1
	}
	if n > generateNBound {
		n = generateNBound
	}

	batch := &BatchResult{AssetID: a.ID, Reason: StopCountReached}
	for i := 0; i < n; i++ {
		if done := stepOutcome(batch, e.createNextTx(ctx, a, today)); done {
			break
		}
	}
	return batch, nil
}

// UntilZero creates entries until the book value reaches zero. The final
// period's clamping guarantees termination at or before the useful life.
func (e *Engine) UntilZero(ctx context.Context, assetID AssetID, today Date) (*BatchResult, error) {
	a, err := e.checkBulkPreconditions(ctx, assetID)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{AssetID: a.ID, Reason: StopZeroReached}
	book, err := e.currentBookValue(ctx, a)
	if err != nil {
		return nil, err
	}

	for i := 0; i < a.UsefulLifeMonths; i++ {
		if !book.IsPositive() {
			batch.Reason = StopZeroReached
			break
		}
		result := e.createNextTx(ctx, a, today)
		if done := stepOutcome(batch, result); done {
			break
		}
		book = result.Entry.BookValue
	}
	return batch, nil
}

// UntilValue creates entries until the book value first reaches or drops
// below target. It never splits a period to land on the target exactly;
// it stops at the first whole period at or under it.
func (e *Engine) UntilValue(ctx context.Context, assetID AssetID, target decimal.Decimal, today Date) (*BatchResult, error) {
	a, err := e.checkBulkPreconditions(ctx, assetID)
	if err != nil {
		return nil, err
	}

	book, err := e.currentBookValue(ctx, a)
	if err != nil {
		return nil, err
	}
	if target.IsNegative() || target.GreaterThanOrEqual(book) {
		return nil, ErrInvalidTarget
	}

	batch := &BatchResult{AssetID: a.ID, Reason: StopTargetReached}
	for i := 0; i < a.UsefulLifeMonths; i++ {
		if book.LessThanOrEqual(target) {
			batch.Reason = StopTargetReached
			break
		}
		result := e.createNextTx(ctx, a, today)
		if done := stepOutcome(batch, result); done {
			break
		}
		book = result.Entry.BookValue
	}
	return batch, nil
}

// Reset deletes the asset's whole ledger. The surrounding registry decides
// when to offer this (after critical field edits); the engine only
// executes it. Returns the number of entries removed.
func (e *Engine) Reset(ctx context.Context, assetID AssetID) (int, error) {
	if _, err := e.Store.GetAsset(ctx, assetID); err != nil {
		return 0, err
	}
	var removed int
	err := e.Store.WithTx(ctx, func(s Store) error {
		var err error
		removed, err = s.ResetEntries(ctx, assetID)
		return err
	})
	return removed, err
}

// =============================================================================
// SYSTEM-WIDE CATCH-UP
// =============================================================================

// RunAllResult aggregates a catch-up pass over every eligible asset.
type RunAllResult struct {
	TotalProcessed int
	AssetsTouched  int
	Results        []BatchResult
}

// RunAll applies CatchUp to every eligible, well-configured asset.
// Per-asset failures don't stop the pass; each asset's outcome is
// reported individually.
func (e *Engine) RunAll(ctx context.Context, today Date) (*RunAllResult, error) {
	assets, err := e.Store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}

	out := &RunAllResult{}
	for _, a := range assets {
		if !a.Status.Eligible() || a.Validate() != nil {
			continue
		}
		batch, err := e.CatchUp(ctx, a.ID, today)
		if err != nil {
			out.Results = append(out.Results, BatchResult{AssetID: a.ID, Reason: StopError, Err: err})
			continue
		}
		out.Results = append(out.Results, *batch)
		out.TotalProcessed += batch.Processed
		if batch.Processed > 0 {
			out.AssetsTouched++
		}
	}
	return out, nil
}

// currentBookValue reads the latest book value, falling back to the
// acquisition value when the ledger is empty.
func (e *Engine) currentBookValue(ctx context.Context, a *Asset) (decimal.Decimal, error) {
	last, err := e.Store.LastEntry(ctx, a.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if last == nil {
		return a.AcquisitionValue, nil
	}
	return last.BookValue, nil
}
