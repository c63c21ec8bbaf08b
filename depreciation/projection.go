/*
projection.go - Read models derived from the ledger

PURPOSE:
  Pure derivations over an asset plus its recorded entries. Nothing here
  writes; every shape is recomputed on demand from the ledger rows and the
  asset's current fields.

THE FOUR SHAPES:
  Summary:  the headline figures (monthly amount, accumulated, book value,
            periods done/remaining, completion percentage).
  Status:   Summary plus both advancement gates - the manual rule and the
            calendar-driven pending count. They are deliberately separate
            and can disagree (manual ignores the due date).
  Preview:  "as of today" figures computed from elapsed months alone,
            ignoring what has actually been recorded. Shows where the
            ledger SHOULD be without touching it.
  Schedule: forward simulation of the remaining periods, reusing the same
            amount/date formulas the engine writes with.

SEE ALSO:
  - engine.go: The write side these shapes describe
  - period.go: Due-date math shared with Schedule/Preview
*/
package depreciation

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the headline depreciation state of one asset.
type Summary struct {
	AssetID                 AssetID
	MonthlyDepreciation     decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	CurrentValue            decimal.Decimal
	DepreciatedPeriods      int
	RemainingPeriods        int
	NextPeriodDate          *Date // nil once the useful life is exhausted
	CompletionPercent       decimal.Decimal
	IsDepreciable           bool
}

// BuildSummary derives the summary from the asset and its ledger.
// Entries must be in ascending sequence order (as Store.Entries returns).
func BuildSummary(a *Asset, entries []Entry) Summary {
	accumulated := decimal.Zero
	current := a.AcquisitionValue
	depreciated := 0
	if n := len(entries); n > 0 {
		last := entries[n-1]
		accumulated = last.Cumulative
		current = last.BookValue
		depreciated = last.Sequence
	}

	remaining := a.UsefulLifeMonths - depreciated
	if remaining < 0 {
		remaining = 0
	}

	s := Summary{
		AssetID:                 a.ID,
		MonthlyDepreciation:     a.MonthlyAmount(),
		AccumulatedDepreciation: accumulated,
		CurrentValue:            current,
		DepreciatedPeriods:      depreciated,
		RemainingPeriods:        remaining,
		CompletionPercent:       completionPercent(accumulated, a.AcquisitionValue),
		IsDepreciable:           a.Status.Eligible() && remaining > 0,
	}
	if remaining > 0 {
		next := NextPeriodDate(a, depreciated)
		s.NextPeriodDate = &next
	}
	return s
}

func completionPercent(accumulated, acquisition decimal.Decimal) decimal.Decimal {
	if acquisition.IsZero() {
		return decimal.Zero
	}
	return accumulated.
		Div(acquisition).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// =============================================================================
// STATUS - Summary plus both advancement gates
// =============================================================================

// StatusReport extends Summary with the two (intentionally different)
// advancement checks.
type StatusReport struct {
	Summary

	// CanGenerateManual: the manual rule holds - eligible status, periods
	// remain. The calendar is not consulted.
	CanGenerateManual bool

	// PendingPeriods: how many calendar-due periods are unrecorded.
	PendingPeriods int

	// DueNow: the calendar gate for automatic advancement - the next
	// period date has arrived and today is past its month.
	DueNow bool
}

// BuildStatus derives the status report as of today.
func BuildStatus(a *Asset, entries []Entry, today Date) StatusReport {
	summary := BuildSummary(a, entries)
	return StatusReport{
		Summary:           summary,
		CanGenerateManual: CanGenerateManual(a, summary.DepreciatedPeriods),
		PendingPeriods:    PendingPeriods(a, summary.DepreciatedPeriods, today),
		DueNow:            a.Status.Eligible() && DueNow(a, summary.DepreciatedPeriods, today),
	}
}

// =============================================================================
// PREVIEW - "As of today", independent of recorded state
// =============================================================================

// Preview shows where the ledger would stand if every elapsed period had
// been recorded. It reads nothing from the actual ledger.
type Preview struct {
	AssetID               AssetID
	AsOf                  Date
	ElapsedMonths         int
	ExpectedPeriods       int
	ProjectedDepreciation decimal.Decimal
	ProjectedBookValue    decimal.Decimal
	CompletionPercent     decimal.Decimal
}

// BuildPreview computes the as-of-today projection from elapsed months
// alone.
func BuildPreview(a *Asset, today Date) Preview {
	expected := ExpectedPeriods(a, today)

	projected := a.MonthlyAmount().Mul(decimal.NewFromInt(int64(expected)))
	if expected >= a.UsefulLifeMonths || projected.GreaterThan(a.AcquisitionValue) {
		projected = a.AcquisitionValue
	}
	book := a.AcquisitionValue.Sub(projected)
	if book.IsNegative() {
		book = decimal.Zero
	}

	return Preview{
		AssetID:               a.ID,
		AsOf:                  today,
		ElapsedMonths:         ElapsedMonths(a, today),
		ExpectedPeriods:       expected,
		ProjectedDepreciation: projected,
		ProjectedBookValue:    book,
		CompletionPercent:     completionPercent(projected, a.AcquisitionValue),
	}
}

// =============================================================================
// SCHEDULE - Forward simulation of the remaining periods
// =============================================================================

// ScheduledPeriod is one hypothetical future ledger row.
type ScheduledPeriod struct {
	Sequence   int
	PeriodDate Date
	Amount     decimal.Decimal
	Cumulative decimal.Decimal
	BookValue  decimal.Decimal
}

// BuildSchedule projects the remaining periods, depreciated+1 through the
// useful life, without writing anything. The amounts and dates follow the
// exact formulas the engine uses, including the final-period clamp.
func BuildSchedule(a *Asset, entries []Entry) []ScheduledPeriod {
	cumulative := decimal.Zero
	from := 0
	if n := len(entries); n > 0 {
		cumulative = entries[n-1].Cumulative
		from = entries[n-1].Sequence
	}

	monthly := a.MonthlyAmount()
	var schedule []ScheduledPeriod
	for seq := from + 1; seq <= a.UsefulLifeMonths; seq++ {
		amount := monthly
		next := cumulative.Add(amount)
		if seq == a.UsefulLifeMonths || next.GreaterThan(a.AcquisitionValue) {
			amount = a.AcquisitionValue.Sub(cumulative)
			next = a.AcquisitionValue
		}
		cumulative = next
		book := a.AcquisitionValue.Sub(cumulative)
		if book.IsNegative() {
			book = decimal.Zero
		}
		schedule = append(schedule, ScheduledPeriod{
			Sequence:   seq,
			PeriodDate: PeriodDate(a, seq),
			Amount:     amount,
			Cumulative: cumulative,
			BookValue:  book,
		})
	}
	return schedule
}

// =============================================================================
// ENGINE ACCESSORS - Load from the store, delegate to the pure builders
// =============================================================================

func (e *Engine) Summary(ctx context.Context, assetID AssetID) (*Summary, error) {
	a, entries, err := e.loadLedger(ctx, assetID)
	if err != nil {
		return nil, err
	}
	s := BuildSummary(a, entries)
	return &s, nil
}

func (e *Engine) Status(ctx context.Context, assetID AssetID, today Date) (*StatusReport, error) {
	a, entries, err := e.loadLedger(ctx, assetID)
	if err != nil {
		return nil, err
	}
	s := BuildStatus(a, entries, today)
	return &s, nil
}

func (e *Engine) Preview(ctx context.Context, assetID AssetID, today Date) (*Preview, error) {
	a, err := e.Store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	p := BuildPreview(a, today)
	return &p, nil
}

func (e *Engine) Schedule(ctx context.Context, assetID AssetID) ([]ScheduledPeriod, error) {
	a, entries, err := e.loadLedger(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return BuildSchedule(a, entries), nil
}

func (e *Engine) loadLedger(ctx context.Context, assetID AssetID) (*Asset, []Entry, error) {
	a, err := e.Store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := e.Store.Entries(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	return a, entries, nil
}
