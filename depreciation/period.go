/*
period.go - Due-period calculation from the purchase-date anchor

PURPOSE:
  Answers the scheduling questions: how many periods have elapsed since
  purchase, how many are recorded, when does the next one become due, and
  is the asset allowed to advance right now.

TWO ELIGIBILITY RULES (intentionally distinct):
  Automatic (calendar-driven, used by catch-up and the scheduler):
    today >= nextPeriodDate AND today's year-month differs from
    nextPeriodDate's year-month. The second clause prevents re-triggering
    twice within the due month.

  Manual (user-triggered single generation):
    only requires nextSequence <= usefulLifeMonths and an eligible status.
    The due date is NOT re-checked, so an operator can force-advance one
    period at a time ahead of the calendar.

  Call sites depend on each rule separately; do not unify them.

ANCHORING:
  Period N's date is the purchase date advanced N months, with the
  purchase date's day-of-month as the anchor. Clamping to short months
  never shifts the anchor: purchased Jan 31, period 1 = Feb 28/29,
  period 2 = Mar 31.

SEE ALSO:
  - date.go: AddMonthsClamped / MonthsBetween primitives
  - engine.go: Uses these checks before creating entries
*/
package depreciation

// PeriodDate returns the calendar date assigned to the given 1-based
// period sequence for an asset.
func PeriodDate(a *Asset, sequence int) Date {
	return AddMonthsClamped(a.PurchaseDate, a.PurchaseDate.Day(), sequence)
}

// NextPeriodDate returns the date at which the period after lastSequence
// becomes due. With no recorded entries (lastSequence == 0) that is one
// month after purchase.
func NextPeriodDate(a *Asset, lastSequence int) Date {
	return PeriodDate(a, lastSequence+1)
}

// ElapsedMonths returns whole months from purchase to today.
func ElapsedMonths(a *Asset, today Date) int {
	return MonthsBetween(a.PurchaseDate, today)
}

// ExpectedPeriods returns how many periods should exist as of today,
// capped at the useful life.
func ExpectedPeriods(a *Asset, today Date) int {
	elapsed := ElapsedMonths(a, today)
	if elapsed > a.UsefulLifeMonths {
		return a.UsefulLifeMonths
	}
	return elapsed
}

// PendingPeriods returns how many due periods are not yet recorded.
func PendingPeriods(a *Asset, lastSequence int, today Date) int {
	pending := ExpectedPeriods(a, today) - lastSequence
	if pending < 0 {
		return 0
	}
	return pending
}

// DueNow implements the automatic (calendar-driven) eligibility rule for
// advancing past lastSequence: the due date has arrived and today is not
// still inside the due month it was first triggered in.
func DueNow(a *Asset, lastSequence int, today Date) bool {
	next := NextPeriodDate(a, lastSequence)
	return today.AfterOrEqual(next) && !today.SameYearMonth(next)
}

// CanGenerateManual implements the manual rule: lifecycle status is
// eligible and periods remain. The calendar is deliberately not consulted.
func CanGenerateManual(a *Asset, lastSequence int) bool {
	return a.Status.Eligible() && lastSequence+1 <= a.UsefulLifeMonths
}
