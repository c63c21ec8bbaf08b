package depreciation_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/asset-ledger/depreciation"
)

// =============================================================================
// SUMMARY TESTS
// =============================================================================

func TestBuildSummary_EmptyLedger(t *testing.T) {
	a := officeEquipment()

	s := depreciation.BuildSummary(a, nil)

	if !s.MonthlyDepreciation.Equal(dec("100000")) {
		t.Errorf("expected monthly 100000, got %s", s.MonthlyDepreciation)
	}
	if !s.AccumulatedDepreciation.IsZero() {
		t.Errorf("expected accumulated 0, got %s", s.AccumulatedDepreciation)
	}
	if !s.CurrentValue.Equal(a.AcquisitionValue) {
		t.Errorf("expected current value %s, got %s", a.AcquisitionValue, s.CurrentValue)
	}
	if s.DepreciatedPeriods != 0 || s.RemainingPeriods != 12 {
		t.Errorf("expected 0 depreciated / 12 remaining, got %d / %d", s.DepreciatedPeriods, s.RemainingPeriods)
	}
	if s.NextPeriodDate == nil {
		t.Fatal("expected a next period date")
	}
	if want := depreciation.NewDate(2024, time.February, 15); !s.NextPeriodDate.Equal(want) {
		t.Errorf("expected next period %s, got %s", want, s.NextPeriodDate)
	}
	if !s.IsDepreciable {
		t.Error("expected a fresh active asset to be depreciable")
	}
}

func TestBuildSummary_PartiallyDepreciated(t *testing.T) {
	ctx := context.Background()
	engine, mem := newTestEngine()
	a := officeEquipment()
	mustSave(t, mem, a)

	if _, err := engine.GenerateN(ctx, a.ID, 3, depreciation.NewDate(2024, time.June, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := mem.Entries(ctx, a.ID)

	s := depreciation.BuildSummary(a, entries)

	if !s.AccumulatedDepreciation.Equal(dec("300000")) {
		t.Errorf("expected accumulated 300000, got %s", s.AccumulatedDepreciation)
	}
	if !s.CurrentValue.Equal(dec("900000")) {
		t.Errorf("expected current value 900000, got %s", s.CurrentValue)
	}
	if s.DepreciatedPeriods != 3 || s.RemainingPeriods != 9 {
		t.Errorf("expected 3 depreciated / 9 remaining, got %d / %d", s.DepreciatedPeriods, s.RemainingPeriods)
	}
	if !s.CompletionPercent.Equal(dec("25")) {
		t.Errorf("expected 25%% complete, got %s", s.CompletionPercent)
	}
	if want := depreciation.NewDate(2024, time.May, 15); !s.NextPeriodDate.Equal(want) {
		t.Errorf("expected next period %s, got %s", want, s.NextPeriodDate)
	}
}

func TestBuildSummary_FullyDepreciated(t *testing.T) {
	ctx := context.Background()
	engine, mem := newTestEngine()
	a := officeEquipment()
	mustSave(t, mem, a)

	if _, err := engine.UntilZero(ctx, a.ID, depreciation.NewDate(2024, time.June, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := mem.Entries(ctx, a.ID)

	s := depreciation.BuildSummary(a, entries)

	if s.RemainingPeriods != 0 {
		t.Errorf("expected 0 remaining, got %d", s.RemainingPeriods)
	}
	if s.NextPeriodDate != nil {
		t.Errorf("expected no next period date, got %s", s.NextPeriodDate)
	}
	if !s.CompletionPercent.Equal(dec("100")) {
		t.Errorf("expected 100%% complete, got %s", s.CompletionPercent)
	}
	if s.IsDepreciable {
		t.Error("expected a fully depreciated asset to not be depreciable")
	}
}

func TestBuildSummary_IneligibleStatus(t *testing.T) {
	a := officeEquipment()
	a.Status = depreciation.StatusLost

	s := depreciation.BuildSummary(a, nil)
	if s.IsDepreciable {
		t.Error("expected a lost asset to not be depreciable")
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestBuildStatus_ManualAndCalendarGatesDisagree(t *testing.T) {
	// GIVEN: A fresh asset on its purchase day
	// THEN: Manual generation is allowed while the calendar gate is closed;
	//       the two rules answer different questions

	a := officeEquipment()
	today := a.PurchaseDate

	st := depreciation.BuildStatus(a, nil, today)

	if !st.CanGenerateManual {
		t.Error("expected manual generation allowed")
	}
	if st.PendingPeriods != 0 {
		t.Errorf("expected 0 pending periods, got %d", st.PendingPeriods)
	}
	if st.DueNow {
		t.Error("expected the calendar gate closed on the purchase day")
	}
}

func TestBuildStatus_OverdueAsset(t *testing.T) {
	a := officeEquipment()
	today := depreciation.NewDate(2024, time.April, 20)

	st := depreciation.BuildStatus(a, nil, today)

	if st.PendingPeriods != 3 {
		t.Errorf("expected 3 pending periods, got %d", st.PendingPeriods)
	}
	if !st.DueNow {
		t.Error("expected the calendar gate open for an overdue asset")
	}
}

func TestBuildStatus_IneligibleNeverDue(t *testing.T) {
	a := officeEquipment()
	a.Status = depreciation.StatusDisposed
	today := depreciation.NewDate(2024, time.April, 20)

	st := depreciation.BuildStatus(a, nil, today)

	if st.CanGenerateManual {
		t.Error("expected manual generation refused for a disposed asset")
	}
	if st.DueNow {
		t.Error("expected the calendar gate closed for a disposed asset")
	}
}

// =============================================================================
// PREVIEW TESTS
// =============================================================================

func TestBuildPreview_IgnoresRecordedState(t *testing.T) {
	// GIVEN: Six months elapsed, nothing recorded
	// THEN: The preview projects six periods of depreciation regardless

	a := officeEquipment()
	today := depreciation.NewDate(2024, time.July, 20)

	p := depreciation.BuildPreview(a, today)

	if p.ElapsedMonths != 6 || p.ExpectedPeriods != 6 {
		t.Errorf("expected 6 elapsed / 6 expected, got %d / %d", p.ElapsedMonths, p.ExpectedPeriods)
	}
	if !p.ProjectedDepreciation.Equal(dec("600000")) {
		t.Errorf("expected projected depreciation 600000, got %s", p.ProjectedDepreciation)
	}
	if !p.ProjectedBookValue.Equal(dec("600000")) {
		t.Errorf("expected projected book value 600000, got %s", p.ProjectedBookValue)
	}
	if !p.CompletionPercent.Equal(dec("50")) {
		t.Errorf("expected 50%% complete, got %s", p.CompletionPercent)
	}
}

func TestBuildPreview_CappedAtFullDepreciation(t *testing.T) {
	a := officeEquipment()
	today := depreciation.NewDate(2030, time.January, 15)

	p := depreciation.BuildPreview(a, today)

	if p.ExpectedPeriods != 12 {
		t.Errorf("expected periods capped at 12, got %d", p.ExpectedPeriods)
	}
	if !p.ProjectedDepreciation.Equal(a.AcquisitionValue) {
		t.Errorf("expected projection capped at %s, got %s", a.AcquisitionValue, p.ProjectedDepreciation)
	}
	if !p.ProjectedBookValue.IsZero() {
		t.Errorf("expected projected book value 0, got %s", p.ProjectedBookValue)
	}
}

// =============================================================================
// SCHEDULE TESTS
// =============================================================================

func TestBuildSchedule_EmptyLedger_FullPlan(t *testing.T) {
	// GIVEN: 1000 over 3 months, nothing recorded
	// THEN: Three rows whose final amount absorbs the rounding drift,
	//       mirroring exactly what the engine would write

	a := testAsset("1000", 3, depreciation.NewDate(2024, time.January, 15))

	schedule := depreciation.BuildSchedule(a, nil)
	if len(schedule) != 3 {
		t.Fatalf("expected 3 scheduled periods, got %d", len(schedule))
	}

	if !schedule[0].Amount.Equal(dec("333.33")) {
		t.Errorf("expected first amount 333.33, got %s", schedule[0].Amount)
	}
	if !schedule[2].Amount.Equal(dec("333.34")) {
		t.Errorf("expected final amount 333.34, got %s", schedule[2].Amount)
	}
	if !schedule[2].Cumulative.Equal(dec("1000")) {
		t.Errorf("expected final cumulative 1000, got %s", schedule[2].Cumulative)
	}
	if !schedule[2].BookValue.IsZero() {
		t.Errorf("expected final book value 0, got %s", schedule[2].BookValue)
	}
	if want := depreciation.NewDate(2024, time.April, 15); !schedule[2].PeriodDate.Equal(want) {
		t.Errorf("expected final period date %s, got %s", want, schedule[2].PeriodDate)
	}
}

func TestBuildSchedule_ContinuesFromRecordedEntries(t *testing.T) {
	ctx := context.Background()
	engine, mem := newTestEngine()
	a := officeEquipment()
	mustSave(t, mem, a)

	if _, err := engine.GenerateN(ctx, a.ID, 10, depreciation.NewDate(2024, time.June, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := mem.Entries(ctx, a.ID)

	schedule := depreciation.BuildSchedule(a, entries)
	if len(schedule) != 2 {
		t.Fatalf("expected 2 remaining periods, got %d", len(schedule))
	}
	if schedule[0].Sequence != 11 || schedule[1].Sequence != 12 {
		t.Errorf("expected sequences 11 and 12, got %d and %d", schedule[0].Sequence, schedule[1].Sequence)
	}
	if !schedule[1].BookValue.IsZero() {
		t.Errorf("expected final book value 0, got %s", schedule[1].BookValue)
	}
}

func TestBuildSchedule_FullyDepreciated_Empty(t *testing.T) {
	ctx := context.Background()
	engine, mem := newTestEngine()
	a := officeEquipment()
	mustSave(t, mem, a)

	if _, err := engine.UntilZero(ctx, a.ID, depreciation.NewDate(2024, time.June, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := mem.Entries(ctx, a.ID)

	if schedule := depreciation.BuildSchedule(a, entries); len(schedule) != 0 {
		t.Errorf("expected empty schedule, got %d periods", len(schedule))
	}
}
