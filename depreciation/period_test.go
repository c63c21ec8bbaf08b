package depreciation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-ledger/depreciation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testAsset(value string, lifeMonths int, purchase depreciation.Date) *depreciation.Asset {
	v, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return &depreciation.Asset{
		ID:               depreciation.NewAssetID(),
		Name:             "Test Asset",
		AcquisitionValue: v,
		UsefulLifeMonths: lifeMonths,
		PurchaseDate:     purchase,
		Status:           depreciation.StatusActive,
		CreatedAt:        purchase,
	}
}

// =============================================================================
// PERIOD DATE TESTS
// =============================================================================

func TestPeriodDate_AnchoredToPurchaseDay(t *testing.T) {
	// GIVEN: An asset purchased Jan 31
	// WHEN: Computing period dates across short and long months
	// THEN: Short months clamp but later periods return to day 31

	a := testAsset("1200000", 24, depreciation.NewDate(2024, time.January, 31))

	cases := []struct {
		seq  int
		want depreciation.Date
	}{
		{1, depreciation.NewDate(2024, time.February, 29)},
		{2, depreciation.NewDate(2024, time.March, 31)},
		{3, depreciation.NewDate(2024, time.April, 30)},
		{13, depreciation.NewDate(2025, time.February, 28)},
	}
	for _, c := range cases {
		got := depreciation.PeriodDate(a, c.seq)
		if !got.Equal(c.want) {
			t.Errorf("period %d: expected %s, got %s", c.seq, c.want, got)
		}
	}
}

func TestNextPeriodDate_EmptyLedger_OneMonthAfterPurchase(t *testing.T) {
	a := testAsset("1200000", 12, depreciation.NewDate(2024, time.January, 15))

	got := depreciation.NextPeriodDate(a, 0)
	want := depreciation.NewDate(2024, time.February, 15)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

// =============================================================================
// ELIGIBILITY RULE TESTS
// =============================================================================
// The automatic (calendar) rule and the manual rule are different checks
// with different answers. These tests pin each one down separately.

func TestDueNow_CalendarGate(t *testing.T) {
	// GIVEN: Purchase Jan 15, no entries; next period due Feb 15
	a := testAsset("1200000", 12, depreciation.NewDate(2024, time.January, 15))

	cases := []struct {
		name  string
		today depreciation.Date
		want  bool
	}{
		{"before due date", depreciation.NewDate(2024, time.February, 14), false},
		// On or after the due date but inside the due month: the
		// year-month clause suppresses the trigger.
		{"on due date, same month", depreciation.NewDate(2024, time.February, 15), false},
		{"later in due month", depreciation.NewDate(2024, time.February, 28), false},
		{"month after due", depreciation.NewDate(2024, time.March, 1), true},
		{"well past due", depreciation.NewDate(2024, time.June, 1), true},
	}
	for _, c := range cases {
		if got := depreciation.DueNow(a, 0, c.today); got != c.want {
			t.Errorf("%s (%s): expected %v, got %v", c.name, c.today, c.want, got)
		}
	}
}

func TestCanGenerateManual_IgnoresCalendar(t *testing.T) {
	// GIVEN: Purchase Jan 15, no entries, and a "today" well before the
	//        first due date
	// THEN: Manual generation is still allowed; the manual rule never
	//       consults the calendar

	a := testAsset("1200000", 12, depreciation.NewDate(2024, time.January, 15))

	if !depreciation.CanGenerateManual(a, 0) {
		t.Error("expected manual generation allowed on a fresh eligible asset")
	}
	if !depreciation.CanGenerateManual(a, 11) {
		t.Error("expected manual generation allowed for the final period")
	}
	if depreciation.CanGenerateManual(a, 12) {
		t.Error("expected manual generation refused past the useful life")
	}

	a.Status = depreciation.StatusDisposed
	if depreciation.CanGenerateManual(a, 0) {
		t.Error("expected manual generation refused for a disposed asset")
	}
}

func TestStatusEligibility(t *testing.T) {
	eligible := []depreciation.Status{depreciation.StatusActive, depreciation.StatusInRepair}
	ineligible := []depreciation.Status{depreciation.StatusDisposed, depreciation.StatusLost, depreciation.StatusSold}

	for _, s := range eligible {
		if !s.Eligible() {
			t.Errorf("expected %s to be eligible", s)
		}
	}
	for _, s := range ineligible {
		if s.Eligible() {
			t.Errorf("expected %s to be ineligible", s)
		}
	}
}

// =============================================================================
// PENDING PERIOD TESTS
// =============================================================================

func TestPendingPeriods(t *testing.T) {
	a := testAsset("1200000", 12, depreciation.NewDate(2024, time.January, 15))

	cases := []struct {
		name    string
		lastSeq int
		today   depreciation.Date
		want    int
	}{
		{"nothing elapsed", 0, depreciation.NewDate(2024, time.January, 20), 0},
		{"one period due", 0, depreciation.NewDate(2024, time.February, 15), 1},
		{"three due, one recorded", 1, depreciation.NewDate(2024, time.April, 15), 2},
		{"ledger ahead of calendar", 5, depreciation.NewDate(2024, time.February, 15), 0},
		{"capped at useful life", 0, depreciation.NewDate(2030, time.January, 15), 12},
	}
	for _, c := range cases {
		if got := depreciation.PendingPeriods(a, c.lastSeq, c.today); got != c.want {
			t.Errorf("%s: expected %d pending, got %d", c.name, c.want, got)
		}
	}
}

func TestExpectedPeriods_CappedAtLife(t *testing.T) {
	a := testAsset("1200000", 12, depreciation.NewDate(2020, time.January, 15))
	today := depreciation.NewDate(2024, time.January, 15)

	if got := depreciation.ExpectedPeriods(a, today); got != 12 {
		t.Errorf("expected cap at 12 periods, got %d", got)
	}
}
