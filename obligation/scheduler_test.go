package obligation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// weekendsOnly is a policy with Saturday and Sunday non-working and no
// further holidays, so shifts in tests are fully predictable.
func weekendsOnly() *schedule.HolidayPolicy {
	var cfg schedule.HolidayPolicyConfig
	cfg.NonWorkingWeekdays[time.Saturday] = true
	cfg.NonWorkingWeekdays[time.Sunday] = true
	return schedule.NewHolidayPolicy(cfg)
}

func date(year int, month time.Month, day int) schedule.Date {
	return schedule.NewDate(year, month, day)
}

func recurring(anchorDay, offsetDays int) obligation.Obligation {
	ob := obligation.New("Visa card", obligation.KindRecurringCharge, anchorDay)
	ob.OffsetDays = offsetDays
	return ob
}

func installment(anchorDay, total, remaining int, creation schedule.Date) obligation.Obligation {
	ob := obligation.New("Car loan", obligation.KindInstallment, anchorDay)
	ob.Installment = &obligation.InstallmentTerms{
		Total:        total,
		Remaining:    remaining,
		CreationDate: creation,
	}
	return ob
}

func subscription(anchorDay int, cycle obligation.BillingCycle, annualMonth time.Month) obligation.Obligation {
	ob := obligation.New("Streaming", obligation.KindSubscription, anchorDay)
	ob.Subscription = &obligation.SubscriptionTerms{Cycle: cycle, AnnualMonth: annualMonth}
	return ob
}

func dates(ds ...schedule.Date) []schedule.Date { return ds }

// =============================================================================
// RECURRING CHARGE
// =============================================================================

func TestComputeDueDates_RecurringShiftedOffWeekend(t *testing.T) {
	// GIVEN: anchor day 15, offset 10 -> raw due 2025-05-25 (Sunday)
	// WHEN:  reference is 2025-05-20
	// THEN:  single result shifted to Monday 2025-05-26
	got := obligation.ComputeDueDates(recurring(15, 10), date(2025, time.May, 20), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 26)), got)
}

func TestComputeDueDates_RecurringDueTodayAddsNextCycle(t *testing.T) {
	// GIVEN: the same obligation, referenced on its shifted due date
	// THEN:  both the current and the next cycle are returned
	got := obligation.ComputeDueDates(recurring(15, 10), date(2025, time.May, 26), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 26), date(2025, time.June, 25)), got)
}

func TestComputeDueDates_RecurringOffsetCrossesMonth(t *testing.T) {
	// Anchor 25 + offset 10 lands in the following month.
	got := obligation.ComputeDueDates(recurring(25, 10), date(2025, time.May, 1), weekendsOnly())
	require.Len(t, got, 1)
	assert.Equal(t, date(2025, time.June, 4), got[0])
}

func TestComputeDueDates_AnchorClampedInShortMonth(t *testing.T) {
	// GIVEN: anchor day 31, no offset
	// WHEN:  referenced inside February
	// THEN:  the anchor clamps to the month's last day (shifted if needed)
	got := obligation.ComputeDueDates(recurring(31, 0), date(2025, time.February, 10), nil)
	assert.Equal(t, dates(date(2025, time.February, 28)), got)

	got = obligation.ComputeDueDates(recurring(31, 0), date(2024, time.February, 10), nil)
	assert.Equal(t, dates(date(2024, time.February, 29)), got)
}

func TestComputeDueDates_NilPolicyMeansNoShift(t *testing.T) {
	got := obligation.ComputeDueDates(recurring(15, 10), date(2025, time.May, 20), nil)
	assert.Equal(t, dates(date(2025, time.May, 25)), got)
}

func TestComputeDueDates_InvalidRecordYieldsNothing(t *testing.T) {
	ob := recurring(15, 10)
	ob.AnchorDay = 0
	assert.Empty(t, obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly()))

	ob = recurring(15, 10)
	ob.OffsetDays = -1
	assert.Empty(t, obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly()))
}

// =============================================================================
// ONE-TIME
// =============================================================================

func TestComputeDueDates_OneTimeNeverReturnsSecond(t *testing.T) {
	ob := obligation.New("Tax payment", obligation.KindOneTime, 26)

	// Referenced on the due date itself: still a single result.
	got := obligation.ComputeDueDates(ob, date(2025, time.May, 26), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 26)), got)
}

func TestComputeDueDates_OneTimeShifted(t *testing.T) {
	ob := obligation.New("Tax payment", obligation.KindOneTime, 24) // Saturday
	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 26)), got)
}

func TestComputeDueDates_OneTimeShiftLandsOnReference(t *testing.T) {
	// GIVEN: a Saturday anchor whose shift is Monday 2025-05-26
	// WHEN:  referenced on that Monday
	// THEN:  the shifted date counts as due now, not as a missed cycle
	ob := obligation.New("Tax payment", obligation.KindOneTime, 24)
	got := obligation.ComputeDueDates(ob, date(2025, time.May, 26), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 26)), got)
}

// =============================================================================
// INSTALLMENT
// =============================================================================

func TestComputeDueDates_InstallmentNextFromCreation(t *testing.T) {
	ob := installment(15, 12, 10, date(2025, time.January, 15))

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	require.Len(t, got, 1)
	// Raw 2025-06-15 is a Sunday, shifted to Monday.
	assert.Equal(t, date(2025, time.June, 16), got[0])
}

func TestComputeDueDates_InstallmentExhausted(t *testing.T) {
	ob := installment(15, 12, 0, date(2024, time.January, 15))
	assert.Empty(t, obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly()))
}

func TestComputeDueDates_InstallmentDueTodayAddsNextCycle(t *testing.T) {
	ob := installment(16, 12, 10, date(2025, time.January, 16))

	// 2025-05-16 is a Friday, no shift; referenced that day the June
	// anchor (Monday 16th) follows.
	got := obligation.ComputeDueDates(ob, date(2025, time.May, 16), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.May, 16), date(2025, time.June, 16)), got)
}

func TestComputeDueDates_InstallmentShiftLandsOnReference(t *testing.T) {
	// GIVEN: the June anchor 2025-06-15 is a Sunday, shifted to Monday
	// WHEN:  referenced on that Monday
	// THEN:  the shifted date and the next cycle are returned
	ob := installment(15, 12, 10, date(2025, time.January, 15))

	got := obligation.ComputeDueDates(ob, date(2025, time.June, 16), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.June, 16), date(2025, time.July, 15)), got)
}

func TestComputeDueDates_InstallmentOldLoanStillReachesPresent(t *testing.T) {
	// GIVEN: a loan created far beyond the monthly search window
	ob := installment(10, 120, 60, date(2020, time.March, 10))

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	require.Len(t, got, 1)
	assert.Equal(t, date(2025, time.June, 10), got[0])
}

// =============================================================================
// SUBSCRIPTION
// =============================================================================

func TestComputeDueDates_SubscriptionNeverShifted(t *testing.T) {
	// GIVEN: monthly billing on the 25th; 2025-05-25 is a Sunday
	ob := subscription(25, obligation.CycleMonthly, 0)

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	require.NotEmpty(t, got)
	assert.Equal(t, date(2025, time.May, 25), got[0], "subscriptions bill on the nominal date")
}

func TestComputeDueDates_SubscriptionMonthlyTwoUpcoming(t *testing.T) {
	ob := subscription(10, obligation.CycleMonthly, 0)

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.June, 10), date(2025, time.July, 10)), got)
}

func TestComputeDueDates_SubscriptionAnnual(t *testing.T) {
	ob := subscription(1, obligation.CycleAnnual, time.March)

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	assert.Equal(t, dates(date(2026, time.March, 1), date(2027, time.March, 1)), got)
}

func TestComputeDueDates_SubscriptionAnnualIncludesCurrentYear(t *testing.T) {
	ob := subscription(1, obligation.CycleAnnual, time.September)

	got := obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly())
	assert.Equal(t, dates(date(2025, time.September, 1), date(2026, time.September, 1)), got)
}

func TestComputeDueDates_SubscriptionAnnualRequiresValidMonth(t *testing.T) {
	ob := subscription(1, obligation.CycleAnnual, 0)
	assert.Empty(t, obligation.ComputeDueDates(ob, date(2025, time.May, 20), weekendsOnly()))
}

// =============================================================================
// RESULT SHAPE
// =============================================================================

func TestComputeDueDates_ResultsAscendingAndDeduped(t *testing.T) {
	// A Saturday anchor with the reference on the shifted Monday: the
	// first result shifts onto Monday, the second cycle follows later.
	ob := recurring(24, 0)
	got := obligation.ComputeDueDates(ob, date(2025, time.May, 26), weekendsOnly())

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Before(got[i]), "dates must be strictly ascending")
	}
}
