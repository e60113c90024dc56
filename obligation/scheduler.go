/*
scheduler.go - Due-date computation per obligation kind

PURPOSE:
  ComputeDueDates answers "when is this obligation next due?" for any
  reference date. It returns zero, one, or two dates, ascending and
  de-duplicated by calendar day:

    RecurringCharge  monthly anchor + offset, holiday-shifted
    Installment      monthly anchor from creation date, holiday-shifted,
                     only while installments remain
    OneTime          next anchor occurrence, holiday-shifted, never a second
    Subscription     monthly or annual anchor, NEVER holiday-shifted, up to
                     two upcoming occurrences

TWO-RESULT RULE (holiday-shiftable kinds):
  When the first (shifted) due date is not after the reference date - the
  nominal charge has arrived - the next cycle is computed as well, searching
  from the day after the first result. A payer sees "due today" and the next
  charge at once; otherwise only the single next date.

MALFORMED INPUT:
  A record that fails validation yields an empty result. "No due date" is
  always a safe answer; callers simply have nothing to materialize.
*/
package obligation

import (
	"github.com/paywarden/obligation-engine/schedule"
)

// Search bounds for the month-by-month (and year-by-year) forward walks.
// Sized to comfortably exceed any realistic cadence; hitting one means the
// record cannot produce a due date at all.
const (
	MaxMonthlySearch      = 24
	MaxSubscriptionSearch = 36
)

// ComputeDueDates computes the upcoming due dates for one obligation.
// policy may be nil, in which case no holiday shifting is applied.
func ComputeDueDates(ob Obligation, ref schedule.Date, policy *schedule.HolidayPolicy) []schedule.Date {
	if err := ob.Validate(); err != nil {
		return nil
	}

	shift := func(d schedule.Date) schedule.Date {
		if policy == nil {
			return d
		}
		return policy.NextWorkingDay(d)
	}

	switch ob.Kind {
	case KindOneTime:
		due, ok := nextAnchorDate(ref, ob.AnchorDay, ob.OffsetDays, shift)
		if !ok {
			return nil
		}
		return []schedule.Date{due}

	case KindRecurringCharge:
		first, ok := nextAnchorDate(ref, ob.AnchorDay, ob.OffsetDays, shift)
		if !ok {
			return nil
		}
		dates := []schedule.Date{first}
		if !first.After(ref) {
			if second, ok := nextAnchorDate(first.AddDays(1), ob.AnchorDay, ob.OffsetDays, shift); ok {
				dates = append(dates, second)
			}
		}
		return dedupeSorted(dates)

	case KindInstallment:
		first, ok := nextInstallmentDate(ob, ref, shift)
		if !ok {
			return nil
		}
		dates := []schedule.Date{first}
		if !first.After(ref) {
			if second, ok := nextInstallmentDate(ob, first.AddDays(1), shift); ok {
				dates = append(dates, second)
			}
		}
		return dedupeSorted(dates)

	case KindSubscription:
		// Subscriptions bill on the nominal date regardless of holidays.
		return dedupeSorted(subscriptionDates(ob, ref))
	}

	return nil
}

// nextAnchorDate walks forward month by month from `from`, building the
// clamped anchor date plus offset, and returns the first result on or after
// `from`. shift is applied to each candidate before the comparison: a
// nominal date whose shift lands exactly on `from` is still the next due
// date, not a past one.
func nextAnchorDate(from schedule.Date, anchorDay, offsetDays int, shift func(schedule.Date) schedule.Date) (schedule.Date, bool) {
	for m := 0; m < MaxMonthlySearch; m++ {
		y, mo := schedule.AddMonths(from.Year(), from.Month(), m)
		due := shift(schedule.ClampedDate(y, mo, anchorDay).AddDays(offsetDays))
		if due.AfterOrEqual(from) {
			return due, true
		}
	}
	return schedule.Date{}, false
}

// nextInstallmentDate steps monthly anchor dates from the loan's creation
// date and returns the first shifted result on or after `from`, provided
// installments remain. The walk starts at the creation month, so the bound
// is widened by the months already elapsed - an old loan must still reach
// the present.
func nextInstallmentDate(ob Obligation, from schedule.Date, shift func(schedule.Date) schedule.Date) (schedule.Date, bool) {
	terms := ob.Installment
	if terms == nil || terms.Remaining <= 0 || terms.CreationDate.IsZero() {
		return schedule.Date{}, false
	}

	start := terms.CreationDate
	elapsed := schedule.MonthsBetween(start.Year(), start.Month(), from.Year(), from.Month())
	if elapsed < 0 {
		elapsed = 0
	}
	for m := 0; m < elapsed+MaxMonthlySearch; m++ {
		y, mo := schedule.AddMonths(start.Year(), start.Month(), m)
		due := shift(schedule.ClampedDate(y, mo, ob.AnchorDay))
		if due.AfterOrEqual(from) {
			return due, true
		}
	}
	return schedule.Date{}, false
}

// subscriptionDates collects up to two upcoming nominal billing dates.
func subscriptionDates(ob Obligation, ref schedule.Date) []schedule.Date {
	terms := ob.Subscription
	if terms == nil {
		return nil
	}

	var found []schedule.Date
	if terms.Cycle == CycleAnnual {
		for i := 0; i < MaxSubscriptionSearch && len(found) < 2; i++ {
			candidate := schedule.ClampedDate(ref.Year()+i, terms.AnnualMonth, ob.AnchorDay)
			if candidate.AfterOrEqual(ref) {
				found = append(found, candidate)
			}
		}
		return found
	}

	for m := 0; m < MaxSubscriptionSearch && len(found) < 2; m++ {
		y, mo := schedule.AddMonths(ref.Year(), ref.Month(), m)
		candidate := schedule.ClampedDate(y, mo, ob.AnchorDay)
		if candidate.AfterOrEqual(ref) {
			found = append(found, candidate)
		}
	}
	return found
}

// dedupeSorted sorts ascending and drops same-day duplicates.
func dedupeSorted(dates []schedule.Date) []schedule.Date {
	if len(dates) < 2 {
		return dates
	}
	// Insertion sort: the slice never holds more than a handful of dates.
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].Before(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
	out := dates[:1]
	for _, d := range dates[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}
