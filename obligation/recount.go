/*
recount.go - Installment remaining-count derivation

RemainingInstallments is never trusted as stored: it is re-derived by
counting elapsed monthly anchor dates between the loan's creation date and
today. The count runs whenever obligations are loaded for scheduling and on
the nightly maintenance job, so a loan that ticked over an anchor date since
the last launch is corrected before anything is materialized.
*/
package obligation

import (
	"github.com/paywarden/obligation-engine/schedule"
)

// RecountInstallments recomputes Remaining for an installment obligation.
// It reports whether the stored value changed. Non-installment records and
// records without usable terms are left untouched.
func (o *Obligation) RecountInstallments(today schedule.Date) bool {
	if o.Kind != KindInstallment {
		return false
	}
	terms := o.Installment
	if terms == nil || terms.CreationDate.IsZero() || terms.Total < 1 {
		return false
	}

	paid := 0
	start := terms.CreationDate
	elapsed := schedule.MonthsBetween(start.Year(), start.Month(), today.Year(), today.Month())
	for m := 0; m <= elapsed; m++ {
		y, mo := schedule.AddMonths(start.Year(), start.Month(), m)
		anchor := schedule.ClampedDate(y, mo, o.AnchorDay)
		if anchor.After(today) {
			break
		}
		if anchor.AfterOrEqual(terms.CreationDate) {
			paid++
		}
	}

	remaining := terms.Total - paid
	if remaining < 0 {
		remaining = 0
	}
	if remaining == terms.Remaining {
		return false
	}
	terms.Remaining = remaining
	return true
}

// RecountAll recomputes every installment obligation in the slice in place
// and reports whether any record changed.
func RecountAll(obs []Obligation, today schedule.Date) bool {
	changed := false
	for i := range obs {
		if obs[i].RecountInstallments(today) {
			changed = true
		}
	}
	return changed
}
