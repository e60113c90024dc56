/*
Package obligation models trackable payment commitments and computes their
upcoming due dates.

PURPOSE:
  An Obligation is the unit the engine schedules: a statement-based recurring
  charge, an installment loan, a one-time payment, or a subscription. This
  package owns the model, its lifecycle flags (active, soft-deleted), the
  installment recount, and the due-date scheduler built on the schedule
  engine's Date and HolidayPolicy.

KEY CONCEPTS IN THIS FILE (types.go):
  - Obligation: the record itself, with kind-specific payload structs
  - Kind: tagged union discriminator (recurring charge, installment, ...)
  - InstallmentTerms / SubscriptionTerms: kind-specific payloads
  - Soft deletion: a tombstone pending remote confirmation, never a hard
    local remove (see syncer package)

DESIGN PRINCIPLES:
  1. Kind-specific fields live in payload structs, nil for other kinds
  2. Scheduling is a pure function of (obligation, reference date, policy)
  3. RemainingInstallments is derived, recomputed on load - never trusted

SEE ALSO:
  - scheduler.go: due-date computation per kind
  - recount.go: installment remaining-count derivation
  - store.go: persistence interface
*/
package obligation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// IDENTIFIERS & KINDS
// =============================================================================

// ID is a stable unique obligation identifier, assigned at creation.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID { return ID(uuid.NewString()) }

// Kind discriminates the obligation variants.
type Kind string

const (
	KindRecurringCharge Kind = "recurring_charge" // statement-based card charge
	KindInstallment     Kind = "installment"      // fixed-count loan payment
	KindOneTime         Kind = "one_time"         // single payment
	KindSubscription    Kind = "subscription"     // monthly or annual billing
)

// Kinds lists every valid Kind.
func Kinds() []Kind {
	return []Kind{KindRecurringCharge, KindInstallment, KindOneTime, KindSubscription}
}

// BillingCycle is the subscription cadence.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// DefaultRecurringOffsetDays is the statement-to-due-date gap applied to
// recurring charges when no explicit offset is configured.
const DefaultRecurringOffsetDays = 10

// =============================================================================
// KIND-SPECIFIC PAYLOADS
// =============================================================================

// InstallmentTerms carries the loan-specific fields.
type InstallmentTerms struct {
	Total        int           `json:"total"`
	Remaining    int           `json:"remaining"`
	CreationDate schedule.Date `json:"creation_date"`
}

// SubscriptionTerms carries the subscription-specific fields.
// AnnualMonth is only meaningful when Cycle is CycleAnnual.
type SubscriptionTerms struct {
	Cycle       BillingCycle `json:"cycle"`
	AnnualMonth time.Month   `json:"annual_month,omitempty"`
}

// =============================================================================
// OBLIGATION
// =============================================================================

// Obligation is a trackable payment commitment.
type Obligation struct {
	ID ID `json:"id"`

	Name       string `json:"name"`
	AccountRef string `json:"account_ref,omitempty"` // e.g. card last-four
	Color      string `json:"color,omitempty"`

	Kind Kind `json:"kind"`

	// AnchorDay is the nominal day-of-month (1-31) the obligation bills on,
	// clamped to the last valid day of shorter months.
	AnchorDay int `json:"anchor_day"`

	// OffsetDays is added to the clamped anchor date before holiday shifting.
	OffsetDays int `json:"offset_days"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`

	Active      bool `json:"active"`
	SoftDeleted bool `json:"soft_deleted"`

	Installment  *InstallmentTerms  `json:"installment,omitempty"`
	Subscription *SubscriptionTerms `json:"subscription,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an active obligation with an assigned ID and kind defaults.
func New(name string, kind Kind, anchorDay int) Obligation {
	now := time.Now().UTC()
	ob := Obligation{
		ID:        NewID(),
		Name:      name,
		Kind:      kind,
		AnchorDay: anchorDay,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch kind {
	case KindRecurringCharge:
		ob.OffsetDays = DefaultRecurringOffsetDays
	case KindInstallment:
		ob.Installment = &InstallmentTerms{CreationDate: schedule.DateOf(now)}
	case KindSubscription:
		ob.Subscription = &SubscriptionTerms{Cycle: CycleMonthly}
	}
	return ob
}

// Schedulable reports whether the obligation participates in scheduling.
// Inactive and tombstoned records are excluded; an exhausted installment is
// scheduling-complete but stays visible until explicitly removed.
func (o Obligation) Schedulable() bool {
	return o.Active && !o.SoftDeleted
}

// Validate checks the structural invariants of the record.
func (o Obligation) Validate() error {
	if o.ID == "" {
		return ErrMissingID
	}
	if o.AnchorDay < 1 || o.AnchorDay > 31 {
		return ErrInvalidAnchorDay
	}
	if o.OffsetDays < 0 {
		return ErrNegativeOffset
	}
	switch o.Kind {
	case KindRecurringCharge, KindOneTime:
		// No kind-specific payload.
	case KindInstallment:
		t := o.Installment
		if t == nil {
			return ErrMissingInstallmentTerms
		}
		if t.Total < 1 || t.Remaining < 0 || t.Remaining > t.Total {
			return ErrInvalidInstallmentCount
		}
		if t.CreationDate.IsZero() {
			return ErrMissingCreationDate
		}
	case KindSubscription:
		t := o.Subscription
		if t == nil {
			return ErrMissingSubscriptionTerms
		}
		switch t.Cycle {
		case CycleMonthly:
		case CycleAnnual:
			if t.AnnualMonth < time.January || t.AnnualMonth > time.December {
				return ErrInvalidAnnualMonth
			}
		default:
			return ErrUnknownBillingCycle
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

// NormalizeKind resets kind-specific fields after a kind change so a record
// edited from, say, installment to subscription does not drag stale terms
// along.
func (o *Obligation) NormalizeKind() {
	if o.Kind != KindInstallment {
		o.Installment = nil
	}
	if o.Kind != KindSubscription {
		o.Subscription = nil
	}
	if o.Kind == KindInstallment && o.Installment == nil {
		o.Installment = &InstallmentTerms{CreationDate: schedule.DateOf(time.Now().UTC())}
	}
	if o.Kind == KindSubscription && o.Subscription == nil {
		o.Subscription = &SubscriptionTerms{Cycle: CycleMonthly}
	}
}
