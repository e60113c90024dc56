/*
dto.go - Request and response data structures

PURPOSE:
  Decouples the HTTP wire shapes from the domain structs. Requests carry
  only client-settable fields; responses add derived data (next due dates)
  the domain model does not store.

SEE ALSO:
  - handlers.go: where these are decoded and produced
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/schedule"
)

// =============================================================================
// REQUESTS
// =============================================================================

// InstallmentRequest configures an installment obligation.
type InstallmentRequest struct {
	Total        int    `json:"total"`
	CreationDate string `json:"creation_date"` // YYYY-MM-DD, defaults to today
}

// SubscriptionRequest configures a subscription obligation.
type SubscriptionRequest struct {
	Cycle       string `json:"cycle"` // monthly | annual
	AnnualMonth int    `json:"annual_month,omitempty"`
}

// ObligationRequest is the payload for create and update.
type ObligationRequest struct {
	Name       string `json:"name"`
	AccountRef string `json:"account_ref,omitempty"`
	Color      string `json:"color,omitempty"`
	Kind       string `json:"kind"`
	AnchorDay  int    `json:"anchor_day"`
	OffsetDays *int   `json:"offset_days,omitempty"` // nil keeps the kind default
	Amount     string `json:"amount,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Active     *bool  `json:"active,omitempty"` // nil means active

	Installment  *InstallmentRequest  `json:"installment,omitempty"`
	Subscription *SubscriptionRequest `json:"subscription,omitempty"`
}

// apply maps the request onto an obligation, keeping identity and
// lifecycle fields intact.
func (req ObligationRequest) apply(ob *obligation.Obligation) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	ob.Name = req.Name
	ob.AccountRef = req.AccountRef
	ob.Color = req.Color
	ob.Kind = obligation.Kind(req.Kind)
	ob.AnchorDay = req.AnchorDay

	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q", req.Amount)
		}
		ob.Amount = amount
	} else {
		ob.Amount = decimal.Zero
	}
	ob.Currency = req.Currency

	if req.Active != nil {
		ob.Active = *req.Active
	} else {
		ob.Active = true
	}

	switch ob.Kind {
	case obligation.KindRecurringCharge:
		ob.OffsetDays = obligation.DefaultRecurringOffsetDays
	default:
		ob.OffsetDays = 0
	}
	if req.OffsetDays != nil {
		ob.OffsetDays = *req.OffsetDays
	}

	if req.Installment != nil {
		creation := schedule.Today()
		if req.Installment.CreationDate != "" {
			parsed, err := schedule.ParseDate(req.Installment.CreationDate)
			if err != nil {
				return fmt.Errorf("invalid creation_date: %v", err)
			}
			creation = parsed
		}
		ob.Installment = &obligation.InstallmentTerms{
			Total:        req.Installment.Total,
			Remaining:    req.Installment.Total,
			CreationDate: creation,
		}
	} else {
		ob.Installment = nil
	}

	if req.Subscription != nil {
		ob.Subscription = &obligation.SubscriptionTerms{
			Cycle:       obligation.BillingCycle(req.Subscription.Cycle),
			AnnualMonth: time.Month(req.Subscription.AnnualMonth),
		}
	} else {
		ob.Subscription = nil
	}

	ob.NormalizeKind()
	return nil
}

// =============================================================================
// RESPONSES
// =============================================================================

// ObligationDTO is the wire shape of an obligation plus its computed
// upcoming due dates.
type ObligationDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AccountRef string `json:"account_ref,omitempty"`
	Color      string `json:"color,omitempty"`
	Kind       string `json:"kind"`
	AnchorDay  int    `json:"anchor_day"`
	OffsetDays int    `json:"offset_days"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency,omitempty"`
	Active     bool   `json:"active"`

	Installment  *obligation.InstallmentTerms  `json:"installment,omitempty"`
	Subscription *obligation.SubscriptionTerms `json:"subscription,omitempty"`

	DueDates []string `json:"due_dates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toObligationDTO(ob obligation.Obligation, dueDates []schedule.Date) ObligationDTO {
	dto := ObligationDTO{
		ID:           string(ob.ID),
		Name:         ob.Name,
		AccountRef:   ob.AccountRef,
		Color:        ob.Color,
		Kind:         string(ob.Kind),
		AnchorDay:    ob.AnchorDay,
		OffsetDays:   ob.OffsetDays,
		Amount:       ob.Amount.StringFixed(2),
		Currency:     ob.Currency,
		Active:       ob.Active,
		Installment:  ob.Installment,
		Subscription: ob.Subscription,
		DueDates:     []string{},
		CreatedAt:    ob.CreatedAt,
		UpdatedAt:    ob.UpdatedAt,
	}
	for _, d := range dueDates {
		dto.DueDates = append(dto.DueDates, d.String())
	}
	return dto
}

// DueDatesDTO is the response for the due-date preview endpoint.
type DueDatesDTO struct {
	ObligationID string   `json:"obligation_id"`
	Reference    string   `json:"reference"`
	DueDates     []string `json:"due_dates"`
}

// ReconcileAcceptedDTO acknowledges an enqueued reconciliation.
type ReconcileAcceptedDTO struct {
	Status  string `json:"status"`
	Trigger string `json:"trigger"`
}

// SyncResultDTO reports the outcome of a manual sync pass.
type SyncResultDTO struct {
	Status string `json:"status"`
}
