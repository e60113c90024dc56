/*
merge.go - Write-conflict resolution

The merge takes the remote record as the base and overwrites it field by
field with the local write attempt - "last local writer wins per field". Not
a CRDT: the obligation record has no fields that are mutated independently
and concurrently, so per-field last-writer-wins is the honest, simple policy.
The field list is written out explicitly so adding a field to Obligation
forces a decision here.
*/
package syncer

import "github.com/paywarden/obligation-engine/obligation"

// Merge resolves a version conflict between a local write attempt and the
// currently stored remote record.
func Merge(local, remote obligation.Obligation) obligation.Obligation {
	merged := remote

	merged.ID = local.ID
	merged.Name = local.Name
	merged.AccountRef = local.AccountRef
	merged.Color = local.Color
	merged.Kind = local.Kind
	merged.AnchorDay = local.AnchorDay
	merged.OffsetDays = local.OffsetDays
	merged.Amount = local.Amount
	merged.Currency = local.Currency
	merged.Active = local.Active
	merged.SoftDeleted = local.SoftDeleted
	merged.CreatedAt = local.CreatedAt
	merged.UpdatedAt = local.UpdatedAt

	if local.Installment != nil {
		terms := *local.Installment
		merged.Installment = &terms
	} else {
		merged.Installment = nil
	}
	if local.Subscription != nil {
		terms := *local.Subscription
		merged.Subscription = &terms
	} else {
		merged.Subscription = nil
	}
	return merged
}
