/*
errors.go - Sentinel errors for the obligation package

All validation and store errors in one place, usable with errors.Is().
Callers treat validation failure on a record being scheduled as "nothing to
schedule": ComputeDueDates returns an empty slice instead of surfacing these.
*/
package obligation

import "errors"

var (
	// ErrNotFound is returned by stores when no record has the given ID.
	ErrNotFound = errors.New("obligation not found")

	ErrMissingID                = errors.New("obligation has no id")
	ErrInvalidAnchorDay         = errors.New("anchor day must be between 1 and 31")
	ErrNegativeOffset           = errors.New("offset days must not be negative")
	ErrUnknownKind              = errors.New("unknown obligation kind")
	ErrMissingInstallmentTerms  = errors.New("installment obligation missing terms")
	ErrInvalidInstallmentCount  = errors.New("installment counts out of range")
	ErrMissingCreationDate      = errors.New("installment obligation missing creation date")
	ErrMissingSubscriptionTerms = errors.New("subscription obligation missing terms")
	ErrInvalidAnnualMonth       = errors.New("annual billing month must be between 1 and 12")
	ErrUnknownBillingCycle      = errors.New("unknown billing cycle")
)
