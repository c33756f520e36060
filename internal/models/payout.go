package models

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus is the verification state of a payout account.
type PayoutStatus string

const (
	PayoutStatusMissing    PayoutStatus = "missing" // no account on record
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusVerified   PayoutStatus = "verified"
	PayoutStatusPro        PayoutStatus = "pro"
	PayoutStatusRestricted PayoutStatus = "restricted"
	PayoutStatusRejected   PayoutStatus = "rejected"
)

// CanReceivePayouts reports whether paid tickets may be sold against the account.
func (s PayoutStatus) CanReceivePayouts() bool {
	return s == PayoutStatusVerified || s == PayoutStatusPro
}

// PayoutAccount records an owner context's eligibility to receive paid-ticket proceeds.
type PayoutAccount struct {
	ID                uuid.UUID    `json:"id"`
	Owner             OwnerContext `json:"owner_context"`
	Provider          string       `json:"provider"`
	ProviderAccountID string       `json:"provider_account_id"`
	Status            PayoutStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
