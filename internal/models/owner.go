package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// OwnerType tags whether an owner context is an individual user or an organization.
type OwnerType string

const (
	OwnerIndividual   OwnerType = "individual"
	OwnerOrganization OwnerType = "organization"
)

// ErrInvalidOwnerType is returned for an owner_context_type outside the known set.
var ErrInvalidOwnerType = errors.New("invalid owner context type")

// ParseOwnerType parses s, defaulting an empty value to individual.
func ParseOwnerType(s string) (OwnerType, error) {
	switch OwnerType(s) {
	case "", OwnerIndividual:
		return OwnerIndividual, nil
	case OwnerOrganization:
		return OwnerOrganization, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOwnerType, s)
}

// OwnerContext identifies who owns an event or payout account.
// For OwnerIndividual, ID is a user id; for OwnerOrganization, ID is an organization id.
type OwnerContext struct {
	Type OwnerType `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// IndividualOwner returns the owner context for a user.
func IndividualOwner(userID uuid.UUID) OwnerContext {
	return OwnerContext{Type: OwnerIndividual, ID: userID}
}

// OrganizationOwner returns the owner context for an organization.
func OrganizationOwner(orgID uuid.UUID) OwnerContext {
	return OwnerContext{Type: OwnerOrganization, ID: orgID}
}

// IsOrganization reports whether the owner is an organization.
func (o OwnerContext) IsOrganization() bool { return o.Type == OwnerOrganization }

// OrganizationID returns the owning organization, or nil for individual owners.
func (o OwnerContext) OrganizationID() *uuid.UUID {
	if !o.IsOrganization() {
		return nil
	}
	id := o.ID
	return &id
}

func (o OwnerContext) String() string {
	return string(o.Type) + ":" + o.ID.String()
}
