package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant that can own events, templates and payout accounts.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrgRole is a user's role in an organization. Roles are ordered member < admin < owner.
type OrgRole string

const (
	OrgRoleNone   OrgRole = ""
	OrgRoleMember OrgRole = "member"
	OrgRoleAdmin  OrgRole = "admin"
	OrgRoleOwner  OrgRole = "owner"
)

// Rank returns the position of the role in the ordered set; 0 for none or unknown.
func (r OrgRole) Rank() int {
	switch r {
	case OrgRoleMember:
		return 1
	case OrgRoleAdmin:
		return 2
	case OrgRoleOwner:
		return 3
	}
	return 0
}

// Valid reports whether r is one of the assignable roles.
func (r OrgRole) Valid() bool { return r.Rank() > 0 }

// CanManage reports whether the role may write organization-owned rows (admin or owner).
func (r OrgRole) CanManage() bool { return r.Rank() >= OrgRoleAdmin.Rank() }

// Membership links a user to an organization with a role.
type Membership struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           OrgRole   `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NoOrganization is the canonical organization key for rows that belong to no organization.
// Composite uniqueness on (user, organization key) only holds if "none" is a concrete value,
// so nullable organization ids are never used as keys directly.
var NoOrganization = uuid.Nil

// OrganizationKey normalizes an optional organization id into a non-null key.
func OrganizationKey(orgID *uuid.UUID) uuid.UUID {
	if orgID == nil {
		return NoOrganization
	}
	return *orgID
}

// OrganizationFromKey is the inverse of OrganizationKey.
func OrganizationFromKey(key uuid.UUID) *uuid.UUID {
	if key == NoOrganization {
		return nil
	}
	k := key
	return &k
}
