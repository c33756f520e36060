// Package access holds the row-level authorization rules for events, templates and drafts.
//
// Every rule is a pure predicate over a Subject and the row being touched. Checker
// resolves the organization half of a Subject from the membership store, and only
// when the creator/owner match or a public flag has not already decided.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
)

// ErrForbidden is returned when a predicate rejects the caller.
var ErrForbidden = errors.New("forbidden")

// Subject is the acting identity as a predicate sees it.
type Subject struct {
	UserID uuid.UUID
	// OrgManager is set when UserID holds admin or owner in the row's organization.
	OrgManager bool
}

// SubjectWithRole builds a Subject from the caller's role in the row's organization.
func SubjectWithRole(userID uuid.UUID, role models.OrgRole) Subject {
	return Subject{UserID: userID, OrgManager: role.CanManage()}
}

// CanWriteEvent allows the creator, or an admin/owner of the owning organization.
func CanWriteEvent(s Subject, e *models.Event) bool {
	if e == nil || s.UserID == uuid.Nil {
		return false
	}
	if e.CreatedBy == s.UserID {
		return true
	}
	return e.Owner.IsOrganization() && s.OrgManager
}

// CanReadEvent allows anyone to read published public events; everything else follows CanWriteEvent.
func CanReadEvent(s Subject, e *models.Event) bool {
	if e == nil {
		return false
	}
	if e.Visibility == models.VisibilityPublic && e.Status == models.EventStatusPublished {
		return true
	}
	return CanWriteEvent(s, e)
}

// CanManageTemplate allows the owning user, or an admin/owner of the owning organization.
func CanManageTemplate(s Subject, t *models.EventTemplate) bool {
	if t == nil {
		return false
	}
	return ownsScoped(s, t.UserID, t.OrganizationID)
}

// CanReadTemplate is CanManageTemplate plus read access to any public template.
func CanReadTemplate(s Subject, t *models.EventTemplate) bool {
	if t == nil {
		return false
	}
	return t.IsPublic || CanManageTemplate(s, t)
}

// CanAccessDraft has the template shape with no public carve-out.
func CanAccessDraft(s Subject, d *models.EventDraft) bool {
	if d == nil {
		return false
	}
	return ownsScoped(s, d.UserID, d.OrganizationID)
}

func ownsScoped(s Subject, ownerID uuid.UUID, orgID *uuid.UUID) bool {
	if s.UserID == uuid.Nil {
		return false
	}
	if ownerID == s.UserID {
		return true
	}
	return orgID != nil && s.OrgManager
}

// MembershipChecker answers whether a user holds one of roles in an organization.
// Implementations must use an existence test, not a join.
type MembershipChecker interface {
	HasAnyRole(ctx context.Context, orgID, userID uuid.UUID, roles ...models.OrgRole) (bool, error)
}

// Checker evaluates the predicates against live membership data.
type Checker struct {
	members MembershipChecker
}

// NewChecker creates a Checker backed by members.
func NewChecker(members MembershipChecker) *Checker {
	return &Checker{members: members}
}

// subject resolves OrgManager only when decided is false and an organization is involved.
func (c *Checker) subject(ctx context.Context, caller uuid.UUID, orgID *uuid.UUID, decided bool) (Subject, error) {
	s := Subject{UserID: caller}
	if decided || orgID == nil || caller == uuid.Nil {
		return s, nil
	}
	ok, err := c.members.HasAnyRole(ctx, *orgID, caller, models.OrgRoleAdmin, models.OrgRoleOwner)
	if err != nil {
		return s, err
	}
	s.OrgManager = ok
	return s, nil
}

// CanWriteEvent reports whether caller may insert or update e.
func (c *Checker) CanWriteEvent(ctx context.Context, caller uuid.UUID, e *models.Event) (bool, error) {
	if e == nil {
		return false, nil
	}
	s, err := c.subject(ctx, caller, e.Owner.OrganizationID(), e.CreatedBy == caller)
	if err != nil {
		return false, err
	}
	return CanWriteEvent(s, e), nil
}

// CanReadEvent reports whether caller may read e.
func (c *Checker) CanReadEvent(ctx context.Context, caller uuid.UUID, e *models.Event) (bool, error) {
	if e == nil {
		return false, nil
	}
	if CanReadEvent(Subject{UserID: caller}, e) {
		return true, nil
	}
	return c.CanWriteEvent(ctx, caller, e)
}

// CanManageTemplate reports whether caller may update or delete t.
func (c *Checker) CanManageTemplate(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) (bool, error) {
	if t == nil {
		return false, nil
	}
	s, err := c.subject(ctx, caller, t.OrganizationID, t.UserID == caller)
	if err != nil {
		return false, err
	}
	return CanManageTemplate(s, t), nil
}

// CanReadTemplate reports whether caller may read or instantiate t.
func (c *Checker) CanReadTemplate(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) (bool, error) {
	if t == nil {
		return false, nil
	}
	s, err := c.subject(ctx, caller, t.OrganizationID, t.IsPublic || t.UserID == caller)
	if err != nil {
		return false, err
	}
	return CanReadTemplate(s, t), nil
}

// CanAccessDraft reports whether caller may read or write d.
func (c *Checker) CanAccessDraft(ctx context.Context, caller uuid.UUID, d *models.EventDraft) (bool, error) {
	if d == nil {
		return false, nil
	}
	s, err := c.subject(ctx, caller, d.OrganizationID, d.UserID == caller)
	if err != nil {
		return false, err
	}
	return CanAccessDraft(s, d), nil
}
