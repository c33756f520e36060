package organizations

import (
	"context"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2–64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Store is the persistence the organizations handler needs.
type Store interface {
	CreateWithOwner(ctx context.Context, org *models.Organization, userID uuid.UUID) error
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (models.OrgRole, error)
	SetMemberRole(ctx context.Context, orgID, userID uuid.UUID, role models.OrgRole) error
	ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]MyOrganization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateOrganizationRequest is the body for POST /organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// SetMemberRequest is the body for PUT /organizations/:id/members.
type SetMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"required"`
}

// CreateOrganization handles POST /organizations. The caller becomes owner.
func (h *Handler) CreateOrganization(c *gin.Context) {
	userID, _ := middleware.CallerID(c)
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	body.Slug = strings.ToLower(strings.TrimSpace(body.Slug))
	if !slugRegex.MatchString(body.Slug) {
		response.BadRequest(c, "slug must be 2–64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 1 || len(body.Name) > 255 {
		response.BadRequest(c, "name must be 1–255 characters")
		return
	}
	org := &models.Organization{Name: body.Name, Slug: body.Slug}
	if err := h.store.CreateWithOwner(c.Request.Context(), org, userID); err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an organization with this slug already exists")
			return
		}
		h.logger.Error("create organization failed", zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// ListMyOrganizations handles GET /organizations.
func (h *Handler) ListMyOrganizations(c *gin.Context) {
	userID, _ := middleware.CallerID(c)
	orgs, err := h.store.ListOrganizationsForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list organizations failed", zap.Error(err))
		response.Internal(c, "failed to load organizations")
		return
	}
	if orgs == nil {
		orgs = []MyOrganization{}
	}
	response.OK(c, orgs)
}

// ListMembers handles GET /organizations/:id/members behind RequireManager.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, _, ok := guarded(c)
	if !ok {
		response.Forbidden(c, "admin or owner role required")
		return
	}
	members, err := h.store.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list members failed", zap.Error(err))
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}

// SetMember handles PUT /organizations/:id/members behind RequireManager. Admins and owners
// may add members or change roles; only owners may grant or revoke owner.
func (h *Handler) SetMember(c *gin.Context) {
	orgID, callerRole, ok := guarded(c)
	if !ok {
		response.Forbidden(c, "admin or owner role required")
		return
	}
	var body SetMemberRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	target, _ := uuid.Parse(body.UserID)
	role := models.OrgRole(strings.ToLower(body.Role))
	if !role.Valid() {
		response.BadRequest(c, "role must be member, admin or owner")
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.RoleOf(ctx, orgID, target)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if (role == models.OrgRoleOwner || current == models.OrgRoleOwner) && callerRole != models.OrgRoleOwner {
		response.Forbidden(c, "only owners can grant or revoke owner")
		return
	}
	if err := h.store.SetMemberRole(ctx, orgID, target, role); err != nil {
		h.logger.Error("set member role failed", zap.Error(err))
		response.Internal(c, "failed to update member")
		return
	}
	response.OK(c, gin.H{"organization_id": orgID, "user_id": target, "role": role})
}
