package organizations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// Context keys set by RequireManager.
const (
	ContextOrganizationID = "organization_id"
	ContextOrgRole        = "organization_role"
)

// RoleLookup returns the caller's role in an organization, OrgRoleNone when not a member.
type RoleLookup interface {
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (models.OrgRole, error)
}

// RequireManager guards /organizations/:id routes: non-members see 404, members 403.
// Call after JWT. On success the organization id and caller role are set on the context.
func RequireManager(roles RoleLookup, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		userID, _ := middleware.CallerID(c)
		role, err := roles.RoleOf(c.Request.Context(), orgID, userID)
		if err != nil {
			logger.Error("role lookup failed", zap.Error(err), zap.String("organization_id", orgID.String()))
			response.Internal(c, "failed to check membership")
			c.Abort()
			return
		}
		if !role.Valid() {
			response.NotFound(c, "organization not found")
			c.Abort()
			return
		}
		if !role.CanManage() {
			response.Forbidden(c, "admin or owner role required")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Set(ContextOrgRole, role)
		c.Next()
	}
}

// guarded returns the values RequireManager stored.
func guarded(c *gin.Context) (uuid.UUID, models.OrgRole, bool) {
	orgID, ok := c.Get(ContextOrganizationID)
	if !ok {
		return uuid.Nil, models.OrgRoleNone, false
	}
	role, _ := c.Get(ContextOrgRole)
	id, ok1 := orgID.(uuid.UUID)
	r, ok2 := role.(models.OrgRole)
	return id, r, ok1 && ok2
}
