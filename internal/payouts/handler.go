package payouts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

// Store is the persistence the payouts handler needs.
type Store interface {
	Get(ctx context.Context, owner models.OwnerContext) (*models.PayoutAccount, error)
	Link(ctx context.Context, owner models.OwnerContext, provider, providerAccountID string) (*models.PayoutAccount, error)
	SetStatus(ctx context.Context, owner models.OwnerContext, status models.PayoutStatus) (*models.PayoutAccount, error)
}

// Members answers organization role questions.
type Members interface {
	HasAnyRole(ctx context.Context, orgID, userID uuid.UUID, roles ...models.OrgRole) (bool, error)
}

// Handler serves payout account endpoints.
type Handler struct {
	store    Store
	members  Members
	verifier Verifier
	logger   *zap.Logger
}

// NewHandler creates a payouts handler. verifier may be nil, which disables Sync.
func NewHandler(store Store, members Members, verifier Verifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, members: members, verifier: verifier, logger: logger}
}

// LinkRequest is the body for PUT /payout-accounts.
type LinkRequest struct {
	OwnerContextType  string `json:"owner_context_type"`
	OwnerContextID    string `json:"owner_context_id"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"provider_account_id" binding:"required"`
}

// ownerFor resolves the requested owner context; an empty id defaults to the caller for individuals.
func ownerFor(caller uuid.UUID, typ, id string) (models.OwnerContext, bool) {
	t, err := models.ParseOwnerType(typ)
	if err != nil {
		return models.OwnerContext{}, false
	}
	if t == models.OwnerIndividual && id == "" {
		return models.IndividualOwner(caller), true
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return models.OwnerContext{}, false
	}
	return models.OwnerContext{Type: t, ID: parsed}, true
}

// authorize allows the individual themself, or an admin/owner of the organization.
func (h *Handler) authorize(ctx context.Context, caller uuid.UUID, owner models.OwnerContext) (bool, error) {
	if !owner.IsOrganization() {
		return owner.ID == caller, nil
	}
	return h.members.HasAnyRole(ctx, owner.ID, caller, models.OrgRoleAdmin, models.OrgRoleOwner)
}

// Get handles GET /payout-accounts?owner_context_type=&owner_context_id=.
func (h *Handler) Get(c *gin.Context) {
	caller, _ := middleware.CallerID(c)
	owner, ok := ownerFor(caller, c.Query("owner_context_type"), c.Query("owner_context_id"))
	if !ok {
		response.BadRequest(c, "invalid owner context")
		return
	}
	allowed, err := h.authorize(c.Request.Context(), caller, owner)
	if err != nil {
		h.logger.Error("payout authorization failed", zap.Error(err))
		response.Internal(c, "failed to check access")
		return
	}
	if !allowed {
		response.NotFound(c, "payout account not found")
		return
	}
	acct, err := h.store.Get(c.Request.Context(), owner)
	if err != nil {
		h.logger.Error("load payout account failed", zap.Error(err), zap.Stringer("owner", owner))
		response.Internal(c, "failed to load payout account")
		return
	}
	if acct == nil {
		response.OK(c, gin.H{"owner_context": owner, "status": models.PayoutStatusMissing})
		return
	}
	response.OK(c, acct)
}

// Link handles PUT /payout-accounts. Verification itself happens at the payout provider.
func (h *Handler) Link(c *gin.Context) {
	caller, _ := middleware.CallerID(c)
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	owner, ok := ownerFor(caller, req.OwnerContextType, req.OwnerContextID)
	if !ok {
		response.BadRequest(c, "invalid owner context")
		return
	}
	allowed, err := h.authorize(c.Request.Context(), caller, owner)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	if !allowed {
		response.Forbidden(c, "not allowed to manage this payout account")
		return
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = ProviderStripe
	}
	acct, err := h.store.Link(c.Request.Context(), owner, provider, strings.TrimSpace(req.ProviderAccountID))
	if err != nil {
		h.logger.Error("link payout account failed", zap.Error(err), zap.Stringer("owner", owner))
		response.Internal(c, "failed to link payout account")
		return
	}
	response.OK(c, acct)
}

// SyncRequest is the body for POST /payout-accounts/sync.
type SyncRequest struct {
	OwnerContextType string `json:"owner_context_type"`
	OwnerContextID   string `json:"owner_context_id"`
}

// Sync handles POST /payout-accounts/sync: it asks the provider for the account status and stores it.
func (h *Handler) Sync(c *gin.Context) {
	if h.verifier == nil {
		response.ServiceUnavailable(c, "payout provider not configured")
		return
	}
	caller, _ := middleware.CallerID(c)
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	owner, ok := ownerFor(caller, req.OwnerContextType, req.OwnerContextID)
	if !ok {
		response.BadRequest(c, "invalid owner context")
		return
	}
	ctx := c.Request.Context()
	allowed, err := h.authorize(ctx, caller, owner)
	if err != nil {
		response.Internal(c, "failed to check access")
		return
	}
	if !allowed {
		response.NotFound(c, "payout account not found")
		return
	}
	acct, err := h.store.Get(ctx, owner)
	if err != nil {
		h.logger.Error("load payout account failed", zap.Error(err), zap.Stringer("owner", owner))
		response.Internal(c, "failed to load payout account")
		return
	}
	if acct == nil {
		response.NotFound(c, "payout account not found")
		return
	}
	status, err := h.verifier.Verify(ctx, acct.Provider, acct.ProviderAccountID)
	if errors.Is(err, ErrUnsupportedProvider) {
		response.BadRequest(c, "provider "+acct.Provider+" cannot be verified")
		return
	}
	if err != nil {
		h.logger.Warn("payout provider lookup failed", zap.Error(err), zap.String("provider_account_id", acct.ProviderAccountID))
		response.Fail(c, http.StatusBadGateway, "provider-failure", "payout provider lookup failed", err.Error())
		return
	}
	if status == acct.Status {
		response.OK(c, acct)
		return
	}
	updated, err := h.store.SetStatus(ctx, owner, status)
	if err != nil || updated == nil {
		h.logger.Error("store payout status failed", zap.Error(err), zap.Stringer("owner", owner))
		response.Internal(c, "failed to store payout status")
		return
	}
	h.logger.Info("payout status synced", zap.Stringer("owner", owner), zap.String("status", string(status)))
	response.OK(c, updated)
}
