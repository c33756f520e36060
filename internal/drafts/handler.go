package drafts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/pkg/response"
)

// Handler serves the draft endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a drafts handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// SaveRequest is the body for PUT /drafts.
type SaveRequest struct {
	OrganizationID *string         `json:"organization_id"`
	Payload        json.RawMessage `json:"payload"`
}

func parseOrg(raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil || id == uuid.Nil {
		return nil, false
	}
	return &id, true
}

func orgFromQuery(c *gin.Context) (*uuid.UUID, bool) {
	v, ok := c.GetQuery("organization_id")
	if !ok {
		return nil, true
	}
	return parseOrg(&v)
}

// Save handles PUT /drafts.
func (h *Handler) Save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orgID, ok := parseOrg(req.OrganizationID)
	if !ok {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	caller, _ := middleware.CallerID(c)
	id, err := h.svc.Save(c.Request.Context(), caller, orgID, req.Payload)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}

// Load handles GET /drafts?organization_id=.
func (h *Handler) Load(c *gin.Context) {
	orgID, ok := orgFromQuery(c)
	if !ok {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	caller, _ := middleware.CallerID(c)
	loaded, err := h.svc.Load(c.Request.Context(), caller, orgID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, loaded)
}

// Discard handles DELETE /drafts?organization_id=.
func (h *Handler) Discard(c *gin.Context) {
	orgID, ok := orgFromQuery(c)
	if !ok {
		response.BadRequest(c, "invalid organization_id")
		return
	}
	caller, _ := middleware.CallerID(c)
	if err := h.svc.Discard(c.Request.Context(), caller, orgID); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	default:
		h.logger.Error("draft operation failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, "store-failure", "draft operation failed", err.Error())
	}
}
