package templates

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

// CodeNotFound is the error code for a template that is absent or not readable.
const CodeNotFound = "access-denied-or-not-found"

// Handler serves the template endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a templates handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest is the body for POST /templates.
type CreateRequest struct {
	OrganizationID *uuid.UUID      `json:"organization_id"`
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Payload        json.RawMessage `json:"payload"`
	IsPublic       bool            `json:"is_public"`
}

// UpdateRequest is the body for PATCH /templates/:id.
type UpdateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Payload     json.RawMessage `json:"payload"`
	IsPublic    *bool           `json:"is_public"`
}

// InstantiateResponse is returned by POST /templates/:id/instantiate.
type InstantiateResponse struct {
	TemplateID uuid.UUID       `json:"template_id"`
	Payload    json.RawMessage `json:"payload"`
}

func templateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /templates.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	if req.OrganizationID != nil && *req.OrganizationID == uuid.Nil {
		req.OrganizationID = nil
	}
	caller, _ := middleware.CallerID(c)
	t, err := h.svc.Create(c.Request.Context(), caller, CreateInput{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		Payload:        req.Payload,
		IsPublic:       req.IsPublic,
	})
	if err != nil {
		h.fail(c, "create template", err)
		return
	}
	response.Created(c, t)
}

// List handles GET /templates.
func (h *Handler) List(c *gin.Context) {
	caller, _ := middleware.CallerID(c)
	list, err := h.svc.List(c.Request.Context(), caller)
	if err != nil {
		h.fail(c, "list templates", err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /templates/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}
	caller, _ := middleware.CallerID(c)
	t, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.fail(c, "get template", err)
		return
	}
	response.OK(c, t)
}

// Update handles PATCH /templates/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	caller, _ := middleware.CallerID(c)
	t, err := h.svc.Update(c.Request.Context(), caller, id, UpdateInput(req))
	if err != nil {
		h.fail(c, "update template", err)
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /templates/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}
	caller, _ := middleware.CallerID(c)
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		h.fail(c, "delete template", err)
		return
	}
	response.NoContent(c)
}

// Instantiate handles POST /templates/:id/instantiate.
func (h *Handler) Instantiate(c *gin.Context) {
	id, ok := templateID(c)
	if !ok {
		return
	}
	caller, _ := middleware.CallerID(c)
	payload, err := h.svc.Instantiate(c.Request.Context(), caller, id)
	if err != nil {
		h.fail(c, "instantiate template", err)
		return
	}
	response.OK(c, InstantiateResponse{TemplateID: id, Payload: payload})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Fail(c, http.StatusNotFound, CodeNotFound, "template not found", "")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownOrganization):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, "store-failure", op+" failed", err.Error())
	}
}
