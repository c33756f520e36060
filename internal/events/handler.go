package events

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/storage"
)

// Handler serves the event endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateResponse is the body of a successful POST /events.
type CreateResponse struct {
	Success     bool                `json:"success"`
	Event       *models.Event       `json:"event"`
	TicketTiers []models.TicketTier `json:"ticket_tiers"`
	TierError   string              `json:"tier_error,omitempty"`
}

// PresignRequest is the body for POST /events/cover-upload-url.
type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// writeError renders err in the response envelope. Store failures carry details.
func (h *Handler) writeError(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = storeFailure("unexpected error", err)
	}
	details := ""
	if e.Code == CodeStoreFailure {
		h.logger.Error("event request failed", zap.String("path", c.FullPath()), zap.Error(err))
		if e.Err != nil {
			details = e.Err.Error()
		}
	}
	response.Fail(c, HTTPStatus(e.Code), string(e.Code), e.Msg, details)
}

func (h *Handler) caller(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CallerID(c)
	if !ok {
		h.writeError(c, fail(CodeUnauthenticated, "authentication required"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, fail(CodeInvalidInput, "invalid event id"))
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, &Error{Code: CodeInvalidInput, Msg: "invalid request body", Err: err})
		return
	}
	res, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := CreateResponse{Success: true, Event: res.Event, TicketTiers: res.Tiers}
	if res.TierErr != nil {
		out.TierError = res.TierErr.Error()
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.eventID(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, d)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.eventID(c)
	if !ok {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, &Error{Code: CodeInvalidInput, Msg: "invalid request body", Err: err})
		return
	}
	e, err := h.svc.Update(c.Request.Context(), caller, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, e)
}

// UploadCover handles POST /events/:id/cover (multipart form field "file").
func (h *Handler) UploadCover(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.eventID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxCoverSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		h.writeError(c, &Error{Code: CodeInvalidInput, Msg: "file is required", Err: err})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.writeError(c, &Error{Code: CodeInvalidInput, Msg: "unreadable file", Err: err})
		return
	}
	defer f.Close()
	e, err := h.svc.SetCover(c.Request.Context(), caller, id, CoverFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, e)
}

// PresignCover handles POST /events/cover-upload-url.
func (h *Handler) PresignCover(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, &Error{Code: CodeInvalidInput, Msg: "filename required", Err: err})
		return
	}
	up, err := h.svc.PresignCover(c.Request.Context(), caller, req.Filename, req.ContentType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, up)
}
