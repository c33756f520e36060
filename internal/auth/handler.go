package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/utils"
)

// UserStore is the persistence the auth handler needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := h.users.GetByEmail(c.Request.Context(), email)
	if err == nil {
		response.Conflict(c, "email already registered")
		return
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to look up user")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.users.Create(c.Request.Context(), email, hash, strings.TrimSpace(req.FullName))
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
