package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/utils"
)

type memUsers struct {
	byEmail map[string]*models.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, email, hash, name string) (*models.User, error) {
	u := &models.User{ID: uuid.New(), Email: email, Password: hash, FullName: name, CreatedAt: time.Now()}
	m.byEmail[email] = u
	return u, nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, *JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
	svc := NewJWTService("secret", 1)
	h := NewHandler(&memUsers{byEmail: map[string]*models.User{}}, svc, nil)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r, svc
}

func post(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRegisterThenLogin(t *testing.T) {
	r, svc := newAuthRouter(t)

	rr := post(r, "/auth/register", RegisterRequest{Email: "Ada@Example.com", Password: "longenough", FullName: "Ada"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = post(r, "/auth/register", RegisterRequest{Email: "ada@example.com", Password: "longenough", FullName: "Ada"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = post(r, "/auth/login", LoginRequest{Email: "ada@example.com", Password: "longenough"})
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	claims, err := svc.Validate(body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, body.Data.User.ID, claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _ := newAuthRouter(t)
	require.Equal(t, http.StatusCreated, post(r, "/auth/register", RegisterRequest{Email: "b@example.com", Password: "longenough", FullName: "B"}).Code)

	rr := post(r, "/auth/login", LoginRequest{Email: "b@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegister_Validation(t *testing.T) {
	r, _ := newAuthRouter(t)
	rr := post(r, "/auth/register", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
