package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aura-events/backend/internal/auth"
)

type stubValidator struct {
	claims *auth.Claims
	err    error
}

func (s stubValidator) Validate(string) (*auth.Claims, error) { return s.claims, s.err }

func newRouter(v TokenValidator) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	r := gin.New()
	r.Use(JWT(v))
	r.GET("/me", func(c *gin.Context) {
		seen, _ = CallerID(c)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestJWT_MissingHeader(t *testing.T) {
	r, _ := newRouter(stubValidator{})
	rr := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"unauthenticated"`)
}

func TestJWT_MalformedHeader(t *testing.T) {
	r, _ := newRouter(stubValidator{})
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		assert.Equal(t, http.StatusUnauthorized, do(r, h).Code, h)
	}
}

func TestJWT_InvalidToken(t *testing.T) {
	r, _ := newRouter(stubValidator{err: errors.New("bad")})
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer abc").Code)
}

func TestJWT_SetsCaller(t *testing.T) {
	id := uuid.New()
	r, seen := newRouter(stubValidator{claims: &auth.Claims{UserID: id}})
	rr := do(r, "bearer abc")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, id, *seen)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://a.test, http://b.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://b.test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://b.test", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
