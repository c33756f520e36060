package drafts

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/access"
	"github.com/aura-events/backend/internal/middleware"
)

func newRouter(caller uuid.UUID) (*gin.Engine, *memStore) {
	gin.SetMode(gin.TestMode)
	store := newMemStore()
	h := NewHandler(NewService(store, access.NewChecker(noMembers{})), nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, caller); c.Next() })
	r.PUT("/drafts", h.Save)
	r.GET("/drafts", h.Load)
	r.DELETE("/drafts", h.Discard)
	return r, store
}

func TestHandler_SaveLoadDiscard(t *testing.T) {
	r, store := newRouter(uuid.New())
	org := uuid.NewString()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/drafts",
		bytes.NewBufferString(`{"organization_id":"`+org+`","payload":{"title":"Jam"}}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, store.rows, 1)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/drafts?organization_id="+org, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"Jam"`)
	assert.Contains(t, rr.Body.String(), `"found":true`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/drafts", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"found":false`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/drafts?organization_id="+org, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, store.rows)
}

func TestHandler_BadInput(t *testing.T) {
	r, _ := newRouter(uuid.New())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/drafts?organization_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/drafts", bytes.NewBufferString(`{"payload":"text"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
