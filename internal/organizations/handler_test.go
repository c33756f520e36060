package organizations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
)

type memStore struct {
	slugs map[string]bool
	roles map[[2]uuid.UUID]models.OrgRole
}

func newMemStore() *memStore {
	return &memStore{slugs: map[string]bool{}, roles: map[[2]uuid.UUID]models.OrgRole{}}
}

func (m *memStore) CreateWithOwner(_ context.Context, org *models.Organization, userID uuid.UUID) error {
	if m.slugs[org.Slug] {
		return &pgconn.PgError{Code: "23505"}
	}
	m.slugs[org.Slug] = true
	org.ID = uuid.New()
	m.roles[[2]uuid.UUID{org.ID, userID}] = models.OrgRoleOwner
	return nil
}

func (m *memStore) RoleOf(_ context.Context, orgID, userID uuid.UUID) (models.OrgRole, error) {
	return m.roles[[2]uuid.UUID{orgID, userID}], nil
}

func (m *memStore) SetMemberRole(_ context.Context, orgID, userID uuid.UUID, role models.OrgRole) error {
	m.roles[[2]uuid.UUID{orgID, userID}] = role
	return nil
}

func (m *memStore) ListOrganizationsForUser(context.Context, uuid.UUID) ([]MyOrganization, error) {
	return nil, nil
}

func (m *memStore) ListMembers(context.Context, uuid.UUID) ([]Member, error) {
	return []Member{}, nil
}

func router(store Store, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, caller); c.Next() })
	r.POST("/organizations", h.CreateOrganization)
	r.GET("/organizations", h.ListMyOrganizations)
	members := r.Group("/organizations/:id/members", RequireManager(store, nil))
	members.GET("", h.ListMembers)
	members.PUT("", h.SetMember)
	return r
}

func send(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCreateOrganization(t *testing.T) {
	store := newMemStore()
	r := router(store, uuid.New())

	rr := send(r, http.MethodPost, "/organizations", CreateOrganizationRequest{Name: "Jam Co", Slug: "Jam-Co"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, store.slugs["jam-co"])

	rr = send(r, http.MethodPost, "/organizations", CreateOrganizationRequest{Name: "Jam Co", Slug: "jam-co"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = send(r, http.MethodPost, "/organizations", CreateOrganizationRequest{Name: "X", Slug: "-"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListMyOrganizations_EmptyArray(t *testing.T) {
	rr := send(router(newMemStore(), uuid.New()), http.MethodGet, "/organizations", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rr.Body.String())
}

func TestListMembers_NonMemberSeesNotFound(t *testing.T) {
	rr := send(router(newMemStore(), uuid.New()), http.MethodGet, "/organizations/"+uuid.NewString()+"/members", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListMembers_RequiresManager(t *testing.T) {
	store := newMemStore()
	org := uuid.New()
	owner, admin, member := uuid.New(), uuid.New(), uuid.New()
	store.roles[[2]uuid.UUID{org, owner}] = models.OrgRoleOwner
	store.roles[[2]uuid.UUID{org, admin}] = models.OrgRoleAdmin
	store.roles[[2]uuid.UUID{org, member}] = models.OrgRoleMember
	path := "/organizations/" + org.String() + "/members"

	assert.Equal(t, http.StatusForbidden, send(router(store, member), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, send(router(store, admin), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, send(router(store, owner), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusBadRequest, send(router(store, owner), http.MethodGet, "/organizations/nope/members", nil).Code)
}

func TestSetMember_RoleRules(t *testing.T) {
	store := newMemStore()
	org := uuid.New()
	owner, admin, member := uuid.New(), uuid.New(), uuid.New()
	store.roles[[2]uuid.UUID{org, owner}] = models.OrgRoleOwner
	store.roles[[2]uuid.UUID{org, admin}] = models.OrgRoleAdmin
	store.roles[[2]uuid.UUID{org, member}] = models.OrgRoleMember
	path := "/organizations/" + org.String() + "/members"
	newcomer := uuid.New()

	rr := send(router(store, member), http.MethodPut, path, SetMemberRequest{UserID: newcomer.String(), Role: "member"})
	assert.Equal(t, http.StatusForbidden, rr.Code, "members cannot manage")

	rr = send(router(store, admin), http.MethodPut, path, SetMemberRequest{UserID: newcomer.String(), Role: "admin"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.OrgRoleAdmin, store.roles[[2]uuid.UUID{org, newcomer}])

	rr = send(router(store, admin), http.MethodPut, path, SetMemberRequest{UserID: newcomer.String(), Role: "owner"})
	assert.Equal(t, http.StatusForbidden, rr.Code, "admins cannot grant owner")

	rr = send(router(store, admin), http.MethodPut, path, SetMemberRequest{UserID: owner.String(), Role: "member"})
	assert.Equal(t, http.StatusForbidden, rr.Code, "admins cannot demote owners")

	rr = send(router(store, owner), http.MethodPut, path, SetMemberRequest{UserID: newcomer.String(), Role: "owner"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = send(router(store, owner), http.MethodPut, path, SetMemberRequest{UserID: newcomer.String(), Role: "king"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
