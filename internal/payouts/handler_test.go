package payouts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
)

type memAccounts map[models.OwnerContext]*models.PayoutAccount

func (m memAccounts) Get(_ context.Context, owner models.OwnerContext) (*models.PayoutAccount, error) {
	return m[owner], nil
}

func (m memAccounts) Link(_ context.Context, owner models.OwnerContext, provider, acct string) (*models.PayoutAccount, error) {
	a := &models.PayoutAccount{ID: uuid.New(), Owner: owner, Provider: provider, ProviderAccountID: acct, Status: models.PayoutStatusPending}
	m[owner] = a
	return a, nil
}

func (m memAccounts) SetStatus(_ context.Context, owner models.OwnerContext, status models.PayoutStatus) (*models.PayoutAccount, error) {
	a := m[owner]
	if a == nil {
		return nil, nil
	}
	a.Status = status
	return a, nil
}

type fakeVerifier struct {
	status models.PayoutStatus
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (models.PayoutStatus, error) {
	f.calls++
	return f.status, f.err
}

type managers map[[2]uuid.UUID]bool

func (m managers) HasAnyRole(_ context.Context, org, user uuid.UUID, _ ...models.OrgRole) (bool, error) {
	return m[[2]uuid.UUID{org, user}], nil
}

func newRouter(store Store, members Members, caller uuid.UUID) *gin.Engine {
	return newRouterWithVerifier(store, members, nil, caller)
}

func newRouterWithVerifier(store Store, members Members, v Verifier, caller uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, members, v, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, caller); c.Next() })
	r.GET("/payout-accounts", h.Get)
	r.PUT("/payout-accounts", h.Link)
	r.POST("/payout-accounts/sync", h.Sync)
	return r
}

func TestGet_MissingAccountReportsMissing(t *testing.T) {
	caller := uuid.New()
	r := newRouter(memAccounts{}, managers{}, caller)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/payout-accounts", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"missing"`)
}

func TestGet_OtherIndividualHidden(t *testing.T) {
	r := newRouter(memAccounts{}, managers{}, uuid.New())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/payout-accounts?owner_context_type=individual&owner_context_id="+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLink_OrganizationRequiresManager(t *testing.T) {
	caller := uuid.New()
	org := uuid.New()
	accounts := memAccounts{}
	body, _ := json.Marshal(LinkRequest{OwnerContextType: "organization", OwnerContextID: org.String(), ProviderAccountID: "acct_1"})

	rr := httptest.NewRecorder()
	newRouter(accounts, managers{}, caller).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/payout-accounts", bytes.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	newRouter(accounts, managers{{org, caller}: true}, caller).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/payout-accounts", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	acct := accounts[models.OrganizationOwner(org)]
	require.NotNil(t, acct)
	assert.Equal(t, "stripe", acct.Provider)
	assert.Equal(t, models.PayoutStatusPending, acct.Status)
}

func syncBody(t *testing.T, req SyncRequest) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestSync_UnconfiguredProviderIsUnavailable(t *testing.T) {
	r := newRouter(memAccounts{}, managers{}, uuid.New())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payout-accounts/sync", syncBody(t, SyncRequest{})))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSync_StoresProviderStatus(t *testing.T) {
	caller := uuid.New()
	owner := models.IndividualOwner(caller)
	accounts := memAccounts{owner: {ID: uuid.New(), Owner: owner, Provider: ProviderStripe, ProviderAccountID: "acct_1", Status: models.PayoutStatusPending}}
	v := &fakeVerifier{status: models.PayoutStatusVerified}

	rr := httptest.NewRecorder()
	newRouterWithVerifier(accounts, managers{}, v, caller).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payout-accounts/sync", syncBody(t, SyncRequest{})))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.PayoutStatusVerified, accounts[owner].Status)
	assert.Contains(t, rr.Body.String(), `"status":"verified"`)
	assert.Equal(t, 1, v.calls)
}

func TestSync_MissingAccountIsNotFound(t *testing.T) {
	v := &fakeVerifier{status: models.PayoutStatusVerified}
	rr := httptest.NewRecorder()
	newRouterWithVerifier(memAccounts{}, managers{}, v, uuid.New()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payout-accounts/sync", syncBody(t, SyncRequest{})))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, v.calls)
}

func TestSync_ProviderFailureKeepsStatus(t *testing.T) {
	caller := uuid.New()
	owner := models.IndividualOwner(caller)
	accounts := memAccounts{owner: {ID: uuid.New(), Owner: owner, Provider: ProviderStripe, ProviderAccountID: "acct_1", Status: models.PayoutStatusPending}}
	v := &fakeVerifier{err: errors.New("stripe timeout")}

	rr := httptest.NewRecorder()
	newRouterWithVerifier(accounts, managers{}, v, caller).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payout-accounts/sync", syncBody(t, SyncRequest{})))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, models.PayoutStatusPending, accounts[owner].Status)
}

func TestSync_StrangerCannotSyncOrganization(t *testing.T) {
	org := uuid.New()
	v := &fakeVerifier{status: models.PayoutStatusVerified}
	rr := httptest.NewRecorder()
	body := syncBody(t, SyncRequest{OwnerContextType: "organization", OwnerContextID: org.String()})
	newRouterWithVerifier(memAccounts{}, managers{}, v, uuid.New()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/payout-accounts/sync", body))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, v.calls)
}
