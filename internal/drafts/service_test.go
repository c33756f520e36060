package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/access"
	"github.com/aura-events/backend/internal/models"
)

type draftKey struct {
	user uuid.UUID
	org  uuid.UUID
}

// memStore mirrors the unique (user_id, organization_key) upsert.
type memStore struct {
	mu   sync.Mutex
	rows map[draftKey]*models.EventDraft
	err  error
}

func newMemStore() *memStore { return &memStore{rows: map[draftKey]*models.EventDraft{}} }

func (m *memStore) Upsert(_ context.Context, caller, orgKey uuid.UUID, payload json.RawMessage) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return uuid.Nil, m.err
	}
	k := draftKey{caller, orgKey}
	if row, ok := m.rows[k]; ok {
		row.Payload = payload
		row.LastSavedAt = time.Now()
		return row.ID, nil
	}
	row := &models.EventDraft{ID: uuid.New(), UserID: caller, OrganizationID: models.OrganizationFromKey(orgKey), Payload: payload, LastSavedAt: time.Now()}
	m.rows[k] = row
	return row.ID, nil
}

func (m *memStore) Get(_ context.Context, caller, orgKey uuid.UUID) (*models.EventDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[draftKey{caller, orgKey}]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, caller, orgKey uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, draftKey{caller, orgKey})
	return nil
}

type noMembers struct{}

func (noMembers) HasAnyRole(context.Context, uuid.UUID, uuid.UUID, ...models.OrgRole) (bool, error) {
	return false, nil
}

func newService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, access.NewChecker(noMembers{})), store
}

func TestSave_SameKeyTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	user := uuid.New()

	id1, err := svc.Save(ctx, user, nil, json.RawMessage(`{"title":"first"}`))
	require.NoError(t, err)
	id2, err := svc.Save(ctx, user, nil, json.RawMessage(`{"title":"second"}`))
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "update in place keeps the id")
	assert.Len(t, store.rows, 1)

	got, err := svc.Load(ctx, user, nil)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.JSONEq(t, `{"title":"second"}`, string(got.Payload))
}

func TestSave_DistinctOrganizationsAreDistinctRows(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	user := uuid.New()
	orgA, orgB := uuid.New(), uuid.New()

	idA, err := svc.Save(ctx, user, &orgA, json.RawMessage(`{"o":"a"}`))
	require.NoError(t, err)
	idB, err := svc.Save(ctx, user, &orgB, json.RawMessage(`{"o":"b"}`))
	require.NoError(t, err)
	idNone, err := svc.Save(ctx, user, nil, json.RawMessage(`{"o":"none"}`))
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
	assert.NotEqual(t, idA, idNone)
	assert.Len(t, store.rows, 3)
}

func TestLoad_AbsentReturnsEmptyPayload(t *testing.T) {
	svc, _ := newService()
	org := uuid.New()

	got, err := svc.Load(context.Background(), uuid.New(), &org)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.JSONEq(t, `{}`, string(got.Payload))
	assert.Nil(t, got.LastSavedAt)
}

func TestLoad_NeverReturnsAnotherUsersDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	org := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.Save(ctx, alice, &org, json.RawMessage(`{"secret":true}`))
	require.NoError(t, err)

	got, err := svc.Load(ctx, bob, &org)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.JSONEq(t, `{}`, string(got.Payload))
}

func TestSave_PayloadValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	user := uuid.New()

	_, err := svc.Save(ctx, user, nil, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = svc.Save(ctx, user, nil, json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = svc.Save(ctx, user, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(store.rows[draftKey{user, models.NoOrganization}].Payload))
}

func TestSave_StoreFailureIsWrapped(t *testing.T) {
	svc, store := newService()
	store.err = errors.New("connection reset")

	_, err := svc.Save(context.Background(), uuid.New(), nil, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	user := uuid.New()

	_, err := svc.Save(ctx, user, nil, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	require.NoError(t, svc.Discard(ctx, user, nil))
	require.NoError(t, svc.Discard(ctx, user, nil))
	assert.Empty(t, store.rows)
}

func TestSave_ConcurrentSameKeyNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Save(ctx, user, nil, json.RawMessage(`{"n":1}`))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, store.rows, 1)
}
