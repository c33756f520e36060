// Package drafts keeps at most one in-progress event payload per (user, organization).
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
)

var (
	// ErrInvalidPayload is returned for a payload that is not a JSON object.
	ErrInvalidPayload = models.ErrInvalidPayload
	// ErrForbidden is returned when the caller may not touch the draft scope.
	ErrForbidden = errors.New("draft access denied")
)

// Store persists drafts keyed by (user, normalized organization key).
type Store interface {
	Upsert(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID, payload json.RawMessage) (uuid.UUID, error)
	Get(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID) (*models.EventDraft, error)
	Delete(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID) error
}

// Authorizer evaluates the draft access predicate.
type Authorizer interface {
	CanAccessDraft(ctx context.Context, caller uuid.UUID, d *models.EventDraft) (bool, error)
}

// Loaded is the result of Load. Found is false and Payload is {} when nothing was saved.
type Loaded struct {
	Payload     json.RawMessage `json:"payload"`
	LastSavedAt *time.Time      `json:"last_saved_at,omitempty"`
	Found       bool            `json:"found"`
}

// Service implements save/load/discard for drafts.
type Service struct {
	store Store
	authz Authorizer
}

// NewService creates a drafts service.
func NewService(store Store, authz Authorizer) *Service {
	return &Service{store: store, authz: authz}
}

// Save replaces the caller's draft for orgID (nil for none) or creates it, returning the row id.
func (s *Service) Save(ctx context.Context, caller uuid.UUID, orgID *uuid.UUID, payload json.RawMessage) (uuid.UUID, error) {
	normalized, err := models.NormalizePayload(payload)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.authorize(ctx, caller, orgID); err != nil {
		return uuid.Nil, err
	}
	id, err := s.store.Upsert(ctx, caller, models.OrganizationKey(orgID), normalized)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save draft: %w", err)
	}
	return id, nil
}

// Load returns the caller's draft for orgID. It never reads another user's draft.
func (s *Service) Load(ctx context.Context, caller uuid.UUID, orgID *uuid.UUID) (Loaded, error) {
	if err := s.authorize(ctx, caller, orgID); err != nil {
		return Loaded{}, err
	}
	d, err := s.store.Get(ctx, caller, models.OrganizationKey(orgID))
	if err != nil {
		return Loaded{}, fmt.Errorf("load draft: %w", err)
	}
	if d == nil {
		return Loaded{Payload: models.EmptyPayload}, nil
	}
	payload := d.Payload
	if len(payload) == 0 {
		payload = models.EmptyPayload
	}
	saved := d.LastSavedAt
	return Loaded{Payload: payload, LastSavedAt: &saved, Found: true}, nil
}

// Discard deletes the caller's draft for orgID, if any.
func (s *Service) Discard(ctx context.Context, caller uuid.UUID, orgID *uuid.UUID) error {
	if err := s.authorize(ctx, caller, orgID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, caller, models.OrganizationKey(orgID)); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}
	return nil
}

// authorize checks the caller's own scope; the row is always keyed on the caller.
func (s *Service) authorize(ctx context.Context, caller uuid.UUID, orgID *uuid.UUID) error {
	ok, err := s.authz.CanAccessDraft(ctx, caller, &models.EventDraft{UserID: caller, OrganizationID: orgID})
	if err != nil {
		return fmt.Errorf("authorize draft: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
