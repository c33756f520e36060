// Package templates manages reusable event blueprints and their instantiation.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
)

var (
	// ErrNotFound covers both an absent template and one the caller may not read.
	ErrNotFound = errors.New("template not found")
	// ErrForbidden is returned when the caller can read but not manage a template.
	ErrForbidden = errors.New("template access denied")
	// ErrConflict is returned when the name is taken in the (user, organization) scope.
	ErrConflict = errors.New("template name already exists")
	// ErrUnknownOrganization is returned when organization_id does not exist.
	ErrUnknownOrganization = errors.New("organization does not exist")
	// ErrInvalidInput is returned for a missing name or malformed payload.
	ErrInvalidInput = errors.New("invalid template input")
)

const maxNameLength = 200

// Store persists templates. Get returns (nil, nil) when the row is absent.
type Store interface {
	Create(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) error
	Get(ctx context.Context, caller, id uuid.UUID) (*models.EventTemplate, error)
	List(ctx context.Context, caller uuid.UUID) ([]models.EventTemplate, error)
	Update(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) error
	Delete(ctx context.Context, caller, id uuid.UUID) error
}

// Authorizer evaluates the template predicates.
type Authorizer interface {
	CanReadTemplate(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) (bool, error)
	CanManageTemplate(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) (bool, error)
}

// CreateInput is the data for a new template.
type CreateInput struct {
	OrganizationID *uuid.UUID
	Name           string
	Description    string
	Payload        json.RawMessage
	IsPublic       bool
}

// UpdateInput holds optional changes; nil fields are left alone.
type UpdateInput struct {
	Name        *string
	Description *string
	Payload     json.RawMessage
	IsPublic    *bool
}

// Service implements template operations.
type Service struct {
	store Store
	authz Authorizer
	usage UsageRecorder
}

// NewService creates a templates service.
func NewService(store Store, authz Authorizer, usage UsageRecorder) *Service {
	return &Service{store: store, authz: authz, usage: usage}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: name is too long", ErrInvalidInput)
	}
	return name, nil
}

func cleanPayload(p json.RawMessage) (json.RawMessage, error) {
	out, err := models.NormalizePayload(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return out, nil
}

// Create stores a new template owned by caller.
func (s *Service) Create(ctx context.Context, caller uuid.UUID, in CreateInput) (*models.EventTemplate, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	payload, err := cleanPayload(in.Payload)
	if err != nil {
		return nil, err
	}
	t := &models.EventTemplate{
		UserID:         caller,
		OrganizationID: in.OrganizationID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Payload:        payload,
		IsPublic:       in.IsPublic,
	}
	ok, err := s.authz.CanManageTemplate(ctx, caller, t)
	if err != nil {
		return nil, fmt.Errorf("authorize template: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	if err := s.store.Create(ctx, caller, t); err != nil {
		return nil, err
	}
	return t, nil
}

// visible loads id and applies the read predicate; failures of either kind are ErrNotFound.
func (s *Service) visible(ctx context.Context, caller, id uuid.UUID) (*models.EventTemplate, error) {
	t, err := s.store.Get(ctx, caller, id)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	ok, err := s.authz.CanReadTemplate(ctx, caller, t)
	if err != nil {
		return nil, fmt.Errorf("authorize template: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Service) manageable(ctx context.Context, caller, id uuid.UUID) (*models.EventTemplate, error) {
	t, err := s.visible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.authz.CanManageTemplate(ctx, caller, t)
	if err != nil {
		return nil, fmt.Errorf("authorize template: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return t, nil
}

// Get returns a template the caller may read.
func (s *Service) Get(ctx context.Context, caller, id uuid.UUID) (*models.EventTemplate, error) {
	return s.visible(ctx, caller, id)
}

// List returns every template the caller may read.
func (s *Service) List(ctx context.Context, caller uuid.UUID) ([]models.EventTemplate, error) {
	list, err := s.store.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make([]models.EventTemplate, 0, len(list))
	for i := range list {
		ok, err := s.authz.CanReadTemplate(ctx, caller, &list[i])
		if err != nil {
			return nil, fmt.Errorf("authorize template: %w", err)
		}
		if ok {
			out = append(out, list[i])
		}
	}
	return out, nil
}

// Update applies in to a template the caller may manage.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, in UpdateInput) (*models.EventTemplate, error) {
	t, err := s.manageable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if t.Name, err = cleanName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Payload != nil {
		if t.Payload, err = cleanPayload(in.Payload); err != nil {
			return nil, err
		}
	}
	if in.IsPublic != nil {
		t.IsPublic = *in.IsPublic
	}
	if err := s.store.Update(ctx, caller, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template the caller may manage.
func (s *Service) Delete(ctx context.Context, caller, id uuid.UUID) error {
	if _, err := s.manageable(ctx, caller, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, caller, id)
}

// Instantiate returns the payload of a readable template and records one use.
// The usage write never affects the result.
func (s *Service) Instantiate(ctx context.Context, caller, id uuid.UUID) (json.RawMessage, error) {
	t, err := s.visible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if s.usage != nil {
		s.usage.Record(ctx, t.ID, caller)
	}
	if len(t.Payload) == 0 {
		return models.EmptyPayload, nil
	}
	return t.Payload, nil
}
