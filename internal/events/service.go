// Package events implements the event creation workflow and event maintenance.
package events

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/storage"
)

// OrgStore is the organization membership store.
type OrgStore interface {
	ListManagedMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PayoutStore reports the payout status of an owner context.
type PayoutStore interface {
	StatusOf(ctx context.Context, owner models.OwnerContext) (models.PayoutStatus, error)
}

// EventStore persists events and tiers. Get returns (nil, nil) when absent.
// CreateTiers is all-or-nothing and runs in its own transaction.
type EventStore interface {
	CreateEvent(ctx context.Context, caller uuid.UUID, e *models.Event) error
	CreateTiers(ctx context.Context, caller uuid.UUID, tiers []models.TicketTier) ([]models.TicketTier, error)
	Get(ctx context.Context, caller, id uuid.UUID) (*models.Event, error)
	ListTiers(ctx context.Context, caller, eventID uuid.UUID) ([]models.TicketTier, error)
	Update(ctx context.Context, caller uuid.UUID, e *models.Event) error
}

// Authorizer evaluates the event predicates.
type Authorizer interface {
	CanWriteEvent(ctx context.Context, caller uuid.UUID, e *models.Event) (bool, error)
	CanReadEvent(ctx context.Context, caller uuid.UUID, e *models.Event) (bool, error)
}

// Slugger derives a unique slug from a title.
type Slugger interface {
	Make(title string) string
}

// CoverStorage stores cover images. A nil CoverStorage disables cover endpoints.
type CoverStorage interface {
	UploadCover(ctx context.Context, eventID uuid.UUID, filename, contentType string, body io.Reader, size int64) (string, error)
	PresignCoverUpload(ctx context.Context, userID uuid.UUID, filename, contentType string) (*storage.PresignedUpload, error)
}

// CreateResult is the outcome of a successful event creation. The event always exists;
// TierErr is set when the tier batch failed, in which case Tiers is empty.
type CreateResult struct {
	Event   *models.Event
	Tiers   []models.TicketTier
	TierErr error
}

// Detail is an event with its tiers.
type Detail struct {
	Event       *models.Event       `json:"event"`
	TicketTiers []models.TicketTier `json:"ticket_tiers"`
}

// Deps are the collaborators of Service.
type Deps struct {
	Events  EventStore
	Orgs    OrgStore
	Payouts PayoutStore
	Authz   Authorizer
	Slugs   Slugger
	Covers  CoverStorage
	Logger  *zap.Logger
}

// Service runs the event workflows.
type Service struct {
	events  EventStore
	orgs    OrgStore
	payouts PayoutStore
	authz   Authorizer
	slugs   Slugger
	covers  CoverStorage
	logger  *zap.Logger
}

// NewService creates an events service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		events:  d.Events,
		orgs:    d.Orgs,
		payouts: d.Payouts,
		authz:   d.Authz,
		slugs:   d.Slugs,
		covers:  d.Covers,
		logger:  logger,
	}
}

// Create runs the creation gates in order and persists the event, then its tiers.
func (s *Service) Create(ctx context.Context, caller uuid.UUID, in CreateInput) (*CreateResult, error) {
	if caller == uuid.Nil {
		return nil, fail(CodeUnauthenticated, "authentication required")
	}
	p, err := in.parse()
	if err != nil {
		return nil, err
	}
	slug := s.slugs.Make(p.event.Title)

	owner, err := s.resolveOwner(ctx, caller, p.ownerType, p.ownerID)
	if err != nil {
		return nil, err
	}
	if owner.IsOrganization() {
		ok, err := s.orgs.Exists(ctx, owner.ID)
		if err != nil {
			return nil, storeFailure("look up organization", err)
		}
		if !ok {
			return nil, fail(CodeInvalidOwner, "organization does not exist")
		}
	}
	if hasPaidTier(p.tiers) {
		if err := s.requirePayouts(ctx, owner); err != nil {
			return nil, err
		}
	}

	e := p.event
	e.Slug = slug
	e.Owner = owner
	e.CreatedBy = caller
	ok, err := s.authz.CanWriteEvent(ctx, caller, &e)
	if err != nil {
		return nil, storeFailure("authorize event", err)
	}
	if !ok {
		return nil, fail(CodeForbidden, "not allowed to create events for this owner")
	}
	if err := s.events.CreateEvent(ctx, caller, &e); err != nil {
		return nil, storeFailure("create event", err)
	}
	s.logger.Info("event created",
		zap.String("event_id", e.ID.String()),
		zap.String("slug", e.Slug),
		zap.String("owner", e.Owner.String()))

	res := &CreateResult{Event: &e, Tiers: []models.TicketTier{}}
	if len(p.tiers) == 0 {
		return res, nil
	}
	tiers, err := s.createTiers(ctx, caller, e.ID, p.tiers)
	if err != nil {
		s.logger.Warn("ticket tiers not created", zap.String("event_id", e.ID.String()), zap.Error(err))
		res.TierErr = err
		return res, nil
	}
	res.Tiers = tiers
	return res, nil
}

func (s *Service) createTiers(ctx context.Context, caller, eventID uuid.UUID, in []TierInput) ([]models.TicketTier, error) {
	tiers, err := buildTiers(eventID, in)
	if err != nil {
		return nil, err
	}
	created, err := s.events.CreateTiers(ctx, caller, tiers)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveOwner picks the owner context. An organization request without an id falls back
// to the caller's highest-ranked managed membership, oldest first.
func (s *Service) resolveOwner(ctx context.Context, caller uuid.UUID, t models.OwnerType, id *uuid.UUID) (models.OwnerContext, error) {
	if t != models.OwnerOrganization {
		return models.IndividualOwner(caller), nil
	}
	// An explicit organization is only checked for existence, in Create. Membership is not
	// required: the write check passes on created_by, and the paid gate reads that
	// organization's payout account.
	if id != nil {
		return models.OrganizationOwner(*id), nil
	}
	memberships, err := s.orgs.ListManagedMemberships(ctx, caller)
	if err != nil {
		return models.OwnerContext{}, storeFailure("list memberships", err)
	}
	best, ok := pickOrganization(memberships)
	if !ok {
		return models.OwnerContext{}, fail(CodeNoOrganization, "no organization where you are admin or owner")
	}
	return models.OrganizationOwner(best), nil
}

func pickOrganization(ms []models.Membership) (uuid.UUID, bool) {
	managed := make([]models.Membership, 0, len(ms))
	for _, m := range ms {
		if m.Role.CanManage() {
			managed = append(managed, m)
		}
	}
	if len(managed) == 0 {
		return uuid.Nil, false
	}
	sort.SliceStable(managed, func(i, j int) bool {
		a, b := managed[i], managed[j]
		if a.Role.Rank() != b.Role.Rank() {
			return a.Role.Rank() > b.Role.Rank()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.OrganizationID.String() < b.OrganizationID.String()
	})
	return managed[0].OrganizationID, true
}

func (s *Service) requirePayouts(ctx context.Context, owner models.OwnerContext) error {
	status, err := s.payouts.StatusOf(ctx, owner)
	if err != nil {
		return storeFailure("look up payout account", err)
	}
	switch {
	case status == models.PayoutStatusMissing || status == "":
		return fail(CodePayoutRequired, "paid tickets require a payout account")
	case !status.CanReceivePayouts():
		return &Error{Code: CodePayoutUnverified, Msg: "payout account is not verified", Err: errors.New(string(status))}
	}
	return nil
}

// readable loads id and applies the read predicate; absent and hidden are both not-found.
func (s *Service) readable(ctx context.Context, caller, id uuid.UUID) (*models.Event, error) {
	e, err := s.events.Get(ctx, caller, id)
	if err != nil {
		return nil, storeFailure("load event", err)
	}
	if e == nil {
		return nil, fail(CodeNotFound, "event not found")
	}
	ok, err := s.authz.CanReadEvent(ctx, caller, e)
	if err != nil {
		return nil, storeFailure("authorize event", err)
	}
	if !ok {
		return nil, fail(CodeNotFound, "event not found")
	}
	return e, nil
}

func (s *Service) writable(ctx context.Context, caller, id uuid.UUID) (*models.Event, error) {
	e, err := s.readable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.authz.CanWriteEvent(ctx, caller, e)
	if err != nil {
		return nil, storeFailure("authorize event", err)
	}
	if !ok {
		return nil, fail(CodeForbidden, "not allowed to modify this event")
	}
	return e, nil
}

// Get returns an event the caller may read, with its tiers.
func (s *Service) Get(ctx context.Context, caller, id uuid.UUID) (*Detail, error) {
	e, err := s.readable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	tiers, err := s.events.ListTiers(ctx, caller, id)
	if err != nil {
		return nil, storeFailure("list tiers", err)
	}
	if tiers == nil {
		tiers = []models.TicketTier{}
	}
	return &Detail{Event: e, TicketTiers: tiers}, nil
}

// UpdateInput holds optional event changes.
type UpdateInput struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	StartAt       *string `json:"start_at"`
	EndAt         *string `json:"end_at"`
	Venue         *string `json:"venue"`
	CoverImageURL *string `json:"cover_image_url"`
	Visibility    *string `json:"visibility"`
	Status        *string `json:"status"`
}

func (in UpdateInput) apply(e *models.Event) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || len(title) > maxTitleLength {
			return fail(CodeInvalidInput, "title must be 1-200 characters")
		}
		e.Title = title
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Venue != nil {
		e.Venue = strings.TrimSpace(*in.Venue)
	}
	if in.CoverImageURL != nil {
		e.CoverImageURL = strings.TrimSpace(*in.CoverImageURL)
	}
	if in.StartAt != nil {
		t, err := parseTime("start_at", *in.StartAt)
		if err != nil {
			return err
		}
		e.StartAt = t
	}
	if in.EndAt != nil {
		if strings.TrimSpace(*in.EndAt) == "" {
			e.EndAt = nil
		} else {
			t, err := parseTime("end_at", *in.EndAt)
			if err != nil {
				return err
			}
			e.EndAt = &t
		}
	}
	if e.EndAt != nil && e.EndAt.Before(e.StartAt) {
		return fail(CodeInvalidInput, "end_at must not be before start_at")
	}
	if in.Visibility != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Visibility))
		if !models.ValidVisibility(v) {
			return fail(CodeInvalidInput, "visibility must be public, private or unlisted")
		}
		e.Visibility = v
	}
	if in.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*in.Status))
		if !models.ValidEventStatus(st) {
			return fail(CodeInvalidInput, "status must be draft, published or cancelled")
		}
		e.Status = st
	}
	return nil
}

// Update applies in to an event the caller may write.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, in UpdateInput) (*models.Event, error) {
	e, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(e); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, caller, e); err != nil {
		return nil, storeFailure("update event", err)
	}
	return e, nil
}

// CoverFile is an uploaded cover image.
type CoverFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func validateCover(filename, contentType string, size int64) error {
	if !storage.ValidateImageType(contentType, filename) {
		return fail(CodeInvalidInput, "cover must be a jpeg, png, webp or gif image")
	}
	if size > storage.MaxCoverSize {
		return fail(CodeInvalidInput, "cover image is too large")
	}
	return nil
}

// SetCover uploads f and points the event's cover_image_url at it.
func (s *Service) SetCover(ctx context.Context, caller, id uuid.UUID, f CoverFile) (*models.Event, error) {
	if s.covers == nil {
		return nil, fail(CodeUnavailable, "cover storage is not configured")
	}
	if err := validateCover(f.Filename, f.ContentType, f.Size); err != nil {
		return nil, err
	}
	e, err := s.writable(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	url, err := s.covers.UploadCover(ctx, e.ID, f.Filename, f.ContentType, f.Body, f.Size)
	if err != nil {
		return nil, storeFailure("upload cover", err)
	}
	e.CoverImageURL = url
	if err := s.events.Update(ctx, caller, e); err != nil {
		return nil, storeFailure("update event", err)
	}
	return e, nil
}

// PresignCover grants a direct upload for a cover the client attaches later via cover_image_url.
func (s *Service) PresignCover(ctx context.Context, caller uuid.UUID, filename, contentType string) (*storage.PresignedUpload, error) {
	if s.covers == nil {
		return nil, fail(CodeUnavailable, "cover storage is not configured")
	}
	if err := validateCover(filename, contentType, 0); err != nil {
		return nil, err
	}
	up, err := s.covers.PresignCoverUpload(ctx, caller, filename, contentType)
	if err != nil {
		return nil, storeFailure("presign cover upload", err)
	}
	return up, nil
}
