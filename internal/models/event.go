package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility of an event.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityUnlisted = "unlisted"
)

// Event status.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// ValidVisibility reports whether v is a known visibility.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate || v == VisibilityUnlisted
}

// ValidEventStatus reports whether s is a known status.
func ValidEventStatus(s string) bool {
	return s == EventStatusDraft || s == EventStatusPublished || s == EventStatusCancelled
}

// Event is a schedulable happening owned by an individual or an organization.
type Event struct {
	ID            uuid.UUID    `json:"id"`
	Slug          string       `json:"slug"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	StartAt       time.Time    `json:"start_at"`
	EndAt         *time.Time   `json:"end_at,omitempty"`
	Venue         string       `json:"venue"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	Country       string       `json:"country"`
	CoverImageURL string       `json:"cover_image_url"`
	MaxAttendees  *int         `json:"max_attendees,omitempty"`
	Category      string       `json:"category"`
	Visibility    string       `json:"visibility"`
	Status        string       `json:"status"`
	Owner         OwnerContext `json:"owner_context"`
	CreatedBy     uuid.UUID    `json:"created_by"`
	TemplateID    *uuid.UUID   `json:"template_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TicketTier is a priced admission level for an event.
type TicketTier struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Quantity    *int      `json:"quantity,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPaid reports whether the tier costs money.
func (t TicketTier) IsPaid() bool { return t.PriceCents > 0 }
