package events

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
)

const (
	maxTitleLength  = 200
	defaultCurrency = "usd"
)

// TierInput is one requested ticket tier. Price is in major currency units.
type TierInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Quantity    *int    `json:"quantity"`
}

// CreateInput is the event creation request body.
type CreateInput struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	StartAt          string      `json:"start_at"`
	EndAt            string      `json:"end_at"`
	Venue            string      `json:"venue"`
	Address          string      `json:"address"`
	City             string      `json:"city"`
	State            string      `json:"state"`
	Country          string      `json:"country"`
	CoverImageURL    string      `json:"cover_image_url"`
	MaxAttendees     *int        `json:"max_attendees"`
	Category         string      `json:"category"`
	Visibility       string      `json:"visibility"`
	OwnerContextType string      `json:"owner_context_type"`
	OwnerContextID   string      `json:"owner_context_id"`
	TemplateID       string      `json:"template_id"`
	TicketTiers      []TierInput `json:"ticket_tiers"`
}

// parsed is a CreateInput that passed the input gate.
type parsed struct {
	event     models.Event
	ownerType models.OwnerType
	ownerID   *uuid.UUID
	tiers     []TierInput
}

func parseTime(field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fail(CodeInvalidInput, field+" must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

func parseOptionalID(field, v string) (*uuid.UUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil || id == uuid.Nil {
		return nil, fail(CodeInvalidInput, field+" must be a uuid")
	}
	return &id, nil
}

// parse runs the input gate. It touches no store.
func (in CreateInput) parse() (*parsed, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fail(CodeInvalidInput, "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, fail(CodeInvalidInput, "title is too long")
	}
	if strings.TrimSpace(in.StartAt) == "" {
		return nil, fail(CodeInvalidInput, "start_at is required")
	}
	start, err := parseTime("start_at", in.StartAt)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if strings.TrimSpace(in.EndAt) != "" {
		e, err := parseTime("end_at", in.EndAt)
		if err != nil {
			return nil, err
		}
		if e.Before(start) {
			return nil, fail(CodeInvalidInput, "end_at must not be before start_at")
		}
		end = &e
	}
	visibility := strings.ToLower(strings.TrimSpace(in.Visibility))
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !models.ValidVisibility(visibility) {
		return nil, fail(CodeInvalidInput, "visibility must be public, private or unlisted")
	}
	ownerType, err := models.ParseOwnerType(strings.ToLower(strings.TrimSpace(in.OwnerContextType)))
	if err != nil {
		return nil, &Error{Code: CodeInvalidInput, Msg: "owner_context_type must be individual or organization", Err: err}
	}
	ownerID, err := parseOptionalID("owner_context_id", in.OwnerContextID)
	if err != nil {
		return nil, err
	}
	templateID, err := parseOptionalID("template_id", in.TemplateID)
	if err != nil {
		return nil, err
	}
	if in.MaxAttendees != nil && *in.MaxAttendees < 0 {
		return nil, fail(CodeInvalidInput, "max_attendees must not be negative")
	}
	return &parsed{
		event: models.Event{
			Title:         title,
			Description:   strings.TrimSpace(in.Description),
			StartAt:       start,
			EndAt:         end,
			Venue:         strings.TrimSpace(in.Venue),
			Address:       strings.TrimSpace(in.Address),
			City:          strings.TrimSpace(in.City),
			State:         strings.TrimSpace(in.State),
			Country:       strings.TrimSpace(in.Country),
			CoverImageURL: strings.TrimSpace(in.CoverImageURL),
			MaxAttendees:  in.MaxAttendees,
			Category:      strings.TrimSpace(in.Category),
			Visibility:    visibility,
			Status:        models.EventStatusDraft,
			TemplateID:    templateID,
		},
		ownerType: ownerType,
		ownerID:   ownerID,
		tiers:     in.TicketTiers,
	}, nil
}

// hasPaidTier reports whether any requested tier would be stored with a positive price.
// Prices that round to zero cents are free; unrepresentable positive prices count as paid.
func hasPaidTier(tiers []TierInput) bool {
	for _, t := range tiers {
		cents, err := toCents(t.Price)
		if cents > 0 || (err != nil && t.Price > 0) {
			return true
		}
	}
	return false
}

// toCents converts a major-unit price to integer cents.
func toCents(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, fmt.Errorf("invalid price %v", price)
	}
	cents := math.Round(price * 100)
	if cents > math.MaxInt32 {
		return 0, fmt.Errorf("price %v is too large", price)
	}
	return int64(cents), nil
}

// buildTiers validates the whole batch; one bad tier rejects all of them.
func buildTiers(eventID uuid.UUID, in []TierInput) ([]models.TicketTier, error) {
	out := make([]models.TicketTier, 0, len(in))
	for i, t := range in {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("tier %d: name is required", i)
		}
		cents, err := toCents(t.Price)
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
		currency := strings.ToLower(strings.TrimSpace(t.Currency))
		if currency == "" {
			currency = defaultCurrency
		}
		if len(currency) != 3 {
			return nil, fmt.Errorf("tier %d: currency must be a 3-letter code", i)
		}
		if t.Quantity != nil && *t.Quantity < 0 {
			return nil, fmt.Errorf("tier %d: quantity must not be negative", i)
		}
		out = append(out, models.TicketTier{
			EventID:     eventID,
			Name:        name,
			Description: strings.TrimSpace(t.Description),
			PriceCents:  cents,
			Currency:    currency,
			Quantity:    t.Quantity,
			SortOrder:   i,
		})
	}
	return out, nil
}
