package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EmptyPayload is the payload returned when nothing has been stored.
var EmptyPayload = json.RawMessage(`{}`)

// ErrInvalidPayload is returned for a payload that is not a JSON object.
var ErrInvalidPayload = errors.New("payload must be a JSON object")

// NormalizePayload maps an empty or null payload to {} and rejects anything but a JSON object.
func NormalizePayload(p json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(p)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyPayload, nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrInvalidPayload
	}
	return json.RawMessage(trimmed), nil
}

// EventTemplate is a named, reusable event blueprint owned by a user and optionally an organization.
type EventTemplate struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Payload        json.RawMessage `json:"payload"`
	IsPublic       bool            `json:"is_public"`
	UsageCount     int64           `json:"usage_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EventDraft is the single in-progress event payload per (user, organization key).
type EventDraft struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	LastSavedAt    time.Time       `json:"last_saved_at"`
}
