package drafts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles event_drafts persistence. Every statement runs in a caller-scoped transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a drafts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores payload as the caller's draft for orgKey in a single INSERT ... ON CONFLICT.
// An existing row is updated in place and keeps its id.
func (r *Repository) Upsert(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID, payload json.RawMessage) (uuid.UUID, error) {
	const q = `INSERT INTO event_drafts (user_id, organization_id, payload, last_saved_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, organization_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			last_saved_at = NOW()
		RETURNING id`
	var id uuid.UUID
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, caller, models.OrganizationFromKey(orgKey), []byte(payload)).Scan(&id)
	})
	return id, err
}

// Get returns the caller's draft for orgKey, or (nil, nil) when none exists.
func (r *Repository) Get(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID) (*models.EventDraft, error) {
	const q = `SELECT id, user_id, organization_id, payload, last_saved_at
		FROM event_drafts WHERE user_id = $1 AND organization_key = $2`
	var d *models.EventDraft
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		var row models.EventDraft
		var payload []byte
		err := tx.QueryRow(ctx, q, caller, orgKey).Scan(&row.ID, &row.UserID, &row.OrganizationID, &payload, &row.LastSavedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		row.Payload = payload
		d = &row
		return nil
	})
	return d, err
}

// Delete removes the caller's draft for orgKey. Deleting an absent draft is not an error.
func (r *Repository) Delete(ctx context.Context, caller uuid.UUID, orgKey uuid.UUID) error {
	return database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM event_drafts WHERE user_id = $1 AND organization_key = $2`, caller, orgKey)
		return err
	})
}
