package templates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles event_templates persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a templates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, user_id, organization_id, name, description, payload, is_public, usage_count, created_at, updated_at`

func scanTemplate(row pgx.Row) (*models.EventTemplate, error) {
	var t models.EventTemplate
	var payload []byte
	err := row.Scan(&t.ID, &t.UserID, &t.OrganizationID, &t.Name, &t.Description, &payload,
		&t.IsPublic, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Payload = payload
	return &t, nil
}

func mapWriteErr(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrConflict
	case database.IsForeignKeyViolation(err):
		return ErrUnknownOrganization
	case database.IsPolicyViolation(err):
		return ErrForbidden
	}
	return err
}

// Create inserts t as owned by caller and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) error {
	const q = `INSERT INTO event_templates (user_id, organization_id, name, description, payload, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, usage_count, created_at, updated_at`
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, caller, t.OrganizationID, t.Name, t.Description, []byte(t.Payload), t.IsPublic).
			Scan(&t.ID, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt)
	})
	if err != nil {
		return mapWriteErr(err)
	}
	t.UserID = caller
	return nil
}

// Get returns the template the caller can see by id, or (nil, nil).
func (r *Repository) Get(ctx context.Context, caller, id uuid.UUID) (*models.EventTemplate, error) {
	var t *models.EventTemplate
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		row, err := scanTemplate(tx.QueryRow(ctx, `SELECT `+templateColumns+` FROM event_templates WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		t = row
		return err
	})
	return t, err
}

// List returns the caller's own templates, templates of organizations the caller manages,
// and public templates, most recently updated first.
func (r *Repository) List(ctx context.Context, caller uuid.UUID) ([]models.EventTemplate, error) {
	const q = `SELECT ` + templateColumns + ` FROM event_templates t
		WHERE t.user_id = $1
		   OR t.is_public
		   OR (t.organization_id IS NOT NULL AND EXISTS (
				SELECT 1 FROM organization_members m
				WHERE m.organization_id = t.organization_id AND m.user_id = $1 AND m.role IN ('admin', 'owner')))
		ORDER BY t.updated_at DESC, t.id`
	var list []models.EventTemplate
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, q, caller)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTemplate(rows)
			if err != nil {
				return err
			}
			list = append(list, *t)
		}
		return rows.Err()
	})
	return list, err
}

// Update writes the mutable fields of t.
func (r *Repository) Update(ctx context.Context, caller uuid.UUID, t *models.EventTemplate) error {
	const q = `UPDATE event_templates SET name = $2, description = $3, payload = $4, is_public = $5, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, t.ID, t.Name, t.Description, []byte(t.Payload), t.IsPublic).Scan(&t.UpdatedAt)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// Delete removes a template by id.
func (r *Repository) Delete(ctx context.Context, caller, id uuid.UUID) error {
	return database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM event_templates WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// IncrementUsage bumps usage_count by one. It goes through a definer function because the
// caller instantiating a public template has no write access to the row.
func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `SELECT increment_template_usage($1)`, id)
	return err
}
