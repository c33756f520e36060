package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/database"
)

// Repository handles events and ticket_tiers persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, slug, title, description, start_at, end_at, venue, address, city, state, country,
	cover_image_url, max_attendees, category, visibility, status, owner_context_type, owner_context_id,
	created_by, template_id, created_at, updated_at`

const tierColumns = `id, event_id, name, description, price_cents, currency, quantity, sort_order, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var ownerType string
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.StartAt, &e.EndAt, &e.Venue, &e.Address,
		&e.City, &e.State, &e.Country, &e.CoverImageURL, &e.MaxAttendees, &e.Category, &e.Visibility, &e.Status,
		&ownerType, &e.Owner.ID, &e.CreatedBy, &e.TemplateID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Owner.Type = models.OwnerType(ownerType)
	return &e, nil
}

func scanTier(row pgx.Row) (*models.TicketTier, error) {
	var t models.TicketTier
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.PriceCents, &t.Currency, &t.Quantity,
		&t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateEvent inserts e and fills in the generated fields.
func (r *Repository) CreateEvent(ctx context.Context, caller uuid.UUID, e *models.Event) error {
	const q = `INSERT INTO events (slug, title, description, start_at, end_at, venue, address, city, state, country,
			cover_image_url, max_attendees, category, visibility, status, owner_context_type, owner_context_id,
			created_by, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`
	return database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, e.Slug, e.Title, e.Description, e.StartAt, e.EndAt, e.Venue, e.Address,
			e.City, e.State, e.Country, e.CoverImageURL, e.MaxAttendees, e.Category, e.Visibility, e.Status,
			string(e.Owner.Type), e.Owner.ID, e.CreatedBy, e.TemplateID).
			Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	})
}

// CreateTiers inserts tiers as one batch in its own transaction. Either every tier is
// stored or none is.
func (r *Repository) CreateTiers(ctx context.Context, caller uuid.UUID, tiers []models.TicketTier) ([]models.TicketTier, error) {
	if len(tiers) == 0 {
		return []models.TicketTier{}, nil
	}
	const q = `INSERT INTO ticket_tiers (event_id, name, description, price_cents, currency, quantity, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + tierColumns
	created := make([]models.TicketTier, len(tiers))
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range tiers {
			t := tiers[i]
			idx := i
			batch.Queue(q, t.EventID, t.Name, t.Description, t.PriceCents, t.Currency, t.Quantity, t.SortOrder).
				QueryRow(func(row pgx.Row) error {
					got, err := scanTier(row)
					if err != nil {
						return err
					}
					created[idx] = *got
					return nil
				})
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the event by id as visible to caller, or (nil, nil).
func (r *Repository) Get(ctx context.Context, caller, id uuid.UUID) (*models.Event, error) {
	var e *models.Event
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		got, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		e = got
		return err
	})
	return e, err
}

// ListTiers returns the tiers of eventID in display order.
func (r *Repository) ListTiers(ctx context.Context, caller, eventID uuid.UUID) ([]models.TicketTier, error) {
	var list []models.TicketTier
	err := database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+tierColumns+` FROM ticket_tiers WHERE event_id = $1 ORDER BY sort_order, created_at`, eventID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTier(rows)
			if err != nil {
				return err
			}
			list = append(list, *t)
		}
		return rows.Err()
	})
	return list, err
}

// Update writes the mutable fields of e.
func (r *Repository) Update(ctx context.Context, caller uuid.UUID, e *models.Event) error {
	const q = `UPDATE events SET title = $2, description = $3, start_at = $4, end_at = $5, venue = $6,
			cover_image_url = $7, visibility = $8, status = $9, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	return database.WithCallerTx(ctx, r.pool, caller, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, q, e.ID, e.Title, e.Description, e.StartAt, e.EndAt, e.Venue,
			e.CoverImageURL, e.Visibility, e.Status).Scan(&e.UpdatedAt)
	})
}
