package payouts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

// Repository handles payout_accounts persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payouts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, owner_context_type, owner_context_id, provider, provider_account_id, status, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.PayoutAccount, error) {
	var a models.PayoutAccount
	var ownerType, status string
	if err := row.Scan(&a.ID, &ownerType, &a.Owner.ID, &a.Provider, &a.ProviderAccountID, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Owner.Type = models.OwnerType(ownerType)
	a.Status = models.PayoutStatus(status)
	return &a, nil
}

// Get returns the payout account for owner, or (nil, nil) when none exists.
func (r *Repository) Get(ctx context.Context, owner models.OwnerContext) (*models.PayoutAccount, error) {
	const q = `SELECT ` + accountColumns + ` FROM payout_accounts
		WHERE owner_context_type = $1 AND owner_context_id = $2`
	a, err := scanAccount(r.pool.QueryRow(ctx, q, string(owner.Type), owner.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// StatusOf returns the verification status of owner's payout account, PayoutStatusMissing when absent.
func (r *Repository) StatusOf(ctx context.Context, owner models.OwnerContext) (models.PayoutStatus, error) {
	const q = `SELECT status FROM payout_accounts WHERE owner_context_type = $1 AND owner_context_id = $2`
	var status string
	err := r.pool.QueryRow(ctx, q, string(owner.Type), owner.ID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PayoutStatusMissing, nil
	}
	if err != nil {
		return "", err
	}
	return models.PayoutStatus(status), nil
}

// Link creates or relinks owner's payout account. Linking a different provider account resets
// the status to pending; relinking the same account keeps it.
func (r *Repository) Link(ctx context.Context, owner models.OwnerContext, provider, providerAccountID string) (*models.PayoutAccount, error) {
	const q = `INSERT INTO payout_accounts (owner_context_type, owner_context_id, provider, provider_account_id, status)
		VALUES ($1, $2, $3, $4, 'pending')
		ON CONFLICT (owner_context_type, owner_context_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			provider_account_id = EXCLUDED.provider_account_id,
			status = CASE
				WHEN payout_accounts.provider = EXCLUDED.provider
				 AND payout_accounts.provider_account_id = EXCLUDED.provider_account_id
				THEN payout_accounts.status
				ELSE 'pending'
			END,
			updated_at = NOW()
		RETURNING ` + accountColumns
	return scanAccount(r.pool.QueryRow(ctx, q, string(owner.Type), owner.ID, provider, providerAccountID))
}

// SetStatus records a provider-reported status on owner's account.
func (r *Repository) SetStatus(ctx context.Context, owner models.OwnerContext, status models.PayoutStatus) (*models.PayoutAccount, error) {
	const q = `UPDATE payout_accounts SET status = $3, updated_at = NOW()
		WHERE owner_context_type = $1 AND owner_context_id = $2
		RETURNING ` + accountColumns
	a, err := scanAccount(r.pool.QueryRow(ctx, q, string(owner.Type), owner.ID, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}
