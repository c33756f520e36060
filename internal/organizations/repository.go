package organizations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

// Repository handles organization and organization_members persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithOwner creates an organization and makes userID its owner in one transaction.
func (r *Repository) CreateWithOwner(ctx context.Context, org *models.Organization, userID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `INSERT INTO organizations (name, slug) VALUES ($1, $2)
			RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, q, org.Name, org.Slug).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1, $2, $3)`,
			org.ID, userID, string(models.OrgRoleOwner))
		return err
	})
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Exists reports whether an organization with id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// SetMemberRole adds a user to an organization or changes their role.
func (r *Repository) SetMemberRole(ctx context.Context, orgID, userID uuid.UUID, role models.OrgRole) error {
	const q = `INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, orgID, userID, string(role))
	return err
}

// RoleOf returns the user's role in the organization, or OrgRoleNone if not a member.
func (r *Repository) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (models.OrgRole, error) {
	const q = `SELECT role FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	var role string
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OrgRoleNone, nil
	}
	if err != nil {
		return models.OrgRoleNone, err
	}
	return models.OrgRole(role), nil
}

// HasAnyRole is an existence test: does userID hold one of roles in orgID.
func (r *Repository) HasAnyRole(ctx context.Context, orgID, userID uuid.UUID, roles ...models.OrgRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	const q = `SELECT EXISTS (
		SELECT 1 FROM organization_members
		WHERE organization_id = $1 AND user_id = $2 AND role = ANY($3)
	)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, orgID, userID, names).Scan(&ok)
	return ok, err
}

// ListManagedMemberships returns the user's admin/owner memberships, highest role first, then oldest.
func (r *Repository) ListManagedMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	const q = `SELECT organization_id, user_id, role, created_at, updated_at
		FROM organization_members
		WHERE user_id = $1 AND role IN ('admin', 'owner')
		ORDER BY CASE role WHEN 'owner' THEN 0 ELSE 1 END, created_at, organization_id`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Membership
	for rows.Next() {
		var m models.Membership
		var role string
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &role, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = models.OrgRole(role)
		list = append(list, m)
	}
	return list, rows.Err()
}

// MyOrganization is an organization the caller belongs to, with the caller's role.
type MyOrganization struct {
	models.Organization
	Role models.OrgRole `json:"role"`
}

// ListOrganizationsForUser returns organizations the user is a member of.
func (r *Repository) ListOrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]MyOrganization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.created_at, o.updated_at, m.role
		FROM organizations o
		INNER JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []MyOrganization
	for rows.Next() {
		var o MyOrganization
		var role string
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt, &role); err != nil {
			return nil, err
		}
		o.Role = models.OrgRole(role)
		list = append(list, o)
	}
	return list, rows.Err()
}

// Member is an organization member with user details.
type Member struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email"`
	FullName string         `json:"full_name"`
	Role     models.OrgRole `json:"role"`
	AddedAt  time.Time      `json:"added_at"`
}

// ListMembers returns members of an organization.
func (r *Repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.user_id, u.email, u.full_name, m.role, m.created_at
		FROM organization_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.UserID, &m.Email, &m.FullName, &role, &m.AddedAt); err != nil {
			return nil, err
		}
		m.Role = models.OrgRole(role)
		list = append(list, m)
	}
	return list, rows.Err()
}
