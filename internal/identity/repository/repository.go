package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canna_portal_backend/platform/db"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

const (
	userColumns         = `id, full_name, email, phone, role, is_active, is_external_vendor, commission_rate, created_at`
	emailUniqueConstant = "users_email_key"
)

// Roles that may own leads. Users enabled as external vendors may own leads
// whatever their role.
var assignableRoles = []string{"consultant", "admin", "external_vendor"}

// CanOwnLeads reports whether u may be assigned leads when active.
func CanOwnLeads(u User) bool {
	if u.IsExternalVendor {
		return true
	}
	for _, role := range assignableRoles {
		if u.Role == role {
			return true
		}
	}
	return false
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID               uuid.UUID
	FullName         string
	Email            string
	Phone            *string
	Role             string
	IsActive         bool
	IsExternalVendor bool
	CommissionRate   *string
	CreatedAt        time.Time
}

type CreateClientParams struct {
	FullName string
	Email    string
	Phone    *string
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// ListLeadOwners returns users that can own leads, by name. Inactive users
// are included only when includeInactive is set.
func (r *Repository) ListLeadOwners(ctx context.Context, includeInactive bool) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE (role = ANY($1) OR is_external_vendor = true)
      AND ($2 OR is_active = true)
    ORDER BY full_name ASC
  `, assignableRoles, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) CreateClient(ctx context.Context, params CreateClientParams) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
    INSERT INTO users (full_name, email, phone, role)
    VALUES ($1, $2, $3, 'patient')
    RETURNING `+userColumns,
		params.FullName, params.Email, params.Phone))
	if db.IsUniqueViolation(err, emailUniqueConstant) {
		return User{}, ErrEmailTaken
	}
	return user, err
}

func (r *Repository) SetCommissionRate(ctx context.Context, id uuid.UUID, rate string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
    UPDATE users
    SET commission_rate = $2, updated_at = now()
    WHERE id = $1
    RETURNING `+userColumns, id, rate))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.Role, &u.IsActive, &u.IsExternalVendor, &u.CommissionRate, &u.CreatedAt)
	return u, err
}
