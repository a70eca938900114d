package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, councilID string, limit, offset int) ([]User, int, error)
	Get(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, input CreateUserInput, passwordHash string) (*User, error)
	UpdateProfile(ctx context.Context, id string, input UpdateUserInput) (*User, error)
	AssignRole(ctx context.Context, id, role, councilID string) (*User, error)
	Deactivate(ctx context.Context, id string) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, name, email, role, COALESCE(council_id::text, ''), COALESCE(avatar_url, ''), accept_notifications, is_active, created_at, updated_at`

// List returns users, optionally restricted to one council, newest first.
func (r *Repository) List(ctx context.Context, councilID string, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1 = '' OR council_id::text = $1)`, councilID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM users WHERE ($1 = '' OR council_id::text = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		councilID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches one user by id.
func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new account.
func (r *Repository) Create(ctx context.Context, input CreateUserInput, passwordHash string) (*User, error) {
	id := uuid.NewString()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, council_id, avatar_url, accept_notifications, is_active, created_at, updated_at)
		 VALUES ($1, $2, lower($3), $4, $5, NULLIF($6, '')::uuid, NULLIF($7, ''), TRUE, TRUE, NOW(), NOW())
		 RETURNING `+columns,
		id, input.Name, input.Email, passwordHash, input.Role, input.CouncilID, input.AvatarURL)
	user, err := scanUser(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	return &user, nil
}

// UpdateProfile applies the self-service profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id string, input UpdateUserInput) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			avatar_url = COALESCE($3, avatar_url),
			accept_notifications = COALESCE($4, accept_notifications),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+columns,
		id, input.Name, input.AvatarURL, input.AcceptNotifications)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, mapPGError(err)
	}
	return &user, nil
}

// AssignRole moves a user to a role and council.
func (r *Repository) AssignRole(ctx context.Context, id, role, councilID string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, council_id = NULLIF($3, '')::uuid, updated_at = NOW() WHERE id = $1 RETURNING `+columns,
		id, role, councilID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Deactivate soft-deletes an account.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CouncilID, &user.AvatarURL,
		&user.AcceptNotifications, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrConflict
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
