package councils

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/platform/db"
	"github.com/plenario/plenario/internal/shared"
)

// RepositoryPort defines data access methods for councils.
type RepositoryPort interface {
	List(ctx context.Context, limit, offset int) ([]Council, int, error)
	Get(ctx context.Context, id string) (*Council, error)
	Create(ctx context.Context, input CouncilInput) (*Council, error)
	Update(ctx context.Context, id string, input CouncilInput) (*Council, error)
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

const columns = `id, name, city, state, active, created_at, updated_at`

// List returns councils ordered by name.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Council, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM councils`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM councils ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Council
	for rows.Next() {
		council, err := scanCouncil(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, council)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches one council by id.
func (r *Repository) Get(ctx context.Context, id string) (*Council, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM councils WHERE id = $1`, id)
	council, err := scanCouncil(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &council, nil
}

// Create inserts a new council.
func (r *Repository) Create(ctx context.Context, input CouncilInput) (*Council, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO councils (id, name, city, state, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW()) RETURNING `+columns,
		uuid.NewString(), input.Name, input.City, input.State)
	council, err := scanCouncil(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrConflict
		}
		return nil, err
	}
	return &council, nil
}

// Update modifies an existing council.
func (r *Repository) Update(ctx context.Context, id string, input CouncilInput) (*Council, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE councils SET name = $2, city = $3, state = $4, updated_at = NOW() WHERE id = $1 RETURNING `+columns,
		id, input.Name, input.City, input.State)
	council, err := scanCouncil(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &council, nil
}

// Deactivate disables a council without deleting its history. Its members
// are deactivated in the same transaction so nobody keeps signing in to a
// closed council.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE councils SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE council_id = $1`, id)
		return err
	})
}

func scanCouncil(row pgx.Row) (Council, error) {
	var council Council
	err := row.Scan(&council.ID, &council.Name, &council.City, &council.State, &council.Active, &council.CreatedAt, &council.UpdatedAt)
	return council, err
}

var _ RepositoryPort = (*Repository)(nil)
