package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/shared"
)

// ListFilter narrows and orders a session listing.
type ListFilter struct {
	CouncilID string
	Status    Status
	SortDesc  bool
	Limit     int
	Offset    int
}

// RepositoryPort defines data access methods for sessions.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Session, int, error)
	Get(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, councilID string, input SessionInput) (*Session, error)
	Update(ctx context.Context, id string, input SessionInput) (*Session, error)
	SetStatus(ctx context.Context, id string, status Status) (*Session, error)
	ListUpcoming(ctx context.Context, within int) ([]Session, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, council_id, number, kind, status, scheduled_at, created_at, updated_at`

// List returns sessions for a council ordered by scheduled date.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Session, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM council_sessions WHERE council_id = $1 AND ($2 = '' OR status = $2)`,
		filter.CouncilID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM council_sessions WHERE council_id = $1 AND ($2 = '' OR status = $2) ORDER BY scheduled_at %s LIMIT $3 OFFSET $4`, columns, order),
		filter.CouncilID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches one session by id.
func (r *Repository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM council_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Create inserts a new scheduled session.
func (r *Repository) Create(ctx context.Context, councilID string, input SessionInput) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO council_sessions (id, council_id, number, kind, status, scheduled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING `+columns,
		uuid.NewString(), councilID, input.Number, string(input.Kind), string(StatusScheduled), input.ScheduledAt.UTC())
	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Update rewrites the schedulable fields of a session.
func (r *Repository) Update(ctx context.Context, id string, input SessionInput) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE council_sessions SET number = $2, kind = $3, scheduled_at = $4, updated_at = NOW() WHERE id = $1 RETURNING `+columns,
		id, input.Number, string(input.Kind), input.ScheduledAt.UTC())
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// SetStatus stores a new lifecycle status.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) (*Session, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE council_sessions SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+columns,
		id, string(status))
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// ListUpcoming returns scheduled sessions within the next given hours,
// feeding the reminder job.
func (r *Repository) ListUpcoming(ctx context.Context, withinHours int) ([]Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM council_sessions
		 WHERE status = $1 AND scheduled_at BETWEEN NOW() AND NOW() + ($2 || ' hours')::interval
		 ORDER BY scheduled_at`, string(StatusScheduled), withinHours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (Session, error) {
	var sess Session
	var kind, status string
	err := row.Scan(&sess.ID, &sess.CouncilID, &sess.Number, &kind, &status, &sess.ScheduledAt, &sess.CreatedAt, &sess.UpdatedAt)
	sess.Kind = Kind(kind)
	sess.Status = Status(status)
	return sess, err
}

var _ RepositoryPort = (*Repository)(nil)
