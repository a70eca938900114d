package matters

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/shared"
)

// ListFilter narrows and orders a matter listing.
type ListFilter struct {
	CouncilID string
	SessionID string
	Status    Status
	Search    string
	SortBy    string
	SortDesc  bool
	Limit     int
	Offset    int
}

// RepositoryPort defines data access methods for matters.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Matter, int, error)
	Get(ctx context.Context, id string) (*Matter, error)
	Create(ctx context.Context, councilID string, input MatterInput) (*Matter, error)
	Update(ctx context.Context, id string, input MatterInput) (*Matter, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, council_id, COALESCE(session_id::text, ''), code, title, summary, author, status, created_at, updated_at`

var sortColumns = map[string]string{
	"":          "created_at",
	"createdAt": "created_at",
	"code":      "code",
	"title":     "title",
	"status":    "status",
}

// List returns matters for a council with optional search over the folded
// search text.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Matter, int, error) {
	sortCol, ok := sortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}
	search := ""
	if filter.Search != "" {
		search = "%" + SearchKey(filter.Search) + "%"
	}

	const where = `council_id = $1
		AND ($2 = '' OR session_id::text = $2)
		AND ($3 = '' OR status = $3)
		AND ($4 = '' OR search_text LIKE $4)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM matters WHERE `+where,
		filter.CouncilID, filter.SessionID, string(filter.Status), search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM matters WHERE %s ORDER BY %s %s LIMIT $5 OFFSET $6`, columns, where, sortCol, order),
		filter.CouncilID, filter.SessionID, string(filter.Status), search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Matter
	for rows.Next() {
		matter, err := scanMatter(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, matter)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches one matter by id.
func (r *Repository) Get(ctx context.Context, id string) (*Matter, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM matters WHERE id = $1`, id)
	matter, err := scanMatter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &matter, nil
}

// Create inserts a new matter.
func (r *Repository) Create(ctx context.Context, councilID string, input MatterInput) (*Matter, error) {
	status := input.Status
	if status == "" {
		status = StatusDraft
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO matters (id, council_id, session_id, code, title, summary, author, status, search_text, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING `+columns,
		uuid.NewString(), councilID, input.SessionID, input.Code, input.Title, input.Summary, input.Author,
		string(status), SearchKey(input.Code, input.Title, input.Summary, input.Author))
	matter, err := scanMatter(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrConflict
		}
		return nil, err
	}
	return &matter, nil
}

// Update rewrites a matter.
func (r *Repository) Update(ctx context.Context, id string, input MatterInput) (*Matter, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE matters SET session_id = NULLIF($2, '')::uuid, code = $3, title = $4, summary = $5, author = $6,
			status = COALESCE(NULLIF($7, ''), status), search_text = $8, updated_at = NOW()
		 WHERE id = $1 RETURNING `+columns,
		id, input.SessionID, input.Code, input.Title, input.Summary, input.Author, string(input.Status),
		SearchKey(input.Code, input.Title, input.Summary, input.Author))
	matter, err := scanMatter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &matter, nil
}

func scanMatter(row pgx.Row) (Matter, error) {
	var matter Matter
	var status string
	err := row.Scan(&matter.ID, &matter.CouncilID, &matter.SessionID, &matter.Code, &matter.Title, &matter.Summary,
		&matter.Author, &status, &matter.CreatedAt, &matter.UpdatedAt)
	matter.Status = Status(status)
	return matter, err
}

var _ RepositoryPort = (*Repository)(nil)
