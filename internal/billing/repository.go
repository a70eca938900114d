package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/shared"
)

// RepositoryPort defines data access methods for billing.
type RepositoryPort interface {
	ListPlans(ctx context.Context, includeInactive bool) ([]Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
	CreatePlan(ctx context.Context, input PlanInput) (*Plan, error)
	UpdatePlan(ctx context.Context, id string, input PlanInput) (*Plan, error)
	SubscriptionForUser(ctx context.Context, userID string) (*Subscription, error)
	SubscriptionForCouncil(ctx context.Context, councilID string) (*Subscription, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	UpsertSubscription(ctx context.Context, sub Subscription) error
	CouncilMemberIDs(ctx context.Context, councilID string) ([]string, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const planColumns = `id, name, price_cents, max_users, active, created_at, updated_at`

// ListPlans returns plans, active ones first.
func (r *Repository) ListPlans(ctx context.Context, includeInactive bool) ([]Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE $1 OR active ORDER BY active DESC, price_cents`,
		includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.PriceCents, &plan.MaxUsers, &plan.Active,
			&plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

// GetPlan fetches one plan by id.
func (r *Repository) GetPlan(ctx context.Context, id string) (*Plan, error) {
	var plan Plan
	err := r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id).
		Scan(&plan.ID, &plan.Name, &plan.PriceCents, &plan.MaxUsers, &plan.Active,
			&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// CreatePlan inserts a new plan.
func (r *Repository) CreatePlan(ctx context.Context, input PlanInput) (*Plan, error) {
	var plan Plan
	err := r.pool.QueryRow(ctx,
		`INSERT INTO plans (id, name, price_cents, max_users, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING `+planColumns,
		uuid.NewString(), input.Name, input.PriceCents, input.MaxUsers, input.Active).
		Scan(&plan.ID, &plan.Name, &plan.PriceCents, &plan.MaxUsers, &plan.Active,
			&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrConflict
		}
		return nil, err
	}
	return &plan, nil
}

// UpdatePlan rewrites a plan.
func (r *Repository) UpdatePlan(ctx context.Context, id string, input PlanInput) (*Plan, error) {
	var plan Plan
	err := r.pool.QueryRow(ctx,
		`UPDATE plans SET name = $2, price_cents = $3, max_users = $4, active = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+planColumns,
		id, input.Name, input.PriceCents, input.MaxUsers, input.Active).
		Scan(&plan.ID, &plan.Name, &plan.PriceCents, &plan.MaxUsers, &plan.Active,
			&plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

const subColumns = `s.council_id, s.plan_id, s.processor_ref, s.status, s.current_period_end, s.updated_at`

// SubscriptionForUser resolves the subscription through the user's council.
func (r *Repository) SubscriptionForUser(ctx context.Context, userID string) (*Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions s
		 JOIN users u ON u.council_id = s.council_id
		 WHERE u.id = $1`, userID)
	return scanSubscription(row)
}

// SubscriptionForCouncil fetches the council's subscription mirror row.
func (r *Repository) SubscriptionForCouncil(ctx context.Context, councilID string) (*Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subColumns+` FROM subscriptions s WHERE s.council_id = $1`, councilID)
	return scanSubscription(row)
}

// ListSubscriptions returns every mirror row, used by the sync job.
func (r *Repository) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+subColumns+` FROM subscriptions s ORDER BY s.council_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

// UpsertSubscription writes the latest processor state for a council.
func (r *Repository) UpsertSubscription(ctx context.Context, sub Subscription) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (council_id, plan_id, processor_ref, status, current_period_end, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (council_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			processor_ref = EXCLUDED.processor_ref,
			status = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = NOW()`,
		sub.CouncilID, sub.PlanID, sub.ProcessorRef, sub.Status, sub.CurrentPeriodEnd)
	return err
}

// CouncilMemberIDs lists the ids of a council's members. The sync job uses
// it to drop cached verdicts after the mirror changed.
func (r *Repository) CouncilMemberIDs(ctx context.Context, councilID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE council_id = $1`, councilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.CouncilID, &sub.PlanID, &sub.ProcessorRef, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

var _ RepositoryPort = (*Repository)(nil)
