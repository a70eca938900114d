package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plenario/plenario/internal/shared"
)

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	InsertBatch(ctx context.Context, items []Notification) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	CouncilRecipients(ctx context.Context, councilID string) ([]Recipient, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertBatch writes a fanout of notifications in one round trip.
func (r *Repository) InsertBatch(ctx context.Context, items []Notification) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, n := range items {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO notifications (id, user_id, council_id, kind, title, body, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			id, n.UserID, n.CouncilID, string(n.Kind), n.Title, n.Body)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()
	for range items {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListForUser returns the user's feed, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, council_id, kind, title, body, read_at, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.CouncilID, &kind, &n.Title, &n.Body,
			&n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		n.Kind = Kind(kind)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead stamps one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
			id, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
	}
	return nil
}

// MarkAllRead stamps the user's entire feed as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, userID)
	return err
}

// CouncilRecipients lists the active members of a council for fanout.
func (r *Repository) CouncilRecipients(ctx context.Context, councilID string) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, accept_notifications FROM users
		 WHERE council_id = $1 AND is_active ORDER BY name`, councilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.AcceptNotifications); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
