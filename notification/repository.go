package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and queries sent notifications.
type Repository interface {
	Save(ctx context.Context, n Notification) error
	LastOfKind(ctx context.Context, kind Kind, conventionID, recipient string) (Notification, bool, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed notification repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Save records one sent notification.
func (r *PGRepository) Save(ctx context.Context, n Notification) error {
	const insertSQL = `
		INSERT INTO notifications (id, kind, convention_id, recipient_email, recipient_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.pool.Exec(ctx, insertSQL, n.ID, n.Kind, n.ConventionID, n.RecipientEmail, n.RecipientPhone, n.CreatedAt); err != nil {
		return fmt.Errorf("notification: insert: %w", err)
	}
	return nil
}

// LastOfKind fetches the most recent notification of one kind sent to a
// recipient for a convention. The recipient matches either delivery channel.
func (r *PGRepository) LastOfKind(ctx context.Context, kind Kind, conventionID, recipient string) (Notification, bool, error) {
	const querySQL = `
		SELECT id, kind, convention_id, recipient_email, recipient_phone, created_at
		FROM notifications
		WHERE kind = $1 AND convention_id = $2 AND (recipient_email = $3 OR recipient_phone = $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var n Notification
	err := r.pool.QueryRow(ctx, querySQL, kind, conventionID, recipient).Scan(
		&n.ID,
		&n.Kind,
		&n.ConventionID,
		&n.RecipientEmail,
		&n.RecipientPhone,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, false, nil
		}
		return Notification{}, false, fmt.Errorf("notification: query last of kind: %w", err)
	}

	return n, true, nil
}
