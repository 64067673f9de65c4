package shortlink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed short-link repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Save inserts the write-once mapping.
func (r *PGRepository) Save(ctx context.Context, link Link) error {
	const insertSQL = `
		INSERT INTO short_links (id, long_url, single_use, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, insertSQL, link.ID, link.LongURL, link.SingleUse, link.CreatedAt); err != nil {
		return fmt.Errorf("shortlink: insert: %w", err)
	}
	return nil
}

// Get fetches a live mapping.
func (r *PGRepository) Get(ctx context.Context, id string) (Link, error) {
	const querySQL = `
		SELECT id, long_url, single_use, created_at
		FROM short_links
		WHERE id = $1 AND redeemed_at IS NULL
	`

	var link Link
	err := r.pool.QueryRow(ctx, querySQL, id).Scan(&link.ID, &link.LongURL, &link.SingleUse, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrNotFound
		}
		return Link{}, fmt.Errorf("shortlink: query: %w", err)
	}

	return link, nil
}

// Redeem marks a mapping consumed. The conditional update makes concurrent
// redemption of the same id succeed exactly once.
func (r *PGRepository) Redeem(ctx context.Context, id string) (Link, error) {
	const redeemSQL = `
		UPDATE short_links
		SET redeemed_at = now()
		WHERE id = $1 AND redeemed_at IS NULL
		RETURNING id, long_url, single_use, created_at
	`

	var link Link
	err := r.pool.QueryRow(ctx, redeemSQL, id).Scan(&link.ID, &link.LongURL, &link.SingleUse, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrNotFound
		}
		return Link{}, fmt.Errorf("shortlink: redeem: %w", err)
	}

	return link, nil
}
