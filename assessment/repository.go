package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides read access to assessments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByConventionID fetches the assessment attached to a convention. The
// boolean reports whether one exists; absence is not an error.
func (r *Repository) GetByConventionID(ctx context.Context, conventionID string) (Record, bool, error) {
	const query = `
		SELECT id, convention_id, status, endorsement, created_at, updated_at
		FROM assessments
		WHERE convention_id = $1
	`

	var rec Record
	err := r.pool.QueryRow(ctx, query, conventionID).Scan(
		&rec.ID,
		&rec.ConventionID,
		&rec.Status,
		&rec.Endorsement,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("assessment: query by convention id: %w", err)
	}

	return rec, true, nil
}
