package agency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested agency does not exist.
var ErrNotFound = errors.New("agency: not found")

// Repository provides read access to agencies and their user rights.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `
	SELECT id, name, kind, refers_to_agency_id, counsellor_emails, validator_emails, user_rights, created_at, updated_at
	FROM agencies
`

// GetByID fetches an agency by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Agency, error) {
	row := r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)

	agency, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agency{}, ErrNotFound
		}
		return Agency{}, fmt.Errorf("agency: query by id: %w", err)
	}

	return agency, nil
}

// GetByIDs fetches several agencies at once. Missing ids are silently absent
// from the result; callers that require all ids must check the length.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Agency, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, selectColumns+` WHERE id = ANY($1) ORDER BY name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("agency: query by ids: %w", err)
	}
	defer rows.Close()

	agencies := make([]Agency, 0, len(ids))
	for rows.Next() {
		agency, err := scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("agency: scan agency: %w", err)
		}
		agencies = append(agencies, agency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("agency: iterate agencies: %w", err)
	}

	return agencies, nil
}

func scanAgency(row pgx.Row) (Agency, error) {
	var (
		agency     Agency
		rightsJSON []byte
	)
	if err := row.Scan(
		&agency.ID,
		&agency.Name,
		&agency.Kind,
		&agency.RefersToAgencyID,
		&agency.CounsellorEmails,
		&agency.ValidatorEmails,
		&rightsJSON,
		&agency.CreatedAt,
		&agency.UpdatedAt,
	); err != nil {
		return Agency{}, err
	}

	if len(rightsJSON) > 0 {
		if err := json.Unmarshal(rightsJSON, &agency.UserRights); err != nil {
			return Agency{}, fmt.Errorf("decode user rights: %w", err)
		}
	}
	if agency.UserRights == nil {
		agency.UserRights = map[string]Right{}
	}

	return agency, nil
}
