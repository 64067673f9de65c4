package convention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists conventions. Write methods take the caller's
// transaction so status change and outbox event commit atomically.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conventionColumns = `
	id, status, agency_id, signatories, establishment_tutor,
	status_justification, counsellor_name, validator_name,
	date_submitted, date_validation, date_approval, created_at, updated_at
`

// GetByID fetches a convention outside any transaction.
func (r *Repository) GetByID(ctx context.Context, id string) (Convention, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conventionColumns+` FROM conventions WHERE id = $1`, id)
	conv, err := scanConvention(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Convention{}, ErrNotFound
		}
		return Convention{}, fmt.Errorf("convention: query by id: %w", err)
	}
	return conv, nil
}

// GetForUpdate fetches a convention inside tx, taking a row lock so
// concurrent signatures on the same convention serialize.
func (r *Repository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Convention, error) {
	row := tx.QueryRow(ctx, `SELECT `+conventionColumns+` FROM conventions WHERE id = $1 FOR UPDATE`, id)
	conv, err := scanConvention(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Convention{}, ErrNotFound
		}
		return Convention{}, fmt.Errorf("convention: query for update: %w", err)
	}
	return conv, nil
}

// Create inserts a new convention in ready_to_sign.
func (r *Repository) Create(ctx context.Context, conv Convention) (Convention, error) {
	signatoriesJSON, tutorJSON, err := encodeActors(conv)
	if err != nil {
		return Convention{}, err
	}

	const insertSQL = `
		INSERT INTO conventions (id, status, agency_id, signatories, establishment_tutor)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
		RETURNING ` + conventionColumns

	created, err := scanConvention(r.pool.QueryRow(ctx, insertSQL,
		conv.ID, StatusReadyToSign, conv.AgencyID, signatoriesJSON, tutorJSON))
	if err != nil {
		return Convention{}, fmt.Errorf("convention: insert: %w", err)
	}
	return created, nil
}

// Update writes the full aggregate under the optimistic precondition that the
// stored updated_at still equals expectedUpdatedAt. A mismatch surfaces as
// ErrStaleUpdate when the row exists and ErrNotFound when it vanished; the
// write is never silently lost.
func (r *Repository) Update(ctx context.Context, tx pgx.Tx, conv Convention, expectedUpdatedAt time.Time) (Convention, error) {
	signatoriesJSON, tutorJSON, err := encodeActors(conv)
	if err != nil {
		return Convention{}, err
	}

	const updateSQL = `
		UPDATE conventions
		SET status = $1,
		    agency_id = $2,
		    signatories = $3::jsonb,
		    establishment_tutor = $4::jsonb,
		    status_justification = $5,
		    counsellor_name = $6,
		    validator_name = $7,
		    date_submitted = $8,
		    date_validation = $9,
		    date_approval = $10,
		    updated_at = $11
		WHERE id = $12 AND updated_at = $13
		RETURNING ` + conventionColumns

	updated, err := scanConvention(tx.QueryRow(ctx, updateSQL,
		conv.Status,
		conv.AgencyID,
		signatoriesJSON,
		tutorJSON,
		conv.StatusJustification,
		conv.CounsellorName,
		conv.ValidatorName,
		conv.DateSubmitted,
		conv.DateValidation,
		conv.DateApproval,
		conv.UpdatedAt,
		conv.ID,
		expectedUpdatedAt,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Convention{}, fmt.Errorf("convention: update: %w", err)
	}

	// Zero rows either means the id is gone or the precondition failed.
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM conventions WHERE id = $1)`, conv.ID).Scan(&exists); err != nil {
		return Convention{}, fmt.Errorf("convention: check existence: %w", err)
	}
	if exists {
		return Convention{}, fmt.Errorf("%w: convention %s", ErrStaleUpdate, conv.ID)
	}
	return Convention{}, ErrNotFound
}

func encodeActors(conv Convention) ([]byte, []byte, error) {
	signatoriesJSON, err := json.Marshal(conv.Signatories)
	if err != nil {
		return nil, nil, fmt.Errorf("convention: encode signatories: %w", err)
	}
	tutorJSON, err := json.Marshal(conv.EstablishmentTutor)
	if err != nil {
		return nil, nil, fmt.Errorf("convention: encode tutor: %w", err)
	}
	return signatoriesJSON, tutorJSON, nil
}

func scanConvention(row pgx.Row) (Convention, error) {
	var (
		conv            Convention
		signatoriesJSON []byte
		tutorJSON       []byte
	)
	if err := row.Scan(
		&conv.ID,
		&conv.Status,
		&conv.AgencyID,
		&signatoriesJSON,
		&tutorJSON,
		&conv.StatusJustification,
		&conv.CounsellorName,
		&conv.ValidatorName,
		&conv.DateSubmitted,
		&conv.DateValidation,
		&conv.DateApproval,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return Convention{}, err
	}

	if err := json.Unmarshal(signatoriesJSON, &conv.Signatories); err != nil {
		return Convention{}, fmt.Errorf("decode signatories: %w", err)
	}
	if err := json.Unmarshal(tutorJSON, &conv.EstablishmentTutor); err != nil {
		return Convention{}, fmt.Errorf("decode tutor: %w", err)
	}

	return conv, nil
}
