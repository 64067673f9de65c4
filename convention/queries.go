package convention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// View is the denormalized convention read model used by authorization
// guards: the aggregate plus the owning-agency fields guards depend on.
type View struct {
	Convention

	AgencyName          string
	AgencyKind          string
	AgencyHasDelegation bool
}

// Queries loads convention read models joined with their agency.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries wires a pgxpool-backed read-model implementation.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// GetConventionByID fetches the denormalized view of one convention.
func (q *Queries) GetConventionByID(ctx context.Context, id string) (View, error) {
	const query = `
		SELECT c.id, c.status, c.agency_id, c.signatories, c.establishment_tutor,
		       c.status_justification, c.counsellor_name, c.validator_name,
		       c.date_submitted, c.date_validation, c.date_approval,
		       c.created_at, c.updated_at,
		       a.name, a.kind, a.refers_to_agency_id IS NOT NULL
		FROM conventions c
		JOIN agencies a ON a.id = c.agency_id
		WHERE c.id = $1
	`

	var (
		view            View
		signatoriesJSON []byte
		tutorJSON       []byte
	)
	err := q.pool.QueryRow(ctx, query, id).Scan(
		&view.ID,
		&view.Status,
		&view.AgencyID,
		&signatoriesJSON,
		&tutorJSON,
		&view.StatusJustification,
		&view.CounsellorName,
		&view.ValidatorName,
		&view.DateSubmitted,
		&view.DateValidation,
		&view.DateApproval,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.AgencyName,
		&view.AgencyKind,
		&view.AgencyHasDelegation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, ErrNotFound
		}
		return View{}, fmt.Errorf("convention: query view: %w", err)
	}

	if err := json.Unmarshal(signatoriesJSON, &view.Signatories); err != nil {
		return View{}, fmt.Errorf("convention: decode signatories: %w", err)
	}
	if err := json.Unmarshal(tutorJSON, &view.EstablishmentTutor); err != nil {
		return View{}, fmt.Errorf("convention: decode tutor: %w", err)
	}

	return view, nil
}
