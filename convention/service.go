package convention

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"immersionflow/agency"
	"immersionflow/assessment"
	"immersionflow/auth"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the write-side access the service needs. Update reports
// absence and staleness as typed errors, never as a silent zero value.
type Store interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Convention, error)
	Update(ctx context.Context, tx pgx.Tx, conv Convention, expectedUpdatedAt time.Time) (Convention, error)
}

// ViewQueries loads the denormalized read model.
type ViewQueries interface {
	GetConventionByID(ctx context.Context, id string) (View, error)
}

// AgencyGetter loads agencies by id.
type AgencyGetter interface {
	GetByID(ctx context.Context, id string) (agency.Agency, error)
}

// AssessmentGetter reports whether an assessment exists for a convention.
type AssessmentGetter interface {
	GetByConventionID(ctx context.Context, conventionID string) (assessment.Record, bool, error)
}

// Service orchestrates convention status transitions, signatures, content
// edits and agency transfers. Every guard runs before any mutation; the
// mutation and its outbox event commit in one transaction.
type Service struct {
	pool        TxBeginner
	store       Store
	queries     ViewQueries
	agencies    AgencyGetter
	assessments AssessmentGetter
	outbox      OutboxWriter
	resolver    *RoleResolver
	policy      TransitionPolicy
	now         func() time.Time
}

// NewService wires the state machine with its collaborators and the
// production transition table.
func NewService(pool TxBeginner, store Store, queries ViewQueries, agencies AgencyGetter, assessments AssessmentGetter, outbox OutboxWriter, resolver *RoleResolver) *Service {
	return &Service{
		pool:        pool,
		store:       store,
		queries:     queries,
		agencies:    agencies,
		assessments: assessments,
		outbox:      outbox,
		resolver:    resolver,
		policy:      DefaultPolicy(),
		now:         time.Now,
	}
}

// WithPolicy substitutes the transition table, for tests.
func (s *Service) WithPolicy(policy TransitionPolicy) *Service {
	s.policy = policy
	return s
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// UpdateStatusParams describe an explicit agency/admin status decision.
type UpdateStatusParams struct {
	ConventionID  string
	TargetStatus  Status
	Justification string
	ActorName     string
}

// UpdateStatusResult identifies the updated convention.
type UpdateStatusResult struct {
	ID string
}

// UpdateStatus applies one role-gated status transition and publishes the
// matching event. Event time and entity time are stamped from the same clock
// read so they never diverge.
func (s *Service) UpdateStatus(ctx context.Context, params UpdateStatusParams, cred auth.Credential) (UpdateStatusResult, error) {
	view, err := s.queries.GetConventionByID(ctx, params.ConventionID)
	if err != nil {
		return UpdateStatusResult{}, err
	}

	ag, err := s.agencies.GetByID(ctx, view.AgencyID)
	if err != nil {
		return UpdateStatusResult{}, err
	}

	roles, err := s.resolver.Resolve(ctx, cred, view.Convention, ag)
	if err != nil {
		return UpdateStatusResult{}, err
	}

	_, hasAssessment, err := s.assessments.GetByConventionID(ctx, view.ID)
	if err != nil {
		return UpdateStatusResult{}, err
	}

	if err := s.policy.Authorize(params.TargetStatus, roles, view, hasAssessment); err != nil {
		return UpdateStatusResult{}, err
	}

	now := s.now().UTC()
	conv := view.Convention
	expected := conv.UpdatedAt
	if err := applyStatusFields(&conv, params, now); err != nil {
		return UpdateStatusResult{}, err
	}
	conv.Status = params.TargetStatus
	conv.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return UpdateStatusResult{}, fmt.Errorf("convention: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.store.Update(ctx, tx, conv, expected)
	if err != nil {
		return UpdateStatusResult{}, err
	}

	if err := s.publishStatusEvent(ctx, tx, updated, cred, roles, now); err != nil {
		return UpdateStatusResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return UpdateStatusResult{}, fmt.Errorf("convention: commit tx: %w", err)
	}

	return UpdateStatusResult{ID: updated.ID}, nil
}

// UpdateParams carry edited convention content. Convention.UpdatedAt must be
// the value the caller last read; it is the optimistic-concurrency token.
type UpdateParams struct {
	Convention Convention
}

// Update applies a pre-signature content edit. Every recorded signature is
// cleared and the convention returns to ready_to_sign, which publishes no
// event.
func (s *Service) Update(ctx context.Context, params UpdateParams, cred auth.Credential) (Convention, error) {
	view, err := s.queries.GetConventionByID(ctx, params.Convention.ID)
	if err != nil {
		return Convention{}, err
	}

	ag, err := s.agencies.GetByID(ctx, view.AgencyID)
	if err != nil {
		return Convention{}, err
	}

	roles, err := s.resolver.Resolve(ctx, cred, view.Convention, ag)
	if err != nil {
		return Convention{}, err
	}

	if err := s.policy.Authorize(StatusReadyToSign, roles, view, false); err != nil {
		return Convention{}, err
	}

	now := s.now().UTC()
	conv := params.Convention
	expected := conv.UpdatedAt

	// Agency moves only happen through TransferToAgency.
	conv.AgencyID = view.AgencyID
	conv.Status = StatusReadyToSign
	conv.Signatories.ClearSignatures()
	conv.StatusJustification = nil
	conv.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Convention{}, fmt.Errorf("convention: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.store.Update(ctx, tx, conv, expected)
	if err != nil {
		return Convention{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Convention{}, fmt.Errorf("convention: commit tx: %w", err)
	}

	return updated, nil
}

// TransferParams describe moving a convention to another agency.
type TransferParams struct {
	ConventionID   string
	TargetAgencyID string
}

// TransferToAgency reassigns the convention to another agency, restricted to
// statuses where no validation decision exists yet.
func (s *Service) TransferToAgency(ctx context.Context, params TransferParams, cred auth.Credential) error {
	view, err := s.queries.GetConventionByID(ctx, params.ConventionID)
	if err != nil {
		return err
	}

	sourceAgency, err := s.agencies.GetByID(ctx, view.AgencyID)
	if err != nil {
		return err
	}
	if _, err := s.agencies.GetByID(ctx, params.TargetAgencyID); err != nil {
		return err
	}

	roles, err := s.resolver.Resolve(ctx, cred, view.Convention, sourceAgency)
	if err != nil {
		return err
	}

	if err := s.policy.AuthorizeTransfer(roles, view); err != nil {
		return err
	}

	now := s.now().UTC()
	conv := view.Convention
	expected := conv.UpdatedAt
	fromAgencyID := conv.AgencyID
	conv.AgencyID = params.TargetAgencyID
	conv.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("convention: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.store.Update(ctx, tx, conv, expected)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"convention_id":  updated.ID,
		"from_agency_id": fromAgencyID,
		"to_agency_id":   updated.AgencyID,
		"occurred_at":    now,
		"triggered_by":   triggeredBy(cred, roles[0]),
	}
	if err := s.outbox.Enqueue(ctx, tx, TopicTransferred, payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("convention: commit tx: %w", err)
	}

	return nil
}

func (s *Service) publishStatusEvent(ctx context.Context, tx pgx.Tx, conv Convention, cred auth.Credential, roles []Role, now time.Time) error {
	topic, ok := conv.Status.EventTopic()
	if !ok {
		return nil
	}
	payload := map[string]any{
		"convention_id": conv.ID,
		"agency_id":     conv.AgencyID,
		"status":        string(conv.Status),
		"occurred_at":   now,
		"triggered_by":  triggeredBy(cred, roles[0]),
	}
	return s.outbox.Enqueue(ctx, tx, topic, payload)
}

// applyStatusFields derives the per-status bookkeeping fields. Justification
// is only retained for negative terminal statuses; review and validation
// dates follow the decision that produced them and carry over otherwise.
func applyStatusFields(conv *Convention, params UpdateStatusParams, now time.Time) error {
	switch params.TargetStatus {
	case StatusAcceptedByCounsellor:
		conv.DateApproval = &now
		if params.ActorName != "" {
			name := params.ActorName
			conv.CounsellorName = &name
		}
	case StatusAcceptedByValidator:
		conv.DateValidation = &now
		if params.ActorName != "" {
			name := params.ActorName
			conv.ValidatorName = &name
		}
	case StatusRejected, StatusCancelled, StatusDeprecated:
		justification := strings.TrimSpace(params.Justification)
		if justification == "" {
			return fmt.Errorf("%w: %s", ErrMissingJustification, params.TargetStatus)
		}
		conv.StatusJustification = &justification
	}
	return nil
}
