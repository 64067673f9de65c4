package convention

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"immersionflow/auth"
)

// phoneRegion is the default region for parsing national-format numbers.
const phoneRegion = "FR"

// SignResult reports which role signed and the convention state after the
// signature was recorded.
type SignResult struct {
	Role       Role
	Convention Convention
}

// Sign records one signatory's signature and advances the status: to
// in_review when the signature completes the set, to partially_signed
// otherwise. The signature and the published event commit atomically.
func (s *Service) Sign(ctx context.Context, conventionID string, cred auth.Credential) (SignResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SignResult{}, fmt.Errorf("convention: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	conv, err := s.store.GetForUpdate(ctx, tx, conventionID)
	if err != nil {
		return SignResult{}, err
	}

	role, err := s.signingRole(ctx, cred, conv)
	if err != nil {
		return SignResult{}, err
	}
	if !role.IsSignatory() {
		return SignResult{}, fmt.Errorf("%w: %s", ErrRoleNotAllowedToSign, role)
	}

	slot := conv.Signatories.ForRole(role)
	if slot == nil {
		return SignResult{}, fmt.Errorf("%w: no %s on convention %s", ErrActorMissing, role, conv.ID)
	}

	// SMS reminders depend on reachable numbers; fail fast instead of
	// accepting a signature we cannot follow up on.
	if slot.Phone != "" && !isMobilePhone(slot.Phone) {
		return SignResult{}, fmt.Errorf("%w: %s", ErrInvalidMobilePhone, role)
	}

	if slot.Signed() {
		return SignResult{}, fmt.Errorf("%w: %s", ErrAlreadySigned, role)
	}

	now := s.now().UTC()
	slot.SignedAt = &now

	target := conv.Signatories.StatusAfterSigning()
	if err := s.policy.Authorize(target, []Role{role}, View{Convention: conv}, false); err != nil {
		return SignResult{}, err
	}

	expected := conv.UpdatedAt
	conv.Status = target
	conv.UpdatedAt = now
	if target == StatusInReview && conv.DateSubmitted == nil {
		conv.DateSubmitted = &now
	}

	updated, err := s.store.Update(ctx, tx, conv, expected)
	if err != nil {
		return SignResult{}, err
	}

	if topic, ok := target.EventTopic(); ok {
		payload := map[string]any{
			"convention_id":  updated.ID,
			"agency_id":      updated.AgencyID,
			"status":         string(updated.Status),
			"signatory_role": string(role),
			"occurred_at":    now,
			"triggered_by":   triggeredBy(cred, role),
		}
		if err := s.outbox.Enqueue(ctx, tx, topic, payload); err != nil {
			return SignResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SignResult{}, fmt.Errorf("convention: commit tx: %w", err)
	}

	return SignResult{Role: role, Convention: updated}, nil
}

// signingRole resolves the single role under which the caller may sign.
// Connected users can only ever sign as establishment representative, and
// only when their account email matches that signatory.
func (s *Service) signingRole(ctx context.Context, cred auth.Credential, conv Convention) (Role, error) {
	switch c := cred.(type) {
	case auth.ScopedToken:
		if c.ConventionID != conv.ID {
			return "", fmt.Errorf("%w: token bound to %s", ErrConventionMismatch, c.ConventionID)
		}
		return ParseRole(c.Role)

	case auth.AuthenticatedUser:
		user, err := s.resolver.users.GetUserByID(ctx, c.UserID)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(user.Email, conv.Signatories.EstablishmentRepresentative.Email) {
			return RoleEstablishmentRepresentative, nil
		}
		return "", fmt.Errorf("%w: account %s is not a signatory", ErrRoleNotAllowedToSign, c.UserID)

	default:
		return "", fmt.Errorf("convention: unsupported credential type %T", cred)
	}
}

func isMobilePhone(raw string) bool {
	number, err := phonenumbers.Parse(raw, phoneRegion)
	if err != nil {
		return false
	}
	if !phonenumbers.IsValidNumber(number) {
		return false
	}
	switch phonenumbers.GetNumberType(number) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	default:
		return false
	}
}
