package convention

import "errors"

var (
	// ErrNotFound is returned when no convention row exists for the provided identifier.
	ErrNotFound = errors.New("convention: not found")
	// ErrStaleUpdate signals the optimistic updated_at precondition failed; the
	// caller read a version that has since been overwritten.
	ErrStaleUpdate = errors.New("convention: stale update")
	// ErrConventionMismatch signals a scoped token presented against a different convention.
	ErrConventionMismatch = errors.New("convention: token does not match convention")
	// ErrNoRightsOnAgency signals an authenticated user with no role on the owning agency.
	ErrNoRightsOnAgency = errors.New("convention: user has no rights on agency")
	// ErrRoleNotAllowedToSign signals a role outside the signatory set attempting to sign.
	ErrRoleNotAllowedToSign = errors.New("convention: role not allowed to sign")
	// ErrActorMissing signals the convention has no signatory slot for the acting role.
	ErrActorMissing = errors.New("convention: signatory not part of convention")
	// ErrAlreadySigned signals a duplicate signature attempt on the same slot.
	ErrAlreadySigned = errors.New("convention: signatory already signed")
	// ErrInvalidMobilePhone signals a signatory phone unusable for SMS reminders.
	ErrInvalidMobilePhone = errors.New("convention: signatory phone is not a valid mobile number")
	// ErrBadRoleStatusChange signals none of the caller's roles may request the target status.
	ErrBadRoleStatusChange = errors.New("convention: role cannot request this status")
	// ErrBadStatusTransition signals the current status does not allow the target status.
	ErrBadStatusTransition = errors.New("convention: status transition not allowed")
	// ErrCancellationBlocked signals cancellation of a convention that already has an assessment.
	ErrCancellationBlocked = errors.New("convention: cannot cancel a convention with an assessment")
	// ErrMissingJustification signals a terminal transition without the required justification.
	ErrMissingJustification = errors.New("convention: status justification required")
)
