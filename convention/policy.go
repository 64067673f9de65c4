package convention

import "fmt"

// Rule gates one target status: who may request it, from which source
// statuses, plus an optional semantic guard over the read model.
type Rule struct {
	ValidRoles           []Role
	ValidInitialStatuses []Status
	Refine               func(View) error
}

// TransferRule gates moving a convention to another agency.
type TransferRule struct {
	ValidRoles           []Role
	DelegatedValidRoles  []Role
	ValidInitialStatuses []Status
}

// TransitionPolicy is the immutable transition table. It is built once at
// construction and injected into the service so tests can substitute
// alternate tables.
type TransitionPolicy struct {
	rules    map[Status]Rule
	transfer TransferRule
}

var agencyDecisionRoles = []Role{RoleCounsellor, RoleValidator, RoleBackOffice}

// DefaultPolicy builds the production transition table.
func DefaultPolicy() TransitionPolicy {
	signing := append([]Role(nil), SignatoryRoles...)
	editing := append([]Role{RoleCounsellor, RoleValidator, RoleBackOffice}, SignatoryRoles...)

	return TransitionPolicy{
		rules: map[Status]Rule{
			StatusReadyToSign: {
				ValidRoles:           editing,
				ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned},
			},
			StatusPartiallySigned: {
				ValidRoles:           signing,
				ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned},
			},
			StatusInReview: {
				ValidRoles:           signing,
				ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned},
			},
			StatusAcceptedByCounsellor: {
				ValidRoles:           []Role{RoleCounsellor, RoleBackOffice},
				ValidInitialStatuses: []Status{StatusInReview},
			},
			StatusAcceptedByValidator: {
				ValidRoles:           []Role{RoleValidator, RoleBackOffice},
				ValidInitialStatuses: []Status{StatusInReview, StatusAcceptedByCounsellor},
				Refine: func(view View) error {
					// A delegating agency's validator acts on behalf of the
					// parent; the counsellor review must happen first.
					if view.AgencyHasDelegation && view.Status != StatusAcceptedByCounsellor {
						return fmt.Errorf("%w: delegating agency requires counsellor acceptance before validation", ErrBadStatusTransition)
					}
					return nil
				},
			},
			StatusRejected: {
				ValidRoles:           agencyDecisionRoles,
				ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned, StatusInReview, StatusAcceptedByCounsellor},
			},
			StatusCancelled: {
				ValidRoles:           []Role{RoleValidator, RoleBackOffice},
				ValidInitialStatuses: []Status{StatusAcceptedByValidator},
			},
			StatusDeprecated: {
				ValidRoles:           agencyDecisionRoles,
				ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned, StatusInReview, StatusAcceptedByCounsellor},
			},
		},
		transfer: TransferRule{
			ValidRoles:           []Role{RoleCounsellor, RoleValidator, RoleBackOffice},
			DelegatedValidRoles:  []Role{RoleCounsellor, RoleBackOffice},
			ValidInitialStatuses: []Status{StatusReadyToSign, StatusPartiallySigned, StatusInReview},
		},
	}
}

// Authorize checks the requested transition. Checks run in a fixed order so
// error outcomes stay deterministic: role, then source status, then the
// assessment guard on cancellation, then the rule's semantic refinement.
func (p TransitionPolicy) Authorize(target Status, roles []Role, view View, hasAssessment bool) error {
	rule, ok := p.rules[target]
	if !ok {
		return fmt.Errorf("%w: unknown target status %q", ErrBadStatusTransition, target)
	}

	if !rolesIntersect(roles, rule.ValidRoles) {
		return fmt.Errorf("%w: roles %v may not move convention %s to %s", ErrBadRoleStatusChange, roles, view.ID, target)
	}

	if !statusIn(view.Status, rule.ValidInitialStatuses) {
		return fmt.Errorf("%w: %s -> %s", ErrBadStatusTransition, view.Status, target)
	}

	if target == StatusCancelled && hasAssessment {
		return ErrCancellationBlocked
	}

	if rule.Refine != nil {
		if err := rule.Refine(view); err != nil {
			return err
		}
	}

	return nil
}

// AuthorizeTransfer checks an agency-transfer request against the dedicated
// rule. When the source agency delegates to a parent, its validators do not
// own agency-assignment decisions and may not transfer.
func (p TransitionPolicy) AuthorizeTransfer(roles []Role, view View) error {
	valid := p.transfer.ValidRoles
	if view.AgencyHasDelegation {
		valid = p.transfer.DelegatedValidRoles
	}

	if !rolesIntersect(roles, valid) {
		return fmt.Errorf("%w: roles %v may not transfer convention %s", ErrBadRoleStatusChange, roles, view.ID)
	}

	if !statusIn(view.Status, p.transfer.ValidInitialStatuses) {
		return fmt.Errorf("%w: transfer from %s", ErrBadStatusTransition, view.Status)
	}

	return nil
}

func rolesIntersect(have, want []Role) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func statusIn(status Status, set []Status) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}
