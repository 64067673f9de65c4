package convention

import (
	"context"
	"fmt"
	"strings"

	"immersionflow/agency"
	"immersionflow/auth"
)

// Role is the flat set of actors recognised on a convention, spanning the
// signatory side, the agency side, and back-office operators.
type Role string

const (
	RoleBeneficiary                 Role = "beneficiary"
	RoleBeneficiaryRepresentative   Role = "beneficiary_representative"
	RoleBeneficiaryCurrentEmployer  Role = "beneficiary_current_employer"
	RoleEstablishmentRepresentative Role = "establishment_representative"
	RoleEstablishmentTutor          Role = "establishment_tutor"
	RoleCounsellor                  Role = "counsellor"
	RoleValidator                   Role = "validator"
	RoleAgencyAdmin                 Role = "agency_admin"
	RoleAgencyViewer                Role = "agency_viewer"
	RoleToReview                    Role = "to_review"
	RoleBackOffice                  Role = "back_office"
)

// SignatoryRoles is the closed set of roles whose signature may be required.
var SignatoryRoles = []Role{
	RoleBeneficiary,
	RoleBeneficiaryRepresentative,
	RoleBeneficiaryCurrentEmployer,
	RoleEstablishmentRepresentative,
}

// IsSignatory reports whether r belongs to the signatory set.
func (r Role) IsSignatory() bool {
	for _, role := range SignatoryRoles {
		if r == role {
			return true
		}
	}
	return false
}

var validRoles = map[Role]struct{}{
	RoleBeneficiary:                 {},
	RoleBeneficiaryRepresentative:   {},
	RoleBeneficiaryCurrentEmployer:  {},
	RoleEstablishmentRepresentative: {},
	RoleEstablishmentTutor:          {},
	RoleCounsellor:                  {},
	RoleValidator:                   {},
	RoleAgencyAdmin:                 {},
	RoleAgencyViewer:                {},
	RoleToReview:                    {},
	RoleBackOffice:                  {},
}

// ParseRole validates a role claim coming off the wire.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := validRoles[role]; !ok {
		return "", fmt.Errorf("convention: unknown role %q", raw)
	}
	return role, nil
}

func rolesFromAgency(roles []agency.Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if parsed, err := ParseRole(string(r)); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}

// UserGetter is the account lookup the resolver needs.
type UserGetter interface {
	GetUserByID(ctx context.Context, userID string) (auth.User, error)
}

// RoleResolver derives which roles a caller currently holds on a convention,
// from either credential shape. Unifying both shapes behind one role set lets
// every downstream authorization check be written against roles alone.
type RoleResolver struct {
	users UserGetter
}

// NewRoleResolver wires the resolver with its account lookup.
func NewRoleResolver(users UserGetter) *RoleResolver {
	return &RoleResolver{users: users}
}

// Resolve computes the caller's roles on conv, owned by ag.
//
// A scoped token yields exactly its embedded role, after the convention-id
// binding check. An authenticated user accumulates back-office, the
// establishment-representative role on email match, and the roles of their
// agency right; coming up empty-handed is a typed failure, never an empty
// slice.
func (r *RoleResolver) Resolve(ctx context.Context, cred auth.Credential, conv Convention, ag agency.Agency) ([]Role, error) {
	switch c := cred.(type) {
	case auth.ScopedToken:
		if c.ConventionID != conv.ID {
			return nil, fmt.Errorf("%w: token bound to %s", ErrConventionMismatch, c.ConventionID)
		}
		role, err := ParseRole(c.Role)
		if err != nil {
			return nil, err
		}
		return []Role{role}, nil

	case auth.AuthenticatedUser:
		user, err := r.users.GetUserByID(ctx, c.UserID)
		if err != nil {
			return nil, err
		}

		var roles []Role
		if user.IsBackofficeAdmin {
			roles = append(roles, RoleBackOffice)
		}
		if strings.EqualFold(user.Email, conv.Signatories.EstablishmentRepresentative.Email) {
			roles = append(roles, RoleEstablishmentRepresentative)
		}
		if right, ok := ag.RightFor(user.ID); ok {
			roles = append(roles, rolesFromAgency(right.Roles)...)
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("%w: user %s on agency %s", ErrNoRightsOnAgency, user.ID, ag.ID)
		}
		return roles, nil

	default:
		return nil, fmt.Errorf("convention: unsupported credential type %T", cred)
	}
}
