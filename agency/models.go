package agency

import "time"

// Role scopes what an attached user may do on conventions owned by the agency.
type Role string

const (
	RoleCounsellor   Role = "counsellor"
	RoleValidator    Role = "validator"
	RoleAgencyAdmin  Role = "agency_admin"
	RoleAgencyViewer Role = "agency_viewer"
	RoleToReview     Role = "to_review"
)

// Right attaches agency roles to a user together with notification preferences.
// Rights are stored as a jsonb map keyed by user id on the agencies table.
type Right struct {
	Roles             []Role `json:"roles"`
	IsNotifiedByEmail bool   `json:"is_notified_by_email"`
}

// Agency mirrors the agencies table columns touched by the services.
type Agency struct {
	ID               string
	Name             string
	Kind             string
	RefersToAgencyID *string
	CounsellorEmails []string
	ValidatorEmails  []string
	UserRights       map[string]Right
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasDelegation reports whether the agency delegates validation decisions to a
// parent agency. A delegating agency's validators do not own agency-assignment
// decisions on its conventions.
func (a Agency) HasDelegation() bool {
	return a.RefersToAgencyID != nil && *a.RefersToAgencyID != ""
}

// RightFor returns the rights attached to the given user, if any.
func (a Agency) RightFor(userID string) (Right, bool) {
	right, ok := a.UserRights[userID]
	return right, ok
}
