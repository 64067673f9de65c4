package auth

// Credential identifies who is acting on a convention. Exactly two shapes
// exist: a scoped magic-link token bound to one convention, one role and one
// email, or an authenticated account. The union is sealed so downstream
// authorization code can switch over it exhaustively.
type Credential interface {
	isCredential()
}

// ScopedToken is the payload of a verified convention magic link.
type ScopedToken struct {
	ConventionID string
	Role         string
	Email        string
	EmailHash    string
}

func (ScopedToken) isCredential() {}

// AuthenticatedUser identifies a logged-in account acting through the API.
type AuthenticatedUser struct {
	UserID string
}

func (AuthenticatedUser) isCredential() {}
