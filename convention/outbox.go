package convention

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"immersionflow/auth"
)

// OutboxWriter enqueues a domain event inside the caller's transaction so the
// event and the state mutation commit or fail together.
type OutboxWriter interface {
	Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// Outbox is the pgx implementation writing to the outbox table. Delivery is
// at-least-once and owned by a relay outside this module.
type Outbox struct{}

// NewOutbox returns the transactional outbox writer.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Enqueue inserts one event row.
func (Outbox) Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("convention: marshal outbox payload: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`, topic, body); err != nil {
		return fmt.Errorf("convention: enqueue outbox: %w", err)
	}
	return nil
}

// TriggeredBy records which kind of credential caused a transition. It is
// embedded in every published event payload.
type TriggeredBy struct {
	Kind   string `json:"kind"`
	UserID string `json:"user_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

const (
	triggeredByConnectedUser = "connected_user"
	triggeredByMagicLink     = "convention_magic_link"
)

func triggeredBy(cred auth.Credential, role Role) TriggeredBy {
	switch c := cred.(type) {
	case auth.AuthenticatedUser:
		return TriggeredBy{Kind: triggeredByConnectedUser, UserID: c.UserID}
	case auth.ScopedToken:
		return TriggeredBy{Kind: triggeredByMagicLink, Role: role}
	default:
		return TriggeredBy{}
	}
}
