package notification

import (
	"context"
	"fmt"
	"time"
)

// ThrottledError reports a reminder attempted before its cool-down elapsed.
// It carries the remaining wait as data so callers can surface it.
type ThrottledError struct {
	Kind      Kind
	Remaining time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("notification: %s already sent, retry in %s", e.Kind, FormatWait(e.Remaining))
}

// FormatWait renders a remaining wait as "<h>h<mm>", e.g. "3h05". Partial
// minutes round up so the caller never under-reports the wait.
func FormatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}

// Throttle prevents re-sending the same kind of reminder to the same
// recipient for a convention within a cool-down window.
type Throttle struct {
	repo Repository
}

// NewThrottle wires the throttle with its notification history.
func NewThrottle(repo Repository) *Throttle {
	return &Throttle{repo: repo}
}

// ThrottleParams identify one reminder class for one recipient.
type ThrottleParams struct {
	Kind         Kind
	ConventionID string
	Recipient    string
	Cooldown     time.Duration
	Now          time.Time
}

// AssertNotRecentlySent fails with *ThrottledError while the most recent
// notification of the same class is younger than the cool-down. A reminder
// becomes sendable again the instant the window fully elapses.
func (t *Throttle) AssertNotRecentlySent(ctx context.Context, params ThrottleParams) error {
	last, found, err := t.repo.LastOfKind(ctx, params.Kind, params.ConventionID, params.Recipient)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	remaining := last.CreatedAt.Add(params.Cooldown).Sub(params.Now)
	if remaining > 0 {
		return &ThrottledError{Kind: params.Kind, Remaining: remaining}
	}
	return nil
}
