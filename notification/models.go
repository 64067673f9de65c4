package notification

import "time"

// Kind classifies outgoing notifications so throttling can group them.
type Kind string

const (
	KindSignatureLink      Kind = "signature_link"
	KindSignatureReminder  Kind = "signature_reminder"
	KindAssessmentReminder Kind = "assessment_reminder"
)

// Cool-down windows per reminder kind. Call sites pass them explicitly so a
// new kind can pick its own window without touching the throttle.
const (
	SignatureReminderCooldown  = 24 * time.Hour
	AssessmentReminderCooldown = 24 * time.Hour
)

// Notification mirrors the notifications table rows used for throttling.
type Notification struct {
	ID             string
	Kind           Kind
	ConventionID   string
	RecipientEmail string
	RecipientPhone string
	CreatedAt      time.Time
}
