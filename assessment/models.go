package assessment

import "time"

// Status represents the lifecycle of an assessment record.
type Status string

const (
	StatusCompleted          Status = "completed"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusDidNotShow         Status = "did_not_show"
)

// Record mirrors the assessments table. An assessment is filled by the
// establishment tutor at the end of the immersion; its existence blocks
// cancellation of the convention it refers to.
type Record struct {
	ID           string
	ConventionID string
	Status       Status
	Endorsement  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
