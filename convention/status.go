package convention

// Status is the closed set of convention lifecycle states.
type Status string

const (
	StatusReadyToSign          Status = "ready_to_sign"
	StatusPartiallySigned      Status = "partially_signed"
	StatusInReview             Status = "in_review"
	StatusAcceptedByCounsellor Status = "accepted_by_counsellor"
	StatusAcceptedByValidator  Status = "accepted_by_validator"
	StatusRejected             Status = "rejected"
	StatusCancelled            Status = "cancelled"
	StatusDeprecated           Status = "deprecated"
)

// AllStatuses lists every lifecycle state, in rough lifecycle order.
var AllStatuses = []Status{
	StatusReadyToSign,
	StatusPartiallySigned,
	StatusInReview,
	StatusAcceptedByCounsellor,
	StatusAcceptedByValidator,
	StatusRejected,
	StatusCancelled,
	StatusDeprecated,
}

// IsTerminal reports whether the convention accepts no further status
// transitions. Assessments may still reference a terminal convention.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusDeprecated:
		return true
	default:
		return false
	}
}

// RequiresJustification reports whether entering s demands a free-text
// justification from the acting user.
func (s Status) RequiresJustification() bool {
	return s.IsTerminal()
}

// Outbox topics published when a convention changes state.
const (
	TopicPartiallySigned      = "convention.partially_signed"
	TopicFullySigned          = "convention.fully_signed"
	TopicAcceptedByCounsellor = "convention.accepted_by_counsellor"
	TopicAcceptedByValidator  = "convention.accepted_by_validator"
	TopicRejected             = "convention.rejected"
	TopicCancelled            = "convention.cancelled"
	TopicDeprecated           = "convention.deprecated"
	TopicTransferred          = "convention.transferred"
)

var statusTopics = map[Status]string{
	StatusPartiallySigned:      TopicPartiallySigned,
	StatusInReview:             TopicFullySigned,
	StatusAcceptedByCounsellor: TopicAcceptedByCounsellor,
	StatusAcceptedByValidator:  TopicAcceptedByValidator,
	StatusRejected:             TopicRejected,
	StatusCancelled:            TopicCancelled,
	StatusDeprecated:           TopicDeprecated,
}

// EventTopic returns the outbox topic published when a convention enters s.
// Returning to ready_to_sign publishes nothing.
func (s Status) EventTopic() (string, bool) {
	topic, ok := statusTopics[s]
	return topic, ok
}
