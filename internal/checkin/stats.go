package checkin

import "symposium/internal/model"

// Outcome is the three-way classification of a single check-in attempt. A
// prior check-in is deliberately kept distinct from both success and failure.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
	OutcomeFailed           Outcome = "failed"
)

// ClassifyOutcome maps a backend response to exactly one outcome.
func ClassifyOutcome(r model.CheckInResponse) Outcome {
	switch {
	case r.AlreadyCheckedIn:
		return OutcomeAlreadyCheckedIn
	case r.Success:
		return OutcomeSuccess
	default:
		return OutcomeFailed
	}
}

// Stats are the running counters for the current operator session. They
// live in memory only and reset when the selected event changes.
type Stats struct {
	Total            int `json:"totalScans"`
	Successful       int `json:"successfulScans"`
	AlreadyCheckedIn int `json:"alreadyCheckedIn"`
	Failed           int `json:"failedScans"`
}

// Snapshot is a point-in-time copy of the orchestrator's presentation state.
type Snapshot struct {
	State   State                   `json:"-"`
	Stats   Stats                   `json:"stats"`
	Result  *model.CheckInResponse  `json:"result,omitempty"`
	History []model.CheckInResponse `json:"recentScans"`
}
