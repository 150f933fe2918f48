// Package queue defines message payloads exchanged over the message broker.
package queue

// Allocation event actions.
const (
	ActionApplicationSubmitted = "application.submitted"
	ActionApplicationApproved  = "application.approved"
	ActionApplicationRejected  = "application.rejected"
	ActionApplicationWithdrawn = "application.withdrawn"
	ActionCheckedIn            = "student.checked_in"
	ActionCheckedOut           = "student.checked_out"
)

// AllocationEvent is published after every committed allocation
// mutation. It carries enough information for the audit consumer to
// record the action without querying the primary database.
type AllocationEvent struct {
	Action        string `json:"action"`
	StudentNo     string `json:"student_no"`
	BedID         uint64 `json:"bed_id"`
	ApplicationID uint64 `json:"application_id,omitempty"`
	Actor         string `json:"actor"`
	Detail        string `json:"detail,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
