package correction

import (
	"time"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusSubmitted: {StatusApproved, StatusRejected, StatusEscalated, StatusCancelled},
	StatusEscalated: {StatusApproved, StatusRejected},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CorrectionRequest is an employee's request to fix an attendance record.
type CorrectionRequest struct {
	ID            string
	EmployeeID    string
	AttendanceID  string
	Reason        string
	Status        Status
	DecidedBy     *string
	DecidedAt     *time.Time
	DecisionNotes *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
