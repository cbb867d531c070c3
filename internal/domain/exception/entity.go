package exception

import (
	"time"
)

type Type string

const (
	TypeCorrection       Type = "correction"
	TypeOvertime         Type = "overtime"
	TypePermission       Type = "permission"
	TypeLateness         Type = "lateness"
	TypeManualAdjustment Type = "manual_adjustment"
)

var TypeValues = []string{
	string(TypeCorrection),
	string(TypeOvertime),
	string(TypePermission),
	string(TypeLateness),
	string(TypeManualAdjustment),
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
	StatusCancelled Status = "cancelled"
	StatusResolved  Status = "resolved"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusEscalated, StatusCancelled, StatusResolved},
	StatusEscalated: {StatusApproved, StatusRejected, StatusCancelled, StatusResolved},
}

// CanTransition reports whether an exception may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Decisive reports whether reaching s settles the attendance record for payroll.
func (s Status) Decisive() bool {
	return s == StatusApproved || s == StatusRejected
}

// TimeException is a workflow item tied to an employee's day.
type TimeException struct {
	ID           string
	EmployeeID   string
	Type         Type
	TargetDate   time.Time
	AttendanceID *string
	AssignedTo   *string
	Status       Status
	Reason       string
	CreatedBy    string
	ProcessedBy  *string
	ProcessedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
