package exception

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type CreateExceptionRequest struct {
	EmployeeID   string  `json:"employee_id"`
	Type         Type    `json:"type"`
	TargetDate   string  `json:"target_date"`
	AttendanceID *string `json:"attendance_id,omitempty"`
	// AssignedTo is an employee ID or a position ID
	AssignedTo string `json:"assigned_to"`
	Reason     string `json:"reason"`
	CreatedBy  string `json:"-"`
}

func (r *CreateExceptionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.IsInSlice(string(r.Type), TypeValues) {
		errs.Add("type", "type must be one of: "+strings.Join(TypeValues, ", "))
	}
	if _, ok := validator.IsValidDate(r.TargetDate); !ok {
		errs.Add("target_date", "target_date must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	if validator.IsEmpty(r.CreatedBy) {
		errs.Add("created_by", "created_by is required")
	}

	return errs.Err()
}

type AttachExceptionRequest struct {
	ExceptionID string `json:"-"`
	ProcessorID string `json:"-"`
}

var ProcessDecisionValues = []string{
	string(StatusApproved),
	string(StatusRejected),
	string(StatusEscalated),
	string(StatusCancelled),
	string(StatusResolved),
}

type ProcessExceptionRequest struct {
	ID          string  `json:"-"`
	Decision    Status  `json:"decision"`
	ProcessorID string  `json:"-"`
	Notes       *string `json:"notes,omitempty"`
}

func (r *ProcessExceptionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if !validator.IsInSlice(string(r.Decision), ProcessDecisionValues) {
		errs.Add("decision", "decision must be one of: "+strings.Join(ProcessDecisionValues, ", "))
	}
	if validator.IsEmpty(r.ProcessorID) {
		errs.Add("processor_id", "processor_id is required")
	}

	return errs.Err()
}

type ExceptionResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	Type         string  `json:"type"`
	TargetDate   string  `json:"target_date"`
	AttendanceID *string `json:"attendance_id,omitempty"`
	AssignedTo   *string `json:"assigned_to,omitempty"`
	Status       string  `json:"status"`
	Reason       string  `json:"reason"`
	CreatedBy    string  `json:"created_by"`
	ProcessedBy  *string `json:"processed_by,omitempty"`
	ProcessedAt  *string `json:"processed_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func NewExceptionResponse(e TimeException) ExceptionResponse {
	resp := ExceptionResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Type:         string(e.Type),
		TargetDate:   e.TargetDate.Format("2006-01-02"),
		AttendanceID: e.AttendanceID,
		AssignedTo:   e.AssignedTo,
		Status:       string(e.Status),
		Reason:       e.Reason,
		CreatedBy:    e.CreatedBy,
		ProcessedBy:  e.ProcessedBy,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
	if e.ProcessedAt != nil {
		s := e.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}
