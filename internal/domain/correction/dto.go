package correction

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type SubmitCorrectionRequest struct {
	EmployeeID   string `json:"employee_id"`
	AttendanceID string `json:"attendance_id"`
	Reason       string `json:"reason"`
}

func (r *SubmitCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if validator.IsEmpty(r.AttendanceID) {
		errs.Add("attendance_id", "attendance_id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	} else if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

type DecideCorrectionRequest struct {
	ID          string  `json:"-"`
	ProcessorID string  `json:"-"`
	Notes       *string `json:"notes,omitempty"`
}

func (r *DecideCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.ProcessorID) {
		errs.Add("processor_id", "processor_id is required")
	}

	return errs.Err()
}

type CorrectionResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	AttendanceID  string  `json:"attendance_id"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	DecidedBy     *string `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	DecisionNotes *string `json:"decision_notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func NewCorrectionResponse(c CorrectionRequest) CorrectionResponse {
	resp := CorrectionResponse{
		ID:            c.ID,
		EmployeeID:    c.EmployeeID,
		AttendanceID:  c.AttendanceID,
		Reason:        c.Reason,
		Status:        string(c.Status),
		DecidedBy:     c.DecidedBy,
		DecisionNotes: c.DecisionNotes,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.DecidedAt != nil {
		s := c.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}
	return resp
}
