package shift

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// ========================================
// SHIFT TYPE DTOs
// ========================================

type CreateShiftTypeRequest struct {
	Name            string `json:"name"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	GraceInMinutes  int    `json:"grace_in_minutes"`
	GraceOutMinutes int    `json:"grace_out_minutes"`
	WorkingDays     []int  `json:"working_days"`
}

func (r *CreateShiftTypeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	}

	start, err := validator.ParseTimeOfDay(r.StartTime)
	if err != nil {
		errs.Add("start_time", "start_time must be in HH:MM format")
	}
	end, err2 := validator.ParseTimeOfDay(r.EndTime)
	if err2 != nil {
		errs.Add("end_time", "end_time must be in HH:MM format")
	}
	if err == nil && err2 == nil && start == end {
		errs.Add("end_time", "end_time must differ from start_time")
	}

	if r.GraceInMinutes < 0 || r.GraceInMinutes > 720 {
		errs.Add("grace_in_minutes", "grace_in_minutes must be between 0 and 720")
	}
	if r.GraceOutMinutes < 0 || r.GraceOutMinutes > 720 {
		errs.Add("grace_out_minutes", "grace_out_minutes must be between 0 and 720")
	}

	if len(r.WorkingDays) == 0 {
		errs.Add("working_days", "at least one working day is required")
	}
	seen := make(map[int]bool)
	for _, d := range r.WorkingDays {
		if d < 1 || d > 7 {
			errs.Add("working_days", fmt.Sprintf("working day %d must be between 1 (Monday) and 7 (Sunday)", d))
			break
		}
		if seen[d] {
			errs.Add("working_days", fmt.Sprintf("working day %d is listed twice", d))
			break
		}
		seen[d] = true
	}

	return errs.Err()
}

type ShiftTypeResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Overnight       bool   `json:"overnight"`
	GraceInMinutes  int    `json:"grace_in_minutes"`
	GraceOutMinutes int    `json:"grace_out_minutes"`
	WorkingDays     []int  `json:"working_days"`
	CreatedAt       string `json:"created_at"`
}

func NewShiftTypeResponse(st ShiftType) ShiftTypeResponse {
	return ShiftTypeResponse{
		ID:              st.ID,
		Name:            st.Name,
		StartTime:       formatMinutes(st.StartMinute),
		EndTime:         formatMinutes(st.EndMinute),
		Overnight:       st.Overnight(),
		GraceInMinutes:  st.GraceInMinutes,
		GraceOutMinutes: st.GraceOutMinutes,
		WorkingDays:     st.WorkingDays,
		CreatedAt:       st.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ========================================
// ASSIGNMENT DTOs
// ========================================

type TargetType string

const (
	TargetEmployee   TargetType = "employee"
	TargetDepartment TargetType = "department"
	TargetPosition   TargetType = "position"
)

var TargetTypeValues = []string{string(TargetEmployee), string(TargetDepartment), string(TargetPosition)}

type CreateAssignmentRequest struct {
	TargetType  TargetType `json:"target_type"`
	TargetID    string     `json:"target_id"`
	ShiftTypeID string     `json:"shift_type_id"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
}

func (r *CreateAssignmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.TargetType == "" {
		r.TargetType = TargetEmployee
	}
	if !validator.IsInSlice(string(r.TargetType), TargetTypeValues) {
		errs.Add("target_type", "target_type must be one of: "+strings.Join(TargetTypeValues, ", "))
	}
	if validator.IsEmpty(r.TargetID) {
		errs.Add("target_id", "target_id is required")
	}
	if validator.IsEmpty(r.ShiftTypeID) {
		errs.Add("shift_type_id", "shift_type_id is required")
	}

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	return errs.Err()
}

type TransitionAssignmentRequest struct {
	ID      string           `json:"-"`
	Status  AssignmentStatus `json:"status"`
	ActorID string           `json:"-"`
	Notes   *string          `json:"notes,omitempty"`
}

type AssignmentResponse struct {
	ID          string             `json:"id"`
	EmployeeID  string             `json:"employee_id"`
	ShiftTypeID string             `json:"shift_type_id"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Status      string             `json:"status"`
	ShiftType   *ShiftTypeResponse `json:"shift_type,omitempty"`
}

func NewAssignmentResponse(a ShiftAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		ShiftTypeID: a.ShiftTypeID,
		StartDate:   a.StartDate.Format("2006-01-02"),
		EndDate:     a.EndDate.Format("2006-01-02"),
		Status:      string(a.Status),
	}
	if a.ShiftType != nil {
		st := NewShiftTypeResponse(*a.ShiftType)
		resp.ShiftType = &st
	}
	return resp
}
