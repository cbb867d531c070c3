package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	EmployeeID string      `json:"employee_id"`
	Type       Direction   `json:"type"`
	Time       *time.Time  `json:"time,omitempty"`
	Source     PunchSource `json:"source,omitempty"`
	TerminalID *string     `json:"terminal_id,omitempty"`
	Latitude   *float64    `json:"latitude,omitempty"`
	Longitude  *float64    `json:"longitude,omitempty"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}

	if !validator.IsInSlice(string(r.Type), DirectionValues) {
		errs.Add("type", "type must be one of: "+strings.Join(DirectionValues, ", "))
	}

	if r.Source != "" && !validator.IsInSlice(string(r.Source), SourceValues) {
		errs.Add("source", "source must be one of: "+strings.Join(SourceValues, ", "))
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs.Add("location", "latitude and longitude must be provided together")
	} else if r.Latitude != nil {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			errs.Add("latitude", "latitude must be between -90 and 90")
		}
		if *r.Longitude < -180 || *r.Longitude > 180 {
			errs.Add("longitude", "longitude must be between -180 and 180")
		}
	}

	return errs.Err()
}

// ToPunch builds the punch to store, defaulting time to now and source to web.
func (r *RecordPunchRequest) ToPunch(now time.Time) Punch {
	p := Punch{
		Time:       now,
		Direction:  r.Type,
		Source:     r.Source,
		TerminalID: r.TerminalID,
	}
	if r.Time != nil {
		p.Time = *r.Time
	}
	if p.Source == "" {
		p.Source = SourceWeb
	}
	if r.Latitude != nil && r.Longitude != nil {
		p.Location = &Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return p
}

// ========================================
// RESPONSE DTOs
// ========================================

type PunchResponse struct {
	Time       string    `json:"time"`
	Direction  string    `json:"direction"`
	Source     string    `json:"source"`
	TerminalID *string   `json:"terminal_id,omitempty"`
	Location   *Location `json:"location,omitempty"`
}

type AttendanceResponse struct {
	ID                  string          `json:"id"`
	EmployeeID          string          `json:"employee_id"`
	Date                string          `json:"date"`
	ShiftAssignmentID   *string         `json:"shift_assignment_id,omitempty"`
	Punches             []PunchResponse `json:"punches"`
	WorkedMinutes       int             `json:"worked_minutes"`
	OvertimeMinutes     int             `json:"overtime_minutes"`
	LatenessMinutes     int             `json:"lateness_minutes"`
	HasMissedPunch      bool            `json:"has_missed_punch"`
	FinalisedForPayroll bool            `json:"finalised_for_payroll"`
	ExceptionIDs        []string        `json:"exception_ids"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

func NewAttendanceResponse(r AttendanceRecord) AttendanceResponse {
	punches := make([]PunchResponse, 0, len(r.Punches))
	for _, p := range r.Punches {
		punches = append(punches, PunchResponse{
			Time:       p.Time.Format(time.RFC3339),
			Direction:  string(p.Direction),
			Source:     string(p.Source),
			TerminalID: p.TerminalID,
			Location:   p.Location,
		})
	}
	exceptionIDs := r.ExceptionIDs
	if exceptionIDs == nil {
		exceptionIDs = []string{}
	}
	return AttendanceResponse{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		Date:                r.WorkDate.Format("2006-01-02"),
		ShiftAssignmentID:   r.ShiftAssignmentID,
		Punches:             punches,
		WorkedMinutes:       r.WorkedMinutes,
		OvertimeMinutes:     r.OvertimeMinutes,
		LatenessMinutes:     r.LatenessMinutes,
		HasMissedPunch:      r.HasMissedPunch,
		FinalisedForPayroll: r.FinalisedForPayroll,
		ExceptionIDs:        exceptionIDs,
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
	}
}
