package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

var ErrExporterUnavailable = errors.New("payroll endpoint is unavailable")

type SyncRequest struct {
	// StartDate and EndDate are inclusive YYYY-MM-DD dates. A single date covers
	// that day; both default to yesterday.
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	DryRun    bool   `json:"dry_run"`
}

func (r *SyncRequest) Validate() error {
	var errs validator.ValidationErrors

	var start, end time.Time
	okStart, okEnd := true, true
	if r.StartDate != "" {
		if start, okStart = validator.IsValidDate(r.StartDate); !okStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if r.EndDate != "" {
		if end, okEnd = validator.IsValidDate(r.EndDate); !okEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if r.StartDate != "" && r.EndDate != "" && okStart && okEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	return errs.Err()
}

type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type PunchProjection struct {
	Time      time.Time `json:"time"`
	Direction string    `json:"direction"`
	Source    string    `json:"source"`
}

type AttendanceProjection struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	Date            string            `json:"date"`
	Punches         []PunchProjection `json:"punches"`
	WorkedMinutes   int               `json:"worked_minutes"`
	OvertimeMinutes int               `json:"overtime_minutes"`
	LatenessMinutes int               `json:"lateness_minutes"`
	WorkedHours     decimal.Decimal   `json:"worked_hours"`
	OvertimeHours   decimal.Decimal   `json:"overtime_hours"`
	HasMissedPunch  bool              `json:"has_missed_punch"`
	ExceptionIDs    []string          `json:"exception_ids"`
}

type ExceptionProjection struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	Type         string    `json:"type"`
	Date         string    `json:"date"`
	AttendanceID *string   `json:"attendance_id,omitempty"`
	ProcessedBy  *string   `json:"processed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Payload struct {
	Window      Window                 `json:"window"`
	GeneratedAt time.Time              `json:"generated_at"`
	Attendance  []AttendanceProjection `json:"attendance"`
	Exceptions  []ExceptionProjection  `json:"exceptions"`
}

// ExportResponse is the remote endpoint's reply, kept verbatim.
type ExportResponse struct {
	StatusCode int
	Body       []byte
}

// Exporter posts a payload to the external payroll system.
type Exporter interface {
	Export(ctx context.Context, payload Payload) (ExportResponse, error)
}

type SyncResult struct {
	Payload     Payload `json:"payload"`
	DryRun      bool    `json:"dry_run"`
	Transmitted bool    `json:"transmitted"`
	StatusCode  int     `json:"status_code,omitempty"`
	// Response holds the remote body verbatim
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Service interface {
	// Sync builds the payload for the window and, unless DryRun is set or no
	// endpoint is configured, posts it. Transport failures are reported in
	// SyncResult.Error rather than as an error return.
	Sync(ctx context.Context, req SyncRequest) (SyncResult, error)
}
