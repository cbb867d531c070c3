package lateness

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

var ErrDepartmentRequired = errors.New("department_id is required")

// EscalationMarker remembers the lateness count an employee was last
// escalated at, so repeated sweeps only notify on new increments.
type EscalationMarker struct {
	EmployeeID         string
	LastEscalatedCount int
	EscalatedAt        time.Time
}

type MarkerRepository interface {
	ListAll(ctx context.Context) ([]EscalationMarker, error)
	Upsert(ctx context.Context, m EscalationMarker) error
	Delete(ctx context.Context, employeeID string) error
}

// EmployeeLateness is the occurrence count of one employee within a window.
type EmployeeLateness struct {
	EmployeeID string `json:"employee_id"`
	Count      int    `json:"count"`
}

type DetectRequest struct {
	Threshold  int                 `json:"threshold"`
	WindowDays int                 `json:"window_days"`
	Targets    notification.Target `json:"targets"`
}

func (r *DetectRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Threshold < 1 {
		errs.Add("threshold", "threshold must be at least 1")
	}
	if r.WindowDays < 1 {
		errs.Add("window_days", "window_days must be at least 1")
	}
	if r.Targets.IsEmpty() {
		errs.Add("targets", "at least one notification target is required")
	}

	return errs.Err()
}

type DetectResult struct {
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	AtOrAbove   []EmployeeLateness `json:"at_or_above_threshold"`
	Notified    []EmployeeLateness `json:"notified"`
}

type DepartmentReport struct {
	DepartmentID string             `json:"department_id"`
	WindowStart  time.Time          `json:"window_start"`
	WindowEnd    time.Time          `json:"window_end"`
	Threshold    int                `json:"threshold"`
	Employees    []EmployeeLateness `json:"employees"`
}

type Service interface {
	// Detect counts lateness exceptions in the trailing window and notifies
	// targets about employees who newly reached or grew past the threshold.
	Detect(ctx context.Context, req DetectRequest) (DetectResult, error)

	// DepartmentReport lists department members at or above threshold without
	// sending notifications.
	DepartmentReport(ctx context.Context, departmentID string, threshold, windowDays int) (DepartmentReport, error)
}
