package lateness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/org"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type service struct {
	exceptionRepo exception.Repository
	markerRepo    lateness.MarkerRepository
	directory     org.Directory
	notifier      notification.DurableNotifier
	now           func() time.Time
}

// Detect implements lateness.Service.
func (s *service) Detect(ctx context.Context, req lateness.DetectRequest) (lateness.DetectResult, error) {
	if err := req.Validate(); err != nil {
		return lateness.DetectResult{}, err
	}

	start, end := s.window(req.WindowDays)
	counts, err := s.countLateness(ctx, start, end)
	if err != nil {
		return lateness.DetectResult{}, err
	}

	markers, err := s.markerRepo.ListAll(ctx)
	if err != nil {
		return lateness.DetectResult{}, fmt.Errorf("failed to load escalation markers: %w", err)
	}
	markerByEmployee := make(map[string]lateness.EscalationMarker, len(markers))
	for _, m := range markers {
		markerByEmployee[m.EmployeeID] = m
	}

	result := lateness.DetectResult{
		WindowStart: start,
		WindowEnd:   end,
		AtOrAbove:   atOrAbove(counts, req.Threshold, nil),
		Notified:    []lateness.EmployeeLateness{},
	}

	for _, el := range result.AtOrAbove {
		if m, ok := markerByEmployee[el.EmployeeID]; ok && el.Count <= m.LastEscalatedCount {
			continue
		}

		// The marker only moves once the escalation is stored.
		err := s.notifier.NotifyNow(ctx, notification.CreateNotificationRequest{
			Type:    notification.TypeRepeatedLateness,
			Title:   "Repeated lateness",
			Message: fmt.Sprintf("Employee %s was late %d times in the last %d days", el.EmployeeID, el.Count, req.WindowDays),
			Target:  req.Targets,
			Data: map[string]interface{}{
				"employee_id": el.EmployeeID,
				"count":       el.Count,
				"window_days": req.WindowDays,
			},
		})
		if err != nil {
			// No marker is written, so the next sweep retries.
			slog.Warn("Failed to send lateness notification", "employee_id", el.EmployeeID, "error", err)
			continue
		}

		if err := s.markerRepo.Upsert(ctx, lateness.EscalationMarker{
			EmployeeID:         el.EmployeeID,
			LastEscalatedCount: el.Count,
			EscalatedAt:        end,
		}); err != nil {
			slog.Error("Failed to save lateness escalation marker", "employee_id", el.EmployeeID, "error", err)
		}
		result.Notified = append(result.Notified, el)
	}

	// Employees back under the threshold start over.
	for employeeID := range markerByEmployee {
		if counts[employeeID] >= req.Threshold {
			continue
		}
		if err := s.markerRepo.Delete(ctx, employeeID); err != nil {
			slog.Error("Failed to clear lateness escalation marker", "employee_id", employeeID, "error", err)
		}
	}

	return result, nil
}

// DepartmentReport implements lateness.Service.
func (s *service) DepartmentReport(ctx context.Context, departmentID string, threshold, windowDays int) (lateness.DepartmentReport, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(departmentID) {
		errs.Add("department_id", lateness.ErrDepartmentRequired.Error())
	}
	if threshold < 1 {
		errs.Add("threshold", "threshold must be at least 1")
	}
	if windowDays < 1 {
		errs.Add("window_days", "window_days must be at least 1")
	}
	if err := errs.Err(); err != nil {
		return lateness.DepartmentReport{}, err
	}

	members, err := s.directory.EmployeesInDepartment(ctx, departmentID)
	if err != nil {
		return lateness.DepartmentReport{}, fmt.Errorf("failed to load department employees: %w", err)
	}
	memberSet := make(map[string]bool, len(members))
	for _, id := range members {
		memberSet[id] = true
	}

	start, end := s.window(windowDays)
	counts, err := s.countLateness(ctx, start, end)
	if err != nil {
		return lateness.DepartmentReport{}, err
	}

	return lateness.DepartmentReport{
		DepartmentID: departmentID,
		WindowStart:  start,
		WindowEnd:    end,
		Threshold:    threshold,
		Employees:    atOrAbove(counts, threshold, memberSet),
	}, nil
}

func (s *service) window(days int) (time.Time, time.Time) {
	end := s.now()
	return end.AddDate(0, 0, -days), end
}

func (s *service) countLateness(ctx context.Context, start, end time.Time) (map[string]int, error) {
	items, err := s.exceptionRepo.ListByTypeCreatedBetween(ctx, exception.TypeLateness, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load lateness exceptions: %w", err)
	}
	counts := make(map[string]int)
	for _, e := range items {
		counts[e.EmployeeID]++
	}
	return counts, nil
}

// atOrAbove lists employees whose count reaches threshold, highest first.
// A nil only set keeps everyone.
func atOrAbove(counts map[string]int, threshold int, only map[string]bool) []lateness.EmployeeLateness {
	out := []lateness.EmployeeLateness{}
	for employeeID, n := range counts {
		if n < threshold || (only != nil && !only[employeeID]) {
			continue
		}
		out = append(out, lateness.EmployeeLateness{EmployeeID: employeeID, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func NewLatenessService(
	exceptionRepo exception.Repository,
	markerRepo lateness.MarkerRepository,
	directory org.Directory,
	notifier notification.DurableNotifier,
) lateness.Service {
	return &service{
		exceptionRepo: exceptionRepo,
		markerRepo:    markerRepo,
		directory:     directory,
		notifier:      notifier,
		now:           time.Now,
	}
}
