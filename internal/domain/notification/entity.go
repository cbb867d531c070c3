package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeCorrectionSubmitted NotificationType = "correction_submitted"
	TypeCorrectionDecided   NotificationType = "correction_decided"
	TypeExceptionAssigned   NotificationType = "exception_assigned"
	TypeExceptionDecided    NotificationType = "exception_decided"
	TypeRepeatedLateness    NotificationType = "repeated_lateness"
	TypeOfflinePunchDropped NotificationType = "offline_punch_dropped"
	TypeMissedPunch         NotificationType = "missed_punch"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeCorrectionSubmitted,
		TypeCorrectionDecided,
		TypeExceptionAssigned,
		TypeExceptionDecided,
		TypeRepeatedLateness,
		TypeOfflinePunchDropped,
		TypeMissedPunch,
	}
}

// Target addresses a notification to explicit employees, to holders of
// positions, to everyone with a role, or any combination.
type Target struct {
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	PositionIDs []string `json:"position_ids,omitempty"`
	Role        string   `json:"role,omitempty"`
}

func (t Target) IsEmpty() bool {
	return len(t.EmployeeIDs) == 0 && len(t.PositionIDs) == 0 && t.Role == ""
}

// Notification represents a notification entity
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	Target    Target
	Data      map[string]interface{}
	CreatedAt time.Time
}
