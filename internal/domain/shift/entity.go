package shift

import (
	"time"
)

// ShiftType is a reusable shift definition. Start and end are minutes after
// midnight; an end at or before the start means the shift finishes the next
// day.
type ShiftType struct {
	ID              string
	Name            string
	StartMinute     int
	EndMinute       int
	GraceInMinutes  int
	GraceOutMinutes int
	// WorkingDays holds ISO weekdays, Monday=1 through Sunday=7
	WorkingDays []int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s ShiftType) Overnight() bool {
	return s.EndMinute <= s.StartMinute
}

// WorksOn reports whether day's weekday is one of the working days.
func (s ShiftType) WorksOn(day time.Time) bool {
	wd := isoWeekday(day)
	for _, d := range s.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// WindowOn anchors the shift on the calendar day of day, in day's location.
func (s ShiftType) WindowOn(day time.Time) Window {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	start := midnight.Add(time.Duration(s.StartMinute) * time.Minute)
	end := midnight.Add(time.Duration(s.EndMinute) * time.Minute)
	if s.Overnight() {
		end = end.Add(24 * time.Hour)
	}
	return Window{
		Day:        midnight,
		Start:      start,
		End:        end,
		EarliestIn: start.Add(-time.Duration(s.GraceInMinutes) * time.Minute),
		LatestOut:  end.Add(time.Duration(s.GraceOutMinutes) * time.Minute),
		GraceIn:    time.Duration(s.GraceInMinutes) * time.Minute,
	}
}

// Window is a shift occurrence on a concrete day.
type Window struct {
	Day        time.Time
	Start      time.Time
	End        time.Time
	EarliestIn time.Time
	LatestOut  time.Time
	GraceIn    time.Duration
}

// Contains reports whether t is within [EarliestIn, LatestOut], inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.EarliestIn) && !t.After(w.LatestOut)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

type AssignmentStatus string

const (
	AssignmentEntered   AssignmentStatus = "entered"
	AssignmentSubmitted AssignmentStatus = "submitted"
	AssignmentApproved  AssignmentStatus = "approved"
	AssignmentPostponed AssignmentStatus = "postponed"
	AssignmentRejected  AssignmentStatus = "rejected"
	AssignmentCancelled AssignmentStatus = "cancelled"
	AssignmentExpired   AssignmentStatus = "expired"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentEntered:   {AssignmentSubmitted, AssignmentCancelled},
	AssignmentSubmitted: {AssignmentApproved, AssignmentRejected, AssignmentPostponed, AssignmentCancelled},
	AssignmentPostponed: {AssignmentSubmitted, AssignmentCancelled},
	AssignmentApproved:  {AssignmentCancelled, AssignmentExpired},
}

// CanTransition reports whether an assignment may move from one status to another.
func CanTransition(from, to AssignmentStatus) bool {
	for _, s := range assignmentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ShiftAssignment binds an employee to a shift type for an inclusive date range.
type ShiftAssignment struct {
	ID          string
	EmployeeID  string
	ShiftTypeID string
	StartDate   time.Time
	EndDate     time.Time
	Status      AssignmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by lookups that join the shift type
	ShiftType *ShiftType
}

// Covers reports whether day falls between StartDate and EndDate, inclusive,
// comparing calendar dates only.
func (a ShiftAssignment) Covers(day time.Time) bool {
	d := dateKey(day)
	return dateKey(a.StartDate) <= d && d <= dateKey(a.EndDate)
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
