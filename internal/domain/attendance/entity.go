package attendance

import (
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

var DirectionValues = []string{string(DirectionIn), string(DirectionOut)}

type PunchSource string

const (
	SourceWeb       PunchSource = "web"
	SourceMobile    PunchSource = "mobile"
	SourceBiometric PunchSource = "biometric"
	SourceOffline   PunchSource = "offline"
)

var SourceValues = []string{
	string(SourceWeb),
	string(SourceMobile),
	string(SourceBiometric),
	string(SourceOffline),
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Punch is a single clock event. Punches are stored as a JSON array on the
// owning record, so the json tags are the storage format.
type Punch struct {
	Time       time.Time   `json:"time"`
	Direction  Direction   `json:"direction"`
	Source     PunchSource `json:"source"`
	TerminalID *string     `json:"terminal_id,omitempty"`
	Location   *Location   `json:"location,omitempty"`
}

// AttendanceRecord aggregates all punches of one employee on one calendar day.
// Punches are kept in chronological order.
type AttendanceRecord struct {
	ID                  string
	EmployeeID          string
	WorkDate            time.Time
	ShiftAssignmentID   *string
	Punches             []Punch
	WorkedMinutes       int
	OvertimeMinutes     int
	LatenessMinutes     int
	HasMissedPunch      bool
	FinalisedForPayroll bool
	ExceptionIDs        []string
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r *AttendanceRecord) HasException(id string) bool {
	for _, e := range r.ExceptionIDs {
		if e == id {
			return true
		}
	}
	return false
}

// FirstIn returns the earliest In punch, or nil.
func (r *AttendanceRecord) FirstIn() *Punch {
	for i := range r.Punches {
		if r.Punches[i].Direction == DirectionIn {
			return &r.Punches[i]
		}
	}
	return nil
}

// LastOut returns the latest Out punch, or nil.
func (r *AttendanceRecord) LastOut() *Punch {
	for i := len(r.Punches) - 1; i >= 0; i-- {
		if r.Punches[i].Direction == DirectionOut {
			return &r.Punches[i]
		}
	}
	return nil
}
