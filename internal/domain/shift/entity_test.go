package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowOn_DayShift(t *testing.T) {
	st := ShiftType{StartMinute: 9 * 60, EndMinute: 17 * 60, GraceInMinutes: 15, GraceOutMinutes: 30}
	day := time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC)

	w := st.WindowOn(day)

	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, time.Date(2024, 3, 4, 8, 45, 0, 0, time.UTC), w.EarliestIn)
	assert.Equal(t, time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC), w.LatestOut)
	assert.True(t, w.Contains(w.EarliestIn))
	assert.True(t, w.Contains(w.LatestOut))
	assert.False(t, w.Contains(w.LatestOut.Add(time.Second)))
}

func TestWindowOn_Overnight(t *testing.T) {
	st := ShiftType{StartMinute: 22 * 60, EndMinute: 6 * 60}
	w := st.WindowOn(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))

	assert.True(t, st.Overnight())
	assert.Equal(t, time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC), w.End)
}

func TestWorksOn(t *testing.T) {
	st := ShiftType{WorkingDays: []int{1, 2, 3, 4, 5}}

	assert.True(t, st.WorksOn(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))  // Monday
	assert.False(t, st.WorksOn(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))) // Sunday

	st.WorkingDays = []int{7}
	assert.True(t, st.WorksOn(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(AssignmentEntered, AssignmentSubmitted))
	assert.True(t, CanTransition(AssignmentSubmitted, AssignmentApproved))
	assert.True(t, CanTransition(AssignmentPostponed, AssignmentSubmitted))
	assert.True(t, CanTransition(AssignmentApproved, AssignmentExpired))
	assert.False(t, CanTransition(AssignmentEntered, AssignmentApproved))
	assert.False(t, CanTransition(AssignmentRejected, AssignmentSubmitted))
	assert.False(t, CanTransition(AssignmentExpired, AssignmentApproved))
}

func TestAssignmentCovers(t *testing.T) {
	a := ShiftAssignment{
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, a.Covers(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, a.Covers(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, a.Covers(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCreateShiftTypeRequest_Validate(t *testing.T) {
	req := CreateShiftTypeRequest{Name: "Day", StartTime: "09:00", EndTime: "17:00", GraceInMinutes: 15, WorkingDays: []int{1, 2, 3}}
	assert.NoError(t, req.Validate())

	bad := CreateShiftTypeRequest{StartTime: "9am", EndTime: "17:00", GraceInMinutes: -1, WorkingDays: []int{8}}
	err := bad.Validate()
	assert.ErrorContains(t, err, "name is required")
	assert.ErrorContains(t, err, "start_time must be in HH:MM format")
	assert.ErrorContains(t, err, "grace_in_minutes")
	assert.ErrorContains(t, err, "working day 8")
}
