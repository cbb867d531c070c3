package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
)

// Totals are the values derived from punches alone.
type Totals struct {
	WorkedMinutes  int
	HasMissedPunch bool
}

// SortPunches orders punches chronologically, keeping arrival order for equal times.
func SortPunches(punches []attendance.Punch) {
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Time.Before(punches[j].Time)
	})
}

// ComputeTotals sums adjacent In->Out pairs of chronologically sorted punches.
// Unmatched punches add nothing. The sum is rounded once, to the nearest minute.
func ComputeTotals(punches []attendance.Punch) Totals {
	var worked time.Duration
	ins, outs := 0, 0
	for i, p := range punches {
		switch p.Direction {
		case attendance.DirectionIn:
			ins++
			if i+1 < len(punches) && punches[i+1].Direction == attendance.DirectionOut {
				if d := punches[i+1].Time.Sub(p.Time); d > 0 {
					worked += d
				}
			}
		case attendance.DirectionOut:
			outs++
		}
	}
	return Totals{
		WorkedMinutes:  roundMinutes(worked),
		HasMissedPunch: ins == 0 || outs == 0,
	}
}

// MissingDirection reports which direction a record still lacks to be
// balanced. ok is false for balanced records.
func MissingDirection(punches []attendance.Punch) (dir attendance.Direction, ok bool) {
	hasIn, hasOut := false, false
	for _, p := range punches {
		if p.Direction == attendance.DirectionIn {
			hasIn = true
		} else {
			hasOut = true
		}
	}
	switch {
	case !hasIn:
		return attendance.DirectionIn, true
	case !hasOut:
		return attendance.DirectionOut, true
	}
	return "", false
}

// LatenessMinutes counts from shift start once the first In is past the grace period.
func LatenessMinutes(firstIn time.Time, w shift.Window) int {
	if !firstIn.After(w.Start.Add(w.GraceIn)) {
		return 0
	}
	return roundMinutes(firstIn.Sub(w.Start))
}

// OvertimeMinutes counts from shift end to the last Out.
func OvertimeMinutes(lastOut time.Time, w shift.Window) int {
	if !lastOut.After(w.End) {
		return 0
	}
	return roundMinutes(lastOut.Sub(w.End))
}

// Recompute sorts the record's punches and refreshes every derived field.
// window is nil on days without a working shift, and then lateness and
// overtime are zero.
func Recompute(r *attendance.AttendanceRecord, window *shift.Window) {
	SortPunches(r.Punches)

	totals := ComputeTotals(r.Punches)
	r.WorkedMinutes = totals.WorkedMinutes
	r.HasMissedPunch = totals.HasMissedPunch

	r.LatenessMinutes = 0
	r.OvertimeMinutes = 0
	if window == nil {
		return
	}
	if in := r.FirstIn(); in != nil {
		r.LatenessMinutes = LatenessMinutes(in.Time, *window)
	}
	if out := r.LastOut(); out != nil {
		r.OvertimeMinutes = OvertimeMinutes(out.Time, *window)
	}
}

func roundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Minutes()))
}
