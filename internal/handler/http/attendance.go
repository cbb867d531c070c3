package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetEmployeeDay(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// RecordPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req attendance.RecordPunchRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if ownEmployeeOnly(caller) {
		if caller.EmployeeID == nil {
			response.Forbidden(w, "Token is not linked to an employee")
			return
		}
		req.EmployeeID = *caller.EmployeeID
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", attendance.NewAttendanceResponse(record))
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if ownEmployeeOnly(caller) && (caller.EmployeeID == nil || *caller.EmployeeID != record.EmployeeID) {
		response.HandleError(w, attendance.ErrAttendanceNotFound)
		return
	}

	response.Success(w, attendance.NewAttendanceResponse(record))
}

// GetEmployeeDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetEmployeeDay(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if ownEmployeeOnly(caller) && (caller.EmployeeID == nil || *caller.EmployeeID != employeeID) {
		response.Forbidden(w, "Employees can only view their own attendance")
		return
	}

	record, err := h.attendanceService.GetEmployeeDay(r.Context(), employeeID, chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewAttendanceResponse(record))
}
