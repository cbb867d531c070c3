package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ShiftHandler interface {
	CreateShiftType(w http.ResponseWriter, r *http.Request)
	GetShiftType(w http.ResponseWriter, r *http.Request)
	ListShiftTypes(w http.ResponseWriter, r *http.Request)
	CreateAssignments(w http.ResponseWriter, r *http.Request)
	TransitionAssignment(w http.ResponseWriter, r *http.Request)
	ActiveAssignment(w http.ResponseWriter, r *http.Request)
}

type shiftHandlerImpl struct {
	shiftService shift.ShiftService
}

func NewShiftHandler(shiftService shift.ShiftService) ShiftHandler {
	return &shiftHandlerImpl{
		shiftService: shiftService,
	}
}

// CreateShiftType implements ShiftHandler.
func (h *shiftHandlerImpl) CreateShiftType(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateShiftTypeRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.CreateShiftType(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift type created", result)
}

// GetShiftType implements ShiftHandler.
func (h *shiftHandlerImpl) GetShiftType(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.GetShiftType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// ListShiftTypes implements ShiftHandler.
func (h *shiftHandlerImpl) ListShiftTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.shiftService.ListShiftTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

// CreateAssignments implements ShiftHandler.
func (h *shiftHandlerImpl) CreateAssignments(w http.ResponseWriter, r *http.Request) {
	var req shift.CreateAssignmentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.CreateAssignments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift assignments created", result)
}

// TransitionAssignment implements ShiftHandler.
func (h *shiftHandlerImpl) TransitionAssignment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req shift.TransitionAssignmentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ActorID = actorID(caller)

	result, err := h.shiftService.TransitionAssignment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift assignment updated", result)
}

// ActiveAssignment implements ShiftHandler. The optional "at" query parameter
// is an RFC 3339 instant and defaults to now.
func (h *shiftHandlerImpl) ActiveAssignment(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, ok := validator.IsValidDateTime(raw)
		if !ok {
			response.BadRequest(w, "Invalid query parameter", map[string]string{"at": "at must be an RFC 3339 timestamp"})
			return
		}
		at = parsed
	}

	assignment, err := h.shiftService.ActiveAssignment(r.Context(), chi.URLParam(r, "employeeID"), at)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if assignment == nil {
		response.NotFound(w, "No approved shift assignment covers this time")
		return
	}

	response.Success(w, shift.NewAssignmentResponse(*assignment))
}
