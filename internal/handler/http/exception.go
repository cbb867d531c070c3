package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/exception"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ExceptionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Attach(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	AuditTrail(w http.ResponseWriter, r *http.Request)
}

type exceptionHandlerImpl struct {
	exceptionService exception.ExceptionService
}

func NewExceptionHandler(exceptionService exception.ExceptionService) ExceptionHandler {
	return &exceptionHandlerImpl{
		exceptionService: exceptionService,
	}
}

// Create implements ExceptionHandler.
func (h *exceptionHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req exception.CreateExceptionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.CreatedBy = actorID(caller)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.exceptionService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time exception created", result)
}

// Get implements ExceptionHandler.
func (h *exceptionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.exceptionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Attach implements ExceptionHandler.
func (h *exceptionHandlerImpl) Attach(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	req := exception.AttachExceptionRequest{
		ExceptionID: chi.URLParam(r, "id"),
		ProcessorID: actorID(caller),
	}

	result, err := h.exceptionService.AttachToAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time exception attached to attendance", result)
}

// Process implements ExceptionHandler.
func (h *exceptionHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req exception.ProcessExceptionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ProcessorID = actorID(caller)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.exceptionService.Process(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time exception processed", result)
}

// AuditTrail implements ExceptionHandler.
func (h *exceptionHandlerImpl) AuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := h.exceptionService.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, audit.NewEntryResponses(entries))
}
