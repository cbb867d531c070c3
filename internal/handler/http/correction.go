package http

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	AuditTrail(w http.ResponseWriter, r *http.Request)
}

type correctionHandlerImpl struct {
	correctionService correction.CorrectionService
}

func NewCorrectionHandler(correctionService correction.CorrectionService) CorrectionHandler {
	return &correctionHandlerImpl{
		correctionService: correctionService,
	}
}

// Submit implements CorrectionHandler.
func (h *correctionHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req correction.SubmitCorrectionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if ownEmployeeOnly(caller) || req.EmployeeID == "" {
		if caller.EmployeeID != nil {
			req.EmployeeID = *caller.EmployeeID
		}
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.correctionService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction request submitted", result)
}

// Get implements CorrectionHandler.
func (h *correctionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	result, err := h.correctionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if ownEmployeeOnly(caller) && (caller.EmployeeID == nil || *caller.EmployeeID != result.EmployeeID) {
		response.HandleError(w, correction.ErrCorrectionNotFound)
		return
	}

	response.Success(w, result)
}

// Approve implements CorrectionHandler.
func (h *correctionHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.correctionService.Approve, "Correction request approved")
}

// Reject implements CorrectionHandler.
func (h *correctionHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.correctionService.Reject, "Correction request rejected")
}

// Cancel implements CorrectionHandler. Only the requesting employee may cancel.
func (h *correctionHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.correctionService.Cancel, "Correction request cancelled")
}

type decideFunc func(ctx context.Context, req correction.DecideCorrectionRequest) (correction.CorrectionResponse, error)

func (h *correctionHandlerImpl) decide(w http.ResponseWriter, r *http.Request, fn decideFunc, message string) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req correction.DecideCorrectionRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ProcessorID = actorID(caller)

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := fn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

// AuditTrail implements CorrectionHandler.
func (h *correctionHandlerImpl) AuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := h.correctionService.AuditTrail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, audit.NewEntryResponses(entries))
}
