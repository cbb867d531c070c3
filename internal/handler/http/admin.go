package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/cron"
	"github.com/go-chi/chi/v5"
)

// JobRunner triggers a registered background job on demand.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

type AdminHandler interface {
	SyncPayroll(w http.ResponseWriter, r *http.Request)
	RunJob(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	payrollService payroll.Service
	jobs           JobRunner
}

func NewAdminHandler(payrollService payroll.Service, jobs JobRunner) AdminHandler {
	return &adminHandlerImpl{
		payrollService: payrollService,
		jobs:           jobs,
	}
}

// SyncPayroll implements AdminHandler. A delivery failure still returns the
// built payload, with the failure in the error field.
func (h *adminHandlerImpl) SyncPayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.SyncRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.Sync(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	switch {
	case result.Error != "":
		response.SuccessWithMessage(w, "Payroll payload built but delivery failed", result)
	case result.Transmitted:
		response.SuccessWithMessage(w, "Payroll payload transmitted", result)
	default:
		response.SuccessWithMessage(w, "Payroll payload built", result)
	}
}

// RunJob implements AdminHandler.
func (h *adminHandlerImpl) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.RunNow(r.Context(), name); err != nil {
		if errors.Is(err, cron.ErrJobNotFound) {
			response.NotFound(w, "Job not found")
			return
		}
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Job completed", map[string]string{"job": name})
}
