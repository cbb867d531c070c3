package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/lateness"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LatenessHandler interface {
	Detect(w http.ResponseWriter, r *http.Request)
	DepartmentReport(w http.ResponseWriter, r *http.Request)
}

type latenessHandlerImpl struct {
	latenessService lateness.Service
	// defaults used when a request leaves threshold or window unset
	threshold  int
	windowDays int
}

func NewLatenessHandler(latenessService lateness.Service, threshold, windowDays int) LatenessHandler {
	return &latenessHandlerImpl{
		latenessService: latenessService,
		threshold:       threshold,
		windowDays:      windowDays,
	}
}

// Detect implements LatenessHandler.
func (h *latenessHandlerImpl) Detect(w http.ResponseWriter, r *http.Request) {
	var req lateness.DetectRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Threshold == 0 {
		req.Threshold = h.threshold
	}
	if req.WindowDays == 0 {
		req.WindowDays = h.windowDays
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.latenessService.Detect(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DepartmentReport implements LatenessHandler.
func (h *latenessHandlerImpl) DepartmentReport(w http.ResponseWriter, r *http.Request) {
	threshold, ok := intQuery(w, r, "threshold", h.threshold)
	if !ok {
		return
	}
	windowDays, ok := intQuery(w, r, "window_days", h.windowDays)
	if !ok {
		return
	}

	report, err := h.latenessService.DepartmentReport(r.Context(), chi.URLParam(r, "departmentID"), threshold, windowDays)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// intQuery reads a positive integer query parameter, falling back to def when absent.
func intQuery(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		response.BadRequest(w, "Invalid query parameter", map[string]string{key: key + " must be a positive integer"})
		return 0, false
	}
	return v, true
}
