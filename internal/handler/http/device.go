package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// OfflineQueueHandler serves kiosk uploads of offline punches and the admin
// view of the per-device queues.
type OfflineQueueHandler interface {
	Enqueue(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	DeviceStatus(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
}

type offlineQueueHandlerImpl struct {
	queue offlinesync.Service
}

func NewOfflineQueueHandler(queue offlinesync.Service) OfflineQueueHandler {
	return &offlineQueueHandlerImpl{queue: queue}
}

// Enqueue implements OfflineQueueHandler.
func (h *offlineQueueHandlerImpl) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req offlinesync.EnqueueRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.DeviceID = chi.URLParam(r, "deviceID")

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.queue.Enqueue(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Duplicate {
		response.SuccessWithMessage(w, "Punch already queued", result)
		return
	}
	response.Created(w, "Punch queued", result)
}

// Status implements OfflineQueueHandler.
func (h *offlineQueueHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	devices := h.queue.Status(r.Context())

	var total int64
	for _, d := range devices {
		total += int64(d.Pending)
	}
	response.SuccessWithMeta(w, devices, &response.Meta{TotalItems: total})
}

// DeviceStatus implements OfflineQueueHandler.
func (h *offlineQueueHandlerImpl) DeviceStatus(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.queue.DeviceStatus(r.Context(), chi.URLParam(r, "deviceID")))
}

// Clear implements OfflineQueueHandler.
func (h *offlineQueueHandlerImpl) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.queue.Clear(r.Context(), chi.URLParam(r, "deviceID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Device queue cleared", map[string]int{"removed": removed})
}

// Process implements OfflineQueueHandler.
func (h *offlineQueueHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	result, err := h.queue.Process(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
