package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
)

type NotificationHandler interface {
	ListRecent(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notificationService notification.Service
}

func NewNotificationHandler(notificationService notification.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notificationService: notificationService,
	}
}

// ListRecent implements NotificationHandler.
func (h *notificationHandlerImpl) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", 20)
	if !ok {
		return
	}

	result, err := h.notificationService.ListRecent(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{Limit: limit, TotalItems: int64(len(result))})
}
