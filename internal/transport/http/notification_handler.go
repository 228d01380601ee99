package http

import (
	"net/http"

	"github.com/go-chi/render"

	"inventorypro/internal/notify"
)

// NotificationHandler lets polling clients read the toasts still on screen
type NotificationHandler struct {
	source NotificationSource
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(source NotificationSource) *NotificationHandler {
	return &NotificationHandler{source: source}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications := h.source.Recent()
	if notifications == nil {
		notifications = []notify.Notification{}
	}
	render.JSON(w, r, map[string]interface{}{
		"notifications": notifications,
	})
}
