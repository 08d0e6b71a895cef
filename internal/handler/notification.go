package handler

import (
	"net/http"
	"time"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/model"
	"github.com/goalstash/goalstash/internal/service"
)

type NotificationHandler struct {
	notifier *service.NotifierService
	scanner  *service.ScannerService
}

func NewNotificationHandler(notifier *service.NotifierService, scanner *service.ScannerService) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		scanner:  scanner,
	}
}

type notificationResponse struct {
	ID        string `json:"id"`
	GoalID    string `json:"goal_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponses(notifications []*model.Notification) []notificationResponse {
	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			GoalID:    n.GoalID,
			Kind:      n.Kind,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// Scan runs a notification scan over the caller's active goals, so the
// dashboard can surface newly due milestones and payment reminders on load
// without waiting for the daily batch. Re-scanning is a no-op thanks to the
// dedup key, so a busy dashboard cannot double-notify.
func (h *NotificationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	events, err := h.scanner.ScanUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"emitted": len(events),
	})
}

func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	notifications, err := h.notifier.Unread(user.ID, 50)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"notifications": toNotificationResponses(notifications),
	})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	notifications, err := h.notifier.List(user.ID, 100)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"notifications": toNotificationResponses(notifications),
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if err := h.notifier.MarkRead(user.ID, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	count, err := h.notifier.MarkAllRead(user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"marked": count,
	})
}
