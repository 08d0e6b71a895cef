package handler

import (
	"encoding/json"
	"net/http"

	"github.com/goalstash/goalstash/internal/ctxkeys"
	"github.com/goalstash/goalstash/internal/service"
)

type SettingsHandler struct {
	userService *service.UserService
}

func NewSettingsHandler(userService *service.UserService) *SettingsHandler {
	return &SettingsHandler{
		userService: userService,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                      true,
		"email":                   user.Email,
		"name":                    user.FullName,
		"email_notifications":     user.EmailNotifications,
		"dashboard_notifications": user.DashboardNotifications,
	})
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var payload struct {
		EmailNotifications     bool `json:"email_notifications"`
		DashboardNotifications bool `json:"dashboard_notifications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.userService.UpdatePreferences(user.ID, payload.EmailNotifications, payload.DashboardNotifications)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
