package routes

import (
	"net/http"

	"github.com/goalstash/goalstash/internal/app"
	"github.com/goalstash/goalstash/internal/handler"
	"github.com/goalstash/goalstash/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService)
	notification := handler.NewNotificationHandler(app.NotifierService, app.ScannerService)
	chat := handler.NewChatHandler(app.ChatService, app.ChatSessionRepo)
	settings := handler.NewSettingsHandler(app.UserService)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))
	mux.HandleFunc("POST /api/goals/{id}/deposits", middleware.RequireAuth(goal.Deposit))
	mux.HandleFunc("POST /api/goals/{id}/auto-contribute", middleware.RequireAuth(goal.AutoContribute))
	mux.HandleFunc("POST /api/goals/{id}/skip-period", middleware.RequireAuth(goal.SkipPeriod))

	// Notifications
	mux.HandleFunc("GET /api/notifications", middleware.RequireAuth(notification.List))
	mux.HandleFunc("GET /api/notifications/unread", middleware.RequireAuth(notification.Unread))
	mux.HandleFunc("POST /api/notifications/scan", middleware.RequireAuth(notification.Scan))
	mux.HandleFunc("POST /api/notifications/{id}/read", middleware.RequireAuth(notification.MarkRead))
	mux.HandleFunc("POST /api/notifications/read-all", middleware.RequireAuth(notification.MarkAllRead))

	// Savings advisor (rate limited)
	rateLimiter := middleware.RateLimitChat()
	mux.HandleFunc("POST /api/chat", rateLimiter(middleware.RequireAuth(chat.Message)))
	mux.HandleFunc("POST /api/chat/confirm", rateLimiter(middleware.RequireAuth(chat.Confirm)))
	mux.HandleFunc("POST /api/chat/cancel", middleware.RequireAuth(chat.Cancel))
	mux.HandleFunc("GET /api/chat/history", middleware.RequireAuth(chat.History))
	mux.HandleFunc("DELETE /api/chat", middleware.RequireAuth(chat.Clear))

	// Settings
	mux.HandleFunc("GET /api/settings", middleware.RequireAuth(settings.Get))
	mux.HandleFunc("PUT /api/settings", middleware.RequireAuth(settings.Update))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Auth(app.Verifier),
	)
}
