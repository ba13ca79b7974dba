package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sharenet-backend/internal/logger"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth          *AuthHandler
	Resources     *ResourceHandler
	Requests      *RequestHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
	DB            Pinger
}

// NewRouter wires every route. Path templates must match the keys of
// config.EndpointSecurityConfig.
func NewRouter(h Handlers, m *Middleware) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	r.Use(m.Auth)

	r.HandleFunc("/healthz", healthHandler(h.DB)).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Auth.Logout).Methods(http.MethodPost)
	r.HandleFunc("/users/me", h.Auth.Me).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/reviews", h.Requests.UserReviews).Methods(http.MethodGet)

	r.HandleFunc("/resources", h.Resources.List).Methods(http.MethodGet)
	r.HandleFunc("/resources", h.Resources.Create).Methods(http.MethodPost)
	r.HandleFunc("/resources/{id}", h.Resources.Get).Methods(http.MethodGet)
	r.HandleFunc("/resources/{id}", h.Resources.Update).Methods(http.MethodPut)
	r.HandleFunc("/resources/{id}", h.Resources.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/resources/{id}/donate", h.Resources.Donate).Methods(http.MethodPut)

	r.HandleFunc("/requests", h.Requests.Submit).Methods(http.MethodPost)
	r.HandleFunc("/requests", h.Requests.List).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id}", h.Requests.Get).Methods(http.MethodGet)
	r.HandleFunc("/requests/{id}/status", h.Requests.UpdateStatus).Methods(http.MethodPut)
	r.HandleFunc("/requests/{id}/reviews", h.Requests.CreateReview).Methods(http.MethodPost)
	r.HandleFunc("/transactions", h.Requests.ListTransactions).Methods(http.MethodGet)

	r.HandleFunc("/notifications", h.Notifications.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.Notifications.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", h.Notifications.MarkAsRead).Methods(http.MethodPut)

	r.HandleFunc("/reports", h.Admin.SubmitReport).Methods(http.MethodPost)
	r.HandleFunc("/admin/reports", h.Admin.ListReports).Methods(http.MethodGet)
	r.HandleFunc("/admin/reports/{id}", h.Admin.ResolveReport).Methods(http.MethodPut)
	r.HandleFunc("/admin/users", h.Admin.ListUsers).Methods(http.MethodGet)
	r.HandleFunc("/admin/users/{id}/ban", h.Admin.SetBanned).Methods(http.MethodPut)
	r.HandleFunc("/admin/requests", h.Admin.ListRequests).Methods(http.MethodGet)
	r.HandleFunc("/admin/requests/{id}", h.Admin.DeleteRequest).Methods(http.MethodDelete)

	return m.RequestID(m.Logging(m.Recover(r)))
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.FromContext(r.Context()).Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
