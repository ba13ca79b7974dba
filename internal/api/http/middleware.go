package http

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"sharenet-backend/internal/config"
	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
	"sharenet-backend/internal/security"
	"sharenet-backend/internal/session"
)

const requestIDHeader = "X-Request-ID"

type Middleware struct {
	tokens   security.TokenManager
	sessions session.Store
}

func NewMiddleware(tokens security.TokenManager, sessions session.Store) *Middleware {
	return &Middleware{tokens: tokens, sessions: sessions}
}

// RequestID tags the request with the caller's X-Request-ID or a fresh one.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.FromContext(r.Context()).Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.FromContext(r.Context()).Error("Panic while serving request",
					"panic", p, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Auth enforces the security level configured for the matched route and
// stores the verified claims in the request context.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityAccess
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				level = config.GetSecurityLevel(r.Method, tmpl)
			}
		}
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}
		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			logger.FromContext(r.Context()).Debug("Token rejected", "error", err)
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}
		if claims.Type != security.TokenTypeAccess {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}

		revoked, err := m.sessions.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if revoked {
			writeError(w, r, domain.ErrUnauthenticated)
			return
		}

		if level == config.SecurityAdmin && claims.Role != domain.UserRoleAdmin {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:]), true
	}
	return "", false
}
