/*
server.go - Router construction and middleware

PURPOSE:
  Wires handlers into a chi router with CORS, request logging, and session
  authentication. Everything under /api except /api/auth/login requires a
  valid bearer token.

SEE ALSO:
  - handlers.go: The handlers mounted here
  - cmd/server: Startup and shutdown
*/
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/warp/workforce-engine/authz"
)

type contextKey string

const sessionKey contextKey = "session"

// sessionFrom returns the authenticated session claims. Only call from
// handlers behind the auth middleware; the middleware guarantees presence.
func sessionFrom(ctx context.Context) *authz.SessionClaims {
	claims, _ := ctx.Value(sessionKey).(*authz.SessionClaims)
	return claims
}

// NewRouter builds the full API router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/leave/types", h.listLeaveTypes)
			r.Route("/leave/requests", func(r chi.Router) {
				r.Post("/", h.submitLeave)
				r.Get("/", h.listLeaveRequests)
				r.Get("/{id}", h.getLeaveRequest)
				r.Put("/{id}", h.rescheduleLeave)
				r.Post("/{id}/approve", h.approveLeave)
				r.Post("/{id}/reject", h.rejectLeave)
				r.Post("/{id}/cancel", h.cancelLeave)
			})

			r.Get("/users", h.listUsers)
			r.Get("/users/{id}/balance", h.getBalance)
			r.Get("/users/{id}/availability", h.getAvailability)

			r.Route("/projects/assignments", func(r chi.Router) {
				r.Post("/", h.saveAssignment)
				r.Delete("/", h.deleteAssignment)
			})

			r.Route("/delegations", func(r chi.Router) {
				r.Post("/", h.createDelegation)
				r.Get("/", h.listDelegations)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Post("/", h.createHoliday)
				r.Get("/", h.listHolidays)
				r.Delete("/{id}", h.deleteHoliday)
			})

			r.Route("/admin/calendar", func(r chi.Router) {
				r.Get("/", h.getCalendar)
				r.Put("/", h.reloadCalendar)
			})
		})
	})

	return r
}

// authenticate verifies the Authorization bearer token and stores the
// session claims in the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		claims, err := h.Tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(started).String(),
			}).Info("request")
		})
	}
}
