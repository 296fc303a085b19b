// Package router sets up all HTTP routes and middleware chains for the
// Pressroom API. It organizes routes into auth, staff, and public groups
// with appropriate middleware stacks, and falls back to redirect rules
// for paths nothing else claims.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/handlers"
	"pressroom/internal/middleware"
	"pressroom/internal/redirects"
	"pressroom/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. secure controls the Secure flag on the CSRF
// cookie. loginLimiter guards the credential endpoint and publicLimiter
// guards newsletter ingestion; the caller owns both and stops them on
// shutdown.
func New(secure bool, sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, redirectSvc *redirects.Service, loginLimiter, publicLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check, no auth, no CSRF.
	r.Get("/health", healthHandler)

	csrf := middleware.NewCSRF(secure)

	// Authentication endpoints. The 2FA pair requires a session but NOT a
	// completed second factor, since it exists to complete enrolment.
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(csrf)

		r.With(loginLimiter.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetup)
			r.Post("/2fa/verify", auth.TwoFAVerify)
			r.Get("/me", auth.Me)
		})
	})

	// Staff API: authenticated, 2FA-verified, CSRF on every mutation.
	r.Group(func(r chi.Router) {
		r.Use(csrf)
		r.Use(middleware.RequireAuth)
		r.Use(middleware.Require2FA)

		// Content items and their lifecycle.
		r.Route("/api/content", func(r chi.Router) {
			r.Get("/", admin.ContentList)
			r.Post("/", admin.ContentCreate)
			r.Get("/{id}", admin.ContentGet)
			r.Put("/{id}", admin.ContentUpdate)
			r.Delete("/{id}", admin.ContentDelete)
			r.Post("/{id}/transition", admin.ContentTransition)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/stats", admin.Stats)

			// Publication schedule.
			r.Route("/schedule", func(r chi.Router) {
				r.Get("/calendar", admin.ScheduleCalendar)
				r.Post("/publish-now", admin.PublishNow)
				r.Delete("/jobs/{id}", admin.JobCancel)
			})

			// Redirect rules.
			r.Route("/redirects", func(r chi.Router) {
				r.Get("/", admin.RedirectList)
				r.Post("/", admin.RedirectCreate)
				r.Post("/validate", admin.RedirectValidate)
				r.Put("/{id}", admin.RedirectUpdate)
				r.Delete("/{id}", admin.RedirectDelete)
			})

			// Versioned assets.
			r.Route("/assets", func(r chi.Router) {
				r.Get("/", admin.AssetList)
				r.Post("/", admin.AssetUpload)
				r.Get("/{id}", admin.AssetGet)
				r.Delete("/{id}", admin.AssetDelete)
				r.Post("/{id}/versions", admin.AssetVersionUpload)
				r.Post("/{id}/rollback", admin.AssetRollback)
				r.Get("/{id}/download", admin.AssetDownload)
			})

			// Newsletter subscribers.
			r.Route("/subscribers", func(r chi.Router) {
				r.Get("/", admin.SubscriberList)
				r.Put("/{id}/tier", admin.SubscriberSetTier)
				r.Delete("/{id}", admin.SubscriberDelete)
			})

			// User management, admin role only.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", admin.UserList)
				r.Post("/", admin.UserCreate)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})
		})
	})

	// Public read API. Newsletter signup is rate limited per client IP.
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/content", public.ContentList)
		r.Get("/content/{slug}", public.ContentBySlug)
		r.Get("/resolve", public.Resolve)

		r.Route("/newsletter", func(r chi.Router) {
			r.With(publicLimiter.Middleware).Post("/subscribe", public.Subscribe)
			r.Get("/confirm", public.Confirm)
			r.Get("/unsubscribe", public.Unsubscribe)
		})
	})

	// Unmatched paths are checked against the redirect rules, so moved
	// content answers 301/302 directly at its old URL.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if res := redirectSvc.Resolve(r.URL.Path); res != nil {
			http.Redirect(w, r, res.Target, res.StatusCode)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
