// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"pressroom/internal/session"
)

type contextKey string

// SessionKey is where LoadSession parks the session in the request context.
const SessionKey contextKey = "session"

// SessionFromCtx returns the loaded session, or nil for anonymous requests.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// LoadSession looks the request's session up in Valkey and, when one
// exists, attaches it to the context. It never rejects: enforcement
// belongs to the Require* guards mounted after it. A failed Valkey
// lookup degrades to anonymous rather than erroring the request.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if data, err := store.Get(r.Context(), r); err == nil && data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth turns anonymous requests away with 401. Mount after LoadSession.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA blocks sessions that have not completed the second factor.
// The 2FA setup and verify endpoints live outside this guard, or nobody
// could ever enroll. A nil session passes through; RequireAuth in front
// already answered for those.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := SessionFromCtx(r.Context()); sess != nil && !sess.TwoFADone {
			writeError(w, http.StatusForbidden, "two_factor_required", "two-factor setup is not complete")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restricts the route to the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || sess.Role != "admin" {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
