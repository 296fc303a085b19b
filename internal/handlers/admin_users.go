// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"pressroom/internal/middleware"
	"pressroom/internal/models"
)

type userCreateRequest struct {
	Email       string `json:"email" validate:"required,email,max=320"`
	DisplayName string `json:"display_name" validate:"required,max=200"`
	Password    string `json:"password" validate:"required,min=8,max=200"`
	Role        string `json:"role" validate:"required,oneof=admin editor"`
}

// UserList returns every user account. Password hashes and TOTP secrets
// never serialize.
func (a *Admin) UserList(w http.ResponseWriter, r *http.Request) {
	users, err := a.userStore.List()
	if err != nil {
		respondInternal(w, "user list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// UserCreate adds a user account. The new user must enrol in 2FA on
// their first login before the API lets them past the auth endpoints.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := a.userStore.FindByEmail(email)
	if err != nil {
		respondInternal(w, "user lookup failed", err)
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "conflict", "a user with this email already exists")
		return
	}

	user, err := a.userStore.Create(email, req.Password, strings.TrimSpace(req.DisplayName), models.Role(req.Role))
	if err != nil {
		respondInternal(w, "user create failed", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("user created", "admin", sess.Email, "new_user", user.Email, "role", user.Role)

	respondJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// UserResetTwoFA clears another user's TOTP enrolment, forcing re-setup
// on their next login. Resetting your own would lock the session you are
// using to do it, so that is rejected.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	targetID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if targetID == sess.UserID {
		respondError(w, http.StatusForbidden, "forbidden", "cannot reset your own two-factor setup")
		return
	}

	target, err := a.userStore.FindByID(targetID)
	if err != nil {
		respondInternal(w, "user lookup failed", err)
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	if err := a.userStore.ResetTOTP(targetID); err != nil {
		respondInternal(w, "2fa reset failed", err)
		return
	}

	slog.Info("2fa reset by admin", "admin", sess.Email, "target_user", targetID)
	w.WriteHeader(http.StatusNoContent)
}
