package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"pressroom/internal/middleware"
	"pressroom/internal/session"
	"pressroom/internal/store"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "Pressroom"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type twoFAVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// sessionUser is the session identity as returned by the API.
type sessionUser struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	TwoFADone   bool   `json:"two_fa_done"`
}

func sessionPayload(sess *session.Data) sessionUser {
	return sessionUser{
		UserID:      sess.UserID.String(),
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        sess.Role,
		TwoFADone:   sess.TwoFADone,
	}
}

// Login checks credentials and opens a session. The session starts with
// 2FA incomplete; the client must finish setup or verification before
// the rest of the admin API opens up. needs_2fa_setup tells the client
// which of the two it is.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		respondInternal(w, "login lookup failed", err)
		return
	}

	// One message for both failures; do not reveal which part was wrong.
	if user == nil || !a.userStore.CheckPassword(user, req.Password) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	sess := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   false,
	}
	if _, err := a.sessions.Create(r.Context(), w, sess); err != nil {
		respondInternal(w, "session create failed", err)
		return
	}

	slog.Info("login", "user", user.Email)

	respondJSON(w, http.StatusOK, map[string]any{
		"user":            sessionPayload(sess),
		"needs_2fa_setup": user.Needs2FASetup(),
		"csrf_token":      middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// TwoFASetup starts TOTP enrolment for the logged-in user: it issues a
// secret and returns it with a QR code PNG. An existing unverified
// secret is reused so retrying setup does not silently invalidate a
// code the user already scanned.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		respondInternal(w, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
		return
	}
	if user.TOTPEnabled {
		respondError(w, http.StatusConflict, "conflict", "two-factor authentication is already enabled")
		return
	}

	var secret string
	if user.TOTPSecret != nil {
		secret = *user.TOTPSecret
	} else {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      totpIssuer,
			AccountName: user.Email,
		})
		if err != nil {
			respondInternal(w, "totp generate failed", err)
			return
		}
		secret = key.Secret()
		if err := a.userStore.SetTOTPSecret(user.ID, secret); err != nil {
			respondInternal(w, "save totp secret failed", err)
			return
		}
	}

	otpauthURL := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		totpIssuer, user.Email, secret, totpIssuer)

	qrPNG, err := qrcode.Encode(otpauthURL, qrcode.Medium, 256)
	if err != nil {
		respondInternal(w, "qr code generation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"secret":        secret,
		"otpauth_url":   otpauthURL,
		"qr_png_base64": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify validates a TOTP code and completes authentication. On
// the first successful verification it turns 2FA on for the account.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFAVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		respondInternal(w, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
		return
	}
	if user.TOTPSecret == nil {
		respondError(w, http.StatusConflict, "conflict", "two-factor setup has not been started")
		return
	}

	if !totp.Validate(req.Code, *user.TOTPSecret) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid two-factor code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			respondInternal(w, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		respondInternal(w, "session update failed", err)
		return
	}

	slog.Info("2fa verified", "user", user.Email)

	respondJSON(w, http.StatusOK, map[string]any{"user": sessionPayload(sess)})
}

// Logout destroys the session. The cookie is cleared even when the
// Valkey delete fails; the orphaned entry just expires.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current session identity plus a CSRF token for clients
// bootstrapping after a page reload.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"user":       sessionPayload(sess),
		"csrf_token": middleware.CSRFTokenFromCtx(r.Context()),
	})
}
