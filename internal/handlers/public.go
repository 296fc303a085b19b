// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/cache"
	"pressroom/internal/mailer"
	"pressroom/internal/markdown"
	"pressroom/internal/models"
	"pressroom/internal/paywall"
	"pressroom/internal/redirects"
	"pressroom/internal/store"
)

const (
	// confirmTTL is how long a double opt-in confirmation link stays valid.
	confirmTTL = 48 * time.Hour

	// tokenLength is the byte length of subscriber tokens before hex encoding.
	tokenLength = 32
)

// Public groups handlers for the unauthenticated read API. Content
// responses are paywall-filtered before serialization and cached in
// Valkey per slug and viewer tier, so a cached body is always safe to
// replay to anyone holding the same tier.
type Public struct {
	contentStore    *store.ContentStore
	subscriberStore *store.SubscriberStore
	redirectsSvc    *redirects.Service
	gate            *paywall.Gate
	contentCache    *cache.ContentCache
	mail            *mailer.Mailer
}

// NewPublic creates a new Public handler group. contentCache and mail
// may be nil: responses are then built fresh each time and opt-in mail
// is dropped.
func NewPublic(contentStore *store.ContentStore, subscriberStore *store.SubscriberStore, redirectsSvc *redirects.Service, gate *paywall.Gate, contentCache *cache.ContentCache, mail *mailer.Mailer) *Public {
	return &Public{
		contentStore:    contentStore,
		subscriberStore: subscriberStore,
		redirectsSvc:    redirectsSvc,
		gate:            gate,
		contentCache:    contentCache,
		mail:            mail,
	}
}

// viewerTier resolves the access level of the caller. An unknown,
// revoked, or absent Bearer token reads as the free tier; lookup
// failures degrade the same way rather than blocking the read path.
func (p *Public) viewerTier(r *http.Request) models.Tier {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return models.TierFree
	}

	sub, err := p.subscriberStore.FindByAccessDigest(digest(token))
	if err != nil {
		slog.Warn("access token lookup failed", "error", err)
		return models.TierFree
	}
	if sub == nil {
		return models.TierFree
	}
	return sub.Tier
}

// ContentBySlug serves one published content item with its blocks cut
// down to what the viewer's tier allows. Markdown blocks arrive with
// rendered HTML alongside the source.
func (p *Public) ContentBySlug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")
	viewer := p.viewerTier(r)

	key := cache.Key(slugParam, string(viewer))
	if p.contentCache != nil {
		if cached, ok := p.contentCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		}
	}

	item, err := p.contentStore.FindPublishedBySlug(slugParam)
	if err != nil {
		respondInternal(w, "find content by slug failed", err)
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	blocks, err := p.contentStore.BlocksFor(item.ID)
	if err != nil {
		respondInternal(w, "load blocks failed", err)
		return
	}

	res := p.gate.Apply(blocks, item.Tier, viewer)
	if res.Blocks == nil {
		res.Blocks = []models.ContentBlock{}
	}
	if err := markdown.RenderBlocks(res.Blocks); err != nil {
		respondInternal(w, "render blocks failed", err)
		return
	}

	body, err := json.Marshal(map[string]any{
		"content":       item,
		"blocks":        res.Blocks,
		"locked":        res.Locked,
		"total_blocks":  res.TotalBlocks,
		"required_tier": res.RequiredTier,
	})
	if err != nil {
		respondInternal(w, "encode content failed", err)
		return
	}

	if p.contentCache != nil {
		p.contentCache.Set(ctx, key, body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// ContentList returns published, publicly visible items, newest first.
// Unlisted items resolve by slug but never show up here.
func (p *Public) ContentList(w http.ResponseWriter, r *http.Request) {
	ctype := models.ContentType(r.URL.Query().Get("type"))
	if ctype != "" && !models.ValidContentType(ctype) {
		respondError(w, http.StatusBadRequest, "bad_request", "unknown type filter")
		return
	}

	limit, offset := pageParams(r, 20)
	items, err := p.contentStore.ListPublishedPublic(ctype, limit, offset)
	if err != nil {
		respondInternal(w, "list published content failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"content": items})
}

// Resolve answers where a legacy path leads without issuing the
// redirect itself. Chains are pre-flattened, so the answer is always
// the final destination.
func (p *Public) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "path query parameter is required")
		return
	}

	res := p.redirectsSvc.Resolve(path)
	if res == nil {
		respondError(w, http.StatusNotFound, "not_found", "no redirect for this path")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"target_path": res.Target,
		"status_code": res.StatusCode,
	})
}

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// Subscribe starts double opt-in for an address. The response is the
// same whether the address is new, pending, or already confirmed, so
// the endpoint cannot be used to probe the subscriber list.
func (p *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	confirmToken, err := newToken()
	if err != nil {
		respondInternal(w, "token generation failed", err)
		return
	}
	unsubToken, err := newToken()
	if err != nil {
		respondInternal(w, "token generation failed", err)
		return
	}

	_, created, err := p.subscriberStore.UpsertPending(
		email, digest(confirmToken), digest(unsubToken), time.Now().Add(confirmTTL))
	if err != nil {
		respondInternal(w, "subscribe failed", err)
		return
	}

	if created {
		go p.mail.SendConfirmation(context.Background(), email, confirmToken)
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"message": "check your inbox for a confirmation link",
	})
}

// Confirm completes double opt-in via the mailed token. On success the
// subscriber gets a reader access token, returned here and in the
// welcome mail. Invalid and expired tokens look the same to the caller.
func (p *Public) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "token query parameter is required")
		return
	}

	sub, err := p.subscriberStore.FindByConfirmDigest(digest(token))
	if err != nil {
		respondInternal(w, "confirm lookup failed", err)
		return
	}
	if sub == nil || sub.ConfirmExpiresAt == nil || time.Now().After(*sub.ConfirmExpiresAt) {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid or expired confirmation token")
		return
	}

	accessToken, err := newToken()
	if err != nil {
		respondInternal(w, "token generation failed", err)
		return
	}
	unsubToken, err := newToken()
	if err != nil {
		respondInternal(w, "token generation failed", err)
		return
	}

	confirmed, err := p.subscriberStore.Confirm(sub.ID, digest(accessToken), digest(unsubToken))
	if err != nil {
		respondInternal(w, "confirm failed", err)
		return
	}
	if confirmed == nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid or expired confirmation token")
		return
	}

	slog.Info("subscriber confirmed", "subscriber", confirmed.ID)
	go p.mail.SendWelcome(context.Background(), confirmed.Email, accessToken, unsubToken)

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "subscription confirmed",
		"access_token": accessToken,
	})
}

// Unsubscribe turns off a subscription via the mailed token. Repeat
// clicks on the same link keep reporting success.
func (p *Public) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "token query parameter is required")
		return
	}

	sub, err := p.subscriberStore.FindByUnsubscribeDigest(digest(token))
	if err != nil {
		respondInternal(w, "unsubscribe lookup failed", err)
		return
	}
	if sub == nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid unsubscribe token")
		return
	}

	if _, err := p.subscriberStore.Unsubscribe(sub.ID); err != nil {
		respondInternal(w, "unsubscribe failed", err)
		return
	}

	slog.Info("subscriber unsubscribed", "subscriber", sub.ID)
	respondJSON(w, http.StatusOK, map[string]any{"message": "you are unsubscribed"})
}

// newToken returns a fresh random token for subscriber mail links.
func newToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// digest is the stored form of a subscriber token. Only digests touch
// the database; a leaked dump cannot be replayed against the API.
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
