// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Pressroom API.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"pressroom/internal/cache"
	"pressroom/internal/lifecycle"
	"pressroom/internal/models"
	"pressroom/internal/redirects"
	"pressroom/internal/scheduler"
	"pressroom/internal/session"
	"pressroom/internal/storage"
	"pressroom/internal/store"
)

// Admin groups all staff-facing API handlers and their dependencies.
type Admin struct {
	sessions        *session.Store
	contentStore    *store.ContentStore
	userStore       *store.UserStore
	assetStore      *store.AssetStore
	subscriberStore *store.SubscriberStore
	storageClient   *storage.Client
	engine          *lifecycle.Engine
	schedule        *scheduler.Service
	redirects       *redirects.Service
	contentCache    *cache.ContentCache
	cacheLog        *store.CacheLogStore
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// storageClient may be nil if S3 is not configured; contentCache and
// cacheLog may be nil in tests.
func NewAdmin(sessions *session.Store, contentStore *store.ContentStore, userStore *store.UserStore, assetStore *store.AssetStore, subscriberStore *store.SubscriberStore, storageClient *storage.Client, engine *lifecycle.Engine, schedule *scheduler.Service, redirectSvc *redirects.Service, contentCache *cache.ContentCache, cacheLog *store.CacheLogStore) *Admin {
	return &Admin{
		sessions:        sessions,
		contentStore:    contentStore,
		userStore:       userStore,
		assetStore:      assetStore,
		subscriberStore: subscriberStore,
		storageClient:   storageClient,
		engine:          engine,
		schedule:        schedule,
		redirects:       redirectSvc,
		contentCache:    contentCache,
		cacheLog:        cacheLog,
	}
}

// Stats reports content counts by lifecycle status for the admin overview.
func (a *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	statuses := []models.ContentStatus{
		models.ContentStatusDraft,
		models.ContentStatusScheduled,
		models.ContentStatusPublished,
		models.ContentStatusArchived,
	}

	counts := make(map[string]int, len(statuses))
	for _, st := range statuses {
		n, err := a.contentStore.CountByStatus(st)
		if err != nil {
			respondInternal(w, "content count failed", err)
			return
		}
		counts[string(st)] = n
	}

	respondJSON(w, http.StatusOK, map[string]any{"content": counts})
}

// invalidateContent clears cached public responses for a slug and records
// the invalidation so stale reads can be traced.
func (a *Admin) invalidateContent(ctx context.Context, id uuid.UUID, slug, action string) {
	if a.contentCache != nil {
		a.contentCache.InvalidateSlug(ctx, slug)
	}
	if a.cacheLog != nil {
		a.cacheLog.Log("content", id, action)
	}
}
