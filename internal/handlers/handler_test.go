// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"pressroom/internal/cache"
	"pressroom/internal/database"
	"pressroom/internal/lifecycle"
	"pressroom/internal/middleware"
	"pressroom/internal/models"
	"pressroom/internal/paywall"
	"pressroom/internal/redirects"
	"pressroom/internal/scheduler"
	"pressroom/internal/session"
	"pressroom/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "pressroom")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "pressroom")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "content:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB              *sql.DB
	Valkey          *redis.Client
	Sessions        *session.Store
	ContentStore    *store.ContentStore
	UserStore       *store.UserStore
	AssetStore      *store.AssetStore
	SubscriberStore *store.SubscriberStore
	RedirectStore   *store.RedirectStore
	Redirects       *redirects.Service
	Engine          *lifecycle.Engine
	Schedule        *scheduler.Service
	ContentCache    *cache.ContentCache
	CacheLog        *store.CacheLogStore
	Admin           *Admin
	Auth            *Auth
	Public          *Public
}

// newTestEnv creates a complete test environment. S3 and SMTP stay nil;
// handlers treat both as unconfigured.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	contentStore := store.NewContentStore(db)
	userStore := store.NewUserStore(db)
	assetStore := store.NewAssetStore(db)
	subscriberStore := store.NewSubscriberStore(db)
	redirectStore := store.NewRedirectStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	engine := lifecycle.NewEngine(db)
	schedule := scheduler.NewService(db, engine)
	redirectsSvc := redirects.NewService(redirectStore)
	if err := redirectsSvc.Reload(); err != nil {
		t.Fatalf("redirects reload: %v", err)
	}
	gate := paywall.New(2)
	contentCache := cache.NewContentCache(vk, 1*time.Minute)

	admin := NewAdmin(sessions, contentStore, userStore, assetStore, subscriberStore,
		nil, engine, schedule, redirectsSvc, contentCache, cacheLogStore)
	auth := NewAuth(sessions, userStore)
	public := NewPublic(contentStore, subscriberStore, redirectsSvc, gate, contentCache, nil)

	return &testEnv{
		DB:              db,
		Valkey:          vk,
		Sessions:        sessions,
		ContentStore:    contentStore,
		UserStore:       userStore,
		AssetStore:      assetStore,
		SubscriberStore: subscriberStore,
		RedirectStore:   redirectStore,
		Redirects:       redirectsSvc,
		Engine:          engine,
		Schedule:        schedule,
		ContentCache:    contentCache,
		CacheLog:        cacheLogStore,
		Admin:           admin,
		Auth:            auth,
		Public:          public,
	}
}

// testUser creates a throwaway user and registers cleanup. Rows that
// reference it must be cleaned first by their own cleanups.
func testUser(t *testing.T, db *sql.DB, role models.Role) *models.User {
	t.Helper()

	email := "handler-test-" + uuid.NewString()[:8] + "@example.com"
	u, err := store.NewUserStore(db).Create(email, "test-password", "Handler Test", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// testSession creates session data for a user without going through login.
func testSession(u *models.User) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		TwoFADone:   true,
	}
}

// withSession attaches session data to a request using the middleware key.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, sess))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// cleanContent removes test content by slug. Call in t.Cleanup().
func cleanContent(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM content_items WHERE slug = $1", slug)
	}
}

// cleanRedirects removes test redirects by source path. Call in t.Cleanup().
func cleanRedirects(t *testing.T, db *sql.DB, sources ...string) {
	t.Helper()
	for _, src := range sources {
		db.Exec("DELETE FROM redirects WHERE source_path = $1", src)
	}
}

// cleanSubscribers removes test subscribers by email. Call in t.Cleanup().
func cleanSubscribers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM subscribers WHERE email = $1", email)
	}
}
