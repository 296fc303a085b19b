package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkey connects to the test Valkey on DB 15 so dev sessions are
// never touched. Skips when Valkey is unreachable.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()

	addr := envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		if keys, _ := client.Keys(ctx, keyPrefix+"*").Result(); len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func editorData() *Data {
	return &Data{
		UserID:      uuid.New(),
		Email:       "editor@pressroom.test",
		DisplayName: "Newsroom Editor",
		Role:        "editor",
	}
}

// open creates a session and returns its cookie plus a request carrying it.
func open(t *testing.T, store *Store, data *Data) (*http.Cookie, *http.Request) {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := store.Create(context.Background(), w, data); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Create did not set the session cookie")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	return cookie, req
}

func TestRoundTrip(t *testing.T) {
	store := NewStore(testValkey(t), false)
	ctx := context.Background()

	want := editorData()
	cookie, req := open(t, store, want)

	if cookie.Value == "" {
		t.Error("session cookie has no value")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("cookie MaxAge: got %d, want %d", cookie.MaxAge, int(DefaultTTL.Seconds()))
	}

	got, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a live session")
	}
	if got.UserID != want.UserID || got.Email != want.Email || got.Role != want.Role {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if got.TwoFADone {
		t.Error("fresh session must start with 2FA incomplete")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on create")
	}
}

func TestGetWithoutSession(t *testing.T) {
	store := NewStore(testValkey(t), false)
	ctx := context.Background()

	// No cookie at all.
	bare := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if data, err := store.Get(ctx, bare); err != nil || data != nil {
		t.Errorf("no cookie: got (%+v, %v), want (nil, nil)", data, err)
	}

	// Cookie naming a session Valkey has never seen.
	stale := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	stale.AddCookie(&http.Cookie{Name: CookieName, Value: "expired-or-forged"})
	if data, err := store.Get(ctx, stale); err != nil || data != nil {
		t.Errorf("unknown id: got (%+v, %v), want (nil, nil)", data, err)
	}
}

func TestUpdateMarks2FADone(t *testing.T) {
	store := NewStore(testValkey(t), false)
	ctx := context.Background()

	data := editorData()
	_, req := open(t, store, data)

	data.TwoFADone = true
	if err := store.Update(ctx, req, data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Get(ctx, req)
	if err != nil || got == nil {
		t.Fatalf("Get after update: (%+v, %v)", got, err)
	}
	if !got.TwoFADone {
		t.Error("TwoFADone not persisted by Update")
	}
}

func TestUpdateWithoutCookieFails(t *testing.T) {
	store := NewStore(testValkey(t), false)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if err := store.Update(context.Background(), req, editorData()); err == nil {
		t.Error("Update without a cookie should fail")
	}
}

func TestDestroy(t *testing.T) {
	store := NewStore(testValkey(t), false)
	ctx := context.Background()

	_, req := open(t, store, editorData())

	w := httptest.NewRecorder()
	if err := store.Destroy(ctx, w, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge != -1 {
			t.Errorf("destroyed cookie MaxAge: got %d, want -1", c.MaxAge)
		}
	}
	if data, _ := store.Get(ctx, req); data != nil {
		t.Error("session still readable after Destroy")
	}

	// Destroying again, or with no cookie, stays a quiet no-op.
	if err := store.Destroy(ctx, httptest.NewRecorder(), req); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
	bare := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if err := store.Destroy(ctx, httptest.NewRecorder(), bare); err != nil {
		t.Errorf("Destroy without cookie: %v", err)
	}
}

func TestSecureFlagFollowsStore(t *testing.T) {
	store := NewStore(testValkey(t), true)
	cookie, _ := open(t, store, editorData())
	if !cookie.Secure {
		t.Error("secure store must set Secure on the session cookie")
	}
}

func TestSessionExpiresInValkey(t *testing.T) {
	client := testValkey(t)
	store := NewStore(client, false)
	ctx := context.Background()

	cookie, _ := open(t, store, editorData())

	ttl, err := client.TTL(ctx, keyPrefix+cookie.Value).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > DefaultTTL {
		t.Errorf("session TTL: got %v, want within (0, %v]", ttl, DefaultTTL)
	}
	if DefaultTTL-ttl > time.Minute {
		t.Errorf("session TTL %v drifted too far from %v", ttl, DefaultTTL)
	}
}
