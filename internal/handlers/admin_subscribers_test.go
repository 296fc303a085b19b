package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/models"
)

// seedSubscriber inserts a pending subscriber straight through the store.
func seedSubscriber(t *testing.T, env *testEnv, email string) *models.Subscriber {
	t.Helper()

	marker := uuid.NewString()[:8]
	sub, _, err := env.SubscriberStore.UpsertPending(
		email, "seed-confirm-"+marker, "seed-unsub-"+marker, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}
	return sub
}

func TestSubscriberList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t)

	email := "sub-list-" + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, env.DB, email) })
	seedSubscriber(t, env, email)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscribers?status=pending&limit=200", nil)
	rec := httptest.NewRecorder()
	env.Admin.SubscriberList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	found := false
	for _, raw := range decodeBody(t, rec)["subscribers"].([]any) {
		sub := raw.(map[string]any)
		if sub["email"] == email {
			found = true
			if sub["status"] != "pending" {
				t.Errorf("status: got %v, want pending", sub["status"])
			}
		}
	}
	if !found {
		t.Errorf("pending filter should include %s", email)
	}
}

func TestSubscriberList_UnknownStatus_Returns400(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscribers?status=lapsed", nil)
	rec := httptest.NewRecorder()
	env.Admin.SubscriberList(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubscriberList_NeverExposesTokenDigests(t *testing.T) {
	env := newTestEnv(t)

	marker := uuid.NewString()[:8]
	email := "sub-privacy-" + marker + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, env.DB, email) })

	confirmDigest := "privacy-confirm-" + marker
	if _, _, err := env.SubscriberStore.UpsertPending(
		email, confirmDigest, "privacy-unsub-"+marker, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/subscribers?limit=200", nil)
	rec := httptest.NewRecorder()
	env.Admin.SubscriberList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.Contains(rec.Body.String(), confirmDigest) {
		t.Error("subscriber responses must not carry token digests")
	}
}

func TestSubscriberSetTier_UpdatesTier(t *testing.T) {
	env := newTestEnv(t)

	email := "sub-tier-" + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, env.DB, email) })
	sub := seedSubscriber(t, env, email)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/subscribers/"+sub.ID.String()+"/tier",
		strings.NewReader(`{"tier": "premium"}`))
	req = withChiURLParam(req, "id", sub.ID.String())

	rec := httptest.NewRecorder()
	env.Admin.SubscriberSetTier(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("set tier: got status %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if decodeBody(t, rec)["subscriber"].(map[string]any)["tier"] != "premium" {
		t.Errorf("tier in response: got %s", rec.Body.String())
	}

	stored, err := env.SubscriberStore.FindByEmail(email)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored.Tier != models.TierPremium {
		t.Errorf("stored tier: got %s, want premium", stored.Tier)
	}
}

func TestSubscriberSetTier_UnknownTier_Returns422(t *testing.T) {
	env := newTestEnv(t)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/subscribers/"+id+"/tier",
		strings.NewReader(`{"tier": "platinum"}`))
	req = withChiURLParam(req, "id", id)

	rec := httptest.NewRecorder()
	env.Admin.SubscriberSetTier(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad tier: got status %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), `"tier"`) {
		t.Errorf("error should name the tier field, got: %s", rec.Body.String())
	}
}

func TestSubscriberSetTier_UnknownID_Returns404(t *testing.T) {
	env := newTestEnv(t)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/subscribers/"+id+"/tier",
		strings.NewReader(`{"tier": "free"}`))
	req = withChiURLParam(req, "id", id)

	rec := httptest.NewRecorder()
	env.Admin.SubscriberSetTier(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown subscriber: got status %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSubscriberDelete_RemovesRecord(t *testing.T) {
	env := newTestEnv(t)

	email := "sub-del-" + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, env.DB, email) })
	sub := seedSubscriber(t, env, email)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/subscribers/"+sub.ID.String(), nil)
	req = withChiURLParam(req, "id", sub.ID.String())

	rec := httptest.NewRecorder()
	env.Admin.SubscriberDelete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d, want %d", rec.Code, http.StatusNoContent)
	}

	stored, err := env.SubscriberStore.FindByEmail(email)
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored != nil {
		t.Error("deleted subscriber should be gone")
	}
}
