package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/models"
)

func subscriberEmail() string {
	return "sub-" + uuid.NewString()[:8] + "@example.com"
}

func TestSubscriberStoreUpsertPending(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := subscriberEmail()
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	expires := time.Now().Add(48 * time.Hour)
	sub, created, err := s.UpsertPending(email, "confirm-1", "unsub-1", expires)
	if err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}
	if !created {
		t.Error("expected created=true for new subscriber")
	}
	if sub.Status != models.SubscriberPending {
		t.Errorf("status: got %q, want %q", sub.Status, models.SubscriberPending)
	}

	// A second request replaces the tokens but keeps the row.
	again, created, err := s.UpsertPending(email, "confirm-2", "unsub-2", expires)
	if err != nil {
		t.Fatalf("UpsertPending again: %v", err)
	}
	if created {
		t.Error("expected created=false on re-request")
	}
	if again.ID != sub.ID {
		t.Error("re-request should reuse the existing row")
	}
	if again.ConfirmDigest == nil || *again.ConfirmDigest != "confirm-2" {
		t.Error("re-request should rotate the confirm digest")
	}
}

func TestSubscriberStoreConfirmFlow(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := subscriberEmail()
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	expires := time.Now().Add(48 * time.Hour)
	sub, _, err := s.UpsertPending(email, "confirm-tok", "unsub-tok", expires)
	if err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}

	byTok, err := s.FindByConfirmDigest("confirm-tok")
	if err != nil {
		t.Fatalf("FindByConfirmDigest: %v", err)
	}
	if byTok == nil || byTok.ID != sub.ID {
		t.Fatal("confirm digest lookup failed")
	}

	confirmed, err := s.Confirm(sub.ID, "access-tok", "unsub-tok-2")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed == nil {
		t.Fatal("Confirm returned nil for pending subscriber")
	}
	if confirmed.Status != models.SubscriberConfirmed {
		t.Errorf("status: got %q, want %q", confirmed.Status, models.SubscriberConfirmed)
	}
	if confirmed.ConfirmDigest != nil {
		t.Error("confirm digest should be cleared after confirmation")
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("confirmed_at should be set")
	}
	if confirmed.UnsubscribeDigest != "unsub-tok-2" {
		t.Error("confirmation should rotate the unsubscribe digest")
	}

	// Confirming twice hits the pending-only guard.
	repeat, err := s.Confirm(sub.ID, "other-tok", "unsub-tok-3")
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if repeat != nil {
		t.Error("second Confirm should return nil")
	}

	byAccess, err := s.FindByAccessDigest("access-tok")
	if err != nil {
		t.Fatalf("FindByAccessDigest: %v", err)
	}
	if byAccess == nil || byAccess.ID != sub.ID {
		t.Fatal("access digest lookup failed")
	}
}

func TestSubscriberStoreConfirmedUpsertShortCircuits(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := subscriberEmail()
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	expires := time.Now().Add(48 * time.Hour)
	sub, _, err := s.UpsertPending(email, "c1", "u1", expires)
	if err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}
	if _, err := s.Confirm(sub.ID, "a1", "u1a"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	same, created, err := s.UpsertPending(email, "c2", "u2", expires)
	if err != nil {
		t.Fatalf("UpsertPending on confirmed: %v", err)
	}
	if created {
		t.Error("expected created=false for confirmed subscriber")
	}
	if same.Status != models.SubscriberConfirmed {
		t.Error("confirmed subscriber must not be demoted to pending")
	}

	// The row itself is untouched: the reader's access token still works
	// and the unsubscribe link from the welcome mail still matches. A
	// token-less subscribe request must never revoke entitlement, however
	// it interleaves with the confirmation.
	if keeper, err := s.FindByAccessDigest("a1"); err != nil || keeper == nil || keeper.ID != sub.ID {
		t.Errorf("access digest after upsert: got (%+v, %v), want the confirmed row", keeper, err)
	}
	if same.UnsubscribeDigest != "u1a" {
		t.Errorf("unsubscribe digest: got %q, want the post-confirm %q", same.UnsubscribeDigest, "u1a")
	}
}

func TestSubscriberStoreUnsubscribeAndResubscribe(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := subscriberEmail()
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	expires := time.Now().Add(48 * time.Hour)
	sub, _, err := s.UpsertPending(email, "c1", "u1", expires)
	if err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}
	if _, err := s.Confirm(sub.ID, "a1", "u1a"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	gone, err := s.Unsubscribe(sub.ID)
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if gone.Status != models.SubscriberUnsubscribed {
		t.Errorf("status: got %q, want %q", gone.Status, models.SubscriberUnsubscribed)
	}
	if gone.UnsubscribedAt == nil {
		t.Error("unsubscribed_at should be set")
	}

	// The access token dies with the subscription.
	if found, err := s.FindByAccessDigest("a1"); err != nil {
		t.Fatalf("FindByAccessDigest: %v", err)
	} else if found != nil {
		t.Error("access digest should be revoked after unsubscribe")
	}

	// A new opt-in starts the cycle over.
	back, created, err := s.UpsertPending(email, "c2", "u2", expires)
	if err != nil {
		t.Fatalf("UpsertPending after unsubscribe: %v", err)
	}
	if created {
		t.Error("expected created=false, the row already exists")
	}
	if back.Status != models.SubscriberPending {
		t.Errorf("status: got %q, want %q", back.Status, models.SubscriberPending)
	}
	if back.UnsubscribedAt != nil {
		t.Error("re-subscribe should clear unsubscribed_at")
	}
}

func TestSubscriberStoreUpdateTierAndList(t *testing.T) {
	db := testDB(t)
	s := NewSubscriberStore(db)

	email := subscriberEmail()
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	expires := time.Now().Add(48 * time.Hour)
	sub, _, err := s.UpsertPending(email, "c1", "u1", expires)
	if err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}

	upgraded, err := s.UpdateTier(sub.ID, models.TierPremium)
	if err != nil {
		t.Fatalf("UpdateTier: %v", err)
	}
	if upgraded.Tier != models.TierPremium {
		t.Errorf("tier: got %q, want %q", upgraded.Tier, models.TierPremium)
	}

	pending, err := s.List(models.SubscriberPending, 100, 0)
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	found := false
	for _, p := range pending {
		if p.ID == sub.ID {
			found = true
		}
	}
	if !found {
		t.Error("pending list should include the new subscriber")
	}
}
