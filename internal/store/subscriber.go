// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/models"
)

// SubscriberStore handles newsletter subscriber persistence. Status changes
// follow double opt-in: pending rows confirm only through their token, and
// a fresh subscribe after unsubscribing restarts the cycle.
type SubscriberStore struct {
	db *sql.DB
}

// NewSubscriberStore creates a new SubscriberStore with the given database connection.
func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

// subscriberColumns lists the columns selected in subscriber queries.
const subscriberColumns = `id, email, status, tier, confirm_digest, confirm_expires_at,
	unsubscribe_digest, access_digest, confirmed_at, unsubscribed_at, created_at, updated_at`

// scanSubscriber scans a subscriber row from the result set.
func scanSubscriber(scanner interface{ Scan(...any) error }) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := scanner.Scan(
		&sub.ID, &sub.Email, &sub.Status, &sub.Tier, &sub.ConfirmDigest,
		&sub.ConfirmExpiresAt, &sub.UnsubscribeDigest, &sub.AccessDigest,
		&sub.ConfirmedAt, &sub.UnsubscribedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertPending creates a pending subscriber or, for an existing address
// that is not confirmed, resets it to pending with fresh token digests.
// A confirmed subscriber is returned unchanged with created=false so the
// caller can skip the confirmation mail. The guard lives in the upsert's
// WHERE clause, so a plain subscribe can never demote a confirmed row no
// matter how it interleaves with a concurrent Confirm.
func (s *SubscriberStore) UpsertPending(email, confirmDigest, unsubscribeDigest string, confirmExpires time.Time) (*models.Subscriber, bool, error) {
	row := s.db.QueryRow(`
		INSERT INTO subscribers (email, status, confirm_digest, confirm_expires_at, unsubscribe_digest)
		VALUES ($1, 'pending', $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			status = 'pending',
			confirm_digest = EXCLUDED.confirm_digest,
			confirm_expires_at = EXCLUDED.confirm_expires_at,
			unsubscribe_digest = EXCLUDED.unsubscribe_digest,
			access_digest = NULL,
			unsubscribed_at = NULL,
			updated_at = NOW()
		WHERE subscribers.status <> 'confirmed'
		RETURNING `+subscriberColumns,
		email, confirmDigest, confirmExpires, unsubscribeDigest,
	)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		// The guard declined the update: the address is already confirmed.
		existing, err := s.FindByEmail(email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert pending subscriber: %w", err)
	}
	return sub, true, nil
}

// FindByEmail retrieves a subscriber by address. Returns nil if not found.
func (s *SubscriberStore) FindByEmail(email string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by email: %w", err)
	}
	return sub, nil
}

// FindByConfirmDigest retrieves a subscriber by confirmation token digest.
// Returns nil if no pending row matches.
func (s *SubscriberStore) FindByConfirmDigest(digest string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE confirm_digest = $1
	`, digest)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by confirm digest: %w", err)
	}
	return sub, nil
}

// FindByUnsubscribeDigest retrieves a subscriber by unsubscribe token digest.
func (s *SubscriberStore) FindByUnsubscribeDigest(digest string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE unsubscribe_digest = $1
	`, digest)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by unsubscribe digest: %w", err)
	}
	return sub, nil
}

// FindByAccessDigest retrieves a confirmed subscriber by access token
// digest. Returns nil when the token matches no confirmed subscriber.
func (s *SubscriberStore) FindByAccessDigest(digest string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE access_digest = $1 AND status = 'confirmed'
	`, digest)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by access digest: %w", err)
	}
	return sub, nil
}

// Confirm moves a pending subscriber to confirmed, clears the confirmation
// token, and installs the access token digest. The unsubscribe digest
// rotates at the same time, so the welcome mail carries a fresh link
// rather than the one from the opt-in mail. The guard on status keeps a
// replayed token from resurrecting an unsubscribed row.
func (s *SubscriberStore) Confirm(id uuid.UUID, accessDigest, unsubscribeDigest string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		UPDATE subscribers SET
			status = 'confirmed',
			confirm_digest = NULL,
			confirm_expires_at = NULL,
			access_digest = $1,
			unsubscribe_digest = $2,
			confirmed_at = NOW(),
			updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
		RETURNING `+subscriberColumns,
		accessDigest, unsubscribeDigest, id,
	)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("confirm subscriber: %w", err)
	}
	return sub, nil
}

// Unsubscribe moves a pending or confirmed subscriber to unsubscribed and
// revokes the access token. Unsubscribing twice is a no-op that still
// reports success to the caller.
func (s *SubscriberStore) Unsubscribe(id uuid.UUID) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		UPDATE subscribers SET
			status = 'unsubscribed',
			access_digest = NULL,
			unsubscribed_at = COALESCE(unsubscribed_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+subscriberColumns,
		id,
	)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	return sub, nil
}

// UpdateTier changes the access level granted to a subscriber.
func (s *SubscriberStore) UpdateTier(id uuid.UUID, tier models.Tier) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		UPDATE subscribers SET tier = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+subscriberColumns,
		tier, id,
	)
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update subscriber tier: %w", err)
	}
	return sub, nil
}

// List returns subscribers filtered by status, newest first. An empty
// status matches everything.
func (s *SubscriberStore) List(status models.SubscriberStatus, limit, offset int) ([]models.Subscriber, error) {
	rows, err := s.db.Query(`
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// Delete removes a subscriber by ID.
func (s *SubscriberStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}
