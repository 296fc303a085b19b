// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriberStatus tracks double opt-in progress. A subscriber reaches
// confirmed only by presenting the confirmation token; nothing confirms
// automatically.
type SubscriberStatus string

const (
	SubscriberPending      SubscriberStatus = "pending"
	SubscriberConfirmed    SubscriberStatus = "confirmed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber is a newsletter recipient. Token digests are SHA-256 hex of the
// tokens mailed out; the plaintext is never stored. Tier is the access level
// granted to the subscriber for gated content, managed from the admin API.
type Subscriber struct {
	ID                uuid.UUID        `json:"id"`
	Email             string           `json:"email"`
	Status            SubscriberStatus `json:"status"`
	Tier              Tier             `json:"tier"`
	ConfirmDigest     *string          `json:"-"`
	ConfirmExpiresAt  *time.Time       `json:"-"`
	UnsubscribeDigest string           `json:"-"`
	AccessDigest      *string          `json:"-"`
	ConfirmedAt       *time.Time       `json:"confirmed_at,omitempty"`
	UnsubscribedAt    *time.Time       `json:"unsubscribed_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// IsConfirmed returns true if the subscriber completed double opt-in and has
// not unsubscribed.
func (s *Subscriber) IsConfirmed() bool {
	return s.Status == SubscriberConfirmed
}
