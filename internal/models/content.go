// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType distinguishes the kinds of items sharing the content table.
type ContentType string

const (
	ContentTypePost     ContentType = "post"
	ContentTypePage     ContentType = "page"
	ContentTypeResource ContentType = "resource_pdf"
)

// ValidContentType reports whether t is one of the known content types.
func ValidContentType(t ContentType) bool {
	switch t {
	case ContentTypePost, ContentTypePage, ContentTypeResource:
		return true
	}
	return false
}

// ContentStatus represents the publishing state of a content item. Status
// changes go through the lifecycle engine, never through direct writes.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// ValidContentStatus reports whether s is one of the known statuses.
func ValidContentStatus(s ContentStatus) bool {
	switch s {
	case ContentStatusDraft, ContentStatusScheduled, ContentStatusPublished, ContentStatusArchived:
		return true
	}
	return false
}

// Visibility controls where a published item surfaces. Private items never
// leave the admin API; unlisted items resolve by slug but stay out of lists.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

// ValidVisibility reports whether v is one of the known visibility levels.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// ContentItem represents a post, page, or PDF resource. The body lives in
// ordered content blocks, not on the item itself.
type ContentItem struct {
	ID          uuid.UUID     `json:"id"`
	Type        ContentType   `json:"type"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Summary     *string       `json:"summary,omitempty"`
	Status      ContentStatus `json:"status"`
	Visibility  Visibility    `json:"visibility"`
	Tier        Tier          `json:"tier"`
	PublishAt   *time.Time    `json:"publish_at,omitempty"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	AuthorID    uuid.UUID     `json:"author_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsPublished returns true if the content item is in published status.
func (c *ContentItem) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsArchived returns true if the content item has been archived.
func (c *ContentItem) IsArchived() bool {
	return c.Status == ContentStatusArchived
}
