// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle owns content status transitions. Every status change,
// together with its scheduled-job side effects, happens inside a single
// transaction here so that content and job rows can never disagree.
package lifecycle

import (
	"errors"

	"pressroom/internal/models"
)

var (
	// ErrNotFound means the content item does not exist.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidTransition means the requested status change is not part
	// of the lifecycle graph.
	ErrInvalidTransition = errors.New("transition not allowed")

	// ErrPublishAtRequired means a schedule request arrived without a time.
	ErrPublishAtRequired = errors.New("publish_at is required")

	// ErrPublishAtPast means the requested publish time is not in the future.
	ErrPublishAtPast = errors.New("publish_at must be in the future")

	// ErrJobRunning means the item's publish job is being fired right now,
	// so the requested change would race the worker.
	ErrJobRunning = errors.New("publish job is currently running")
)

// allowedTransitions is the lifecycle graph. Missing entries are invalid.
var allowedTransitions = map[models.ContentStatus]map[models.ContentStatus]bool{
	models.ContentStatusDraft: {
		models.ContentStatusScheduled: true,
		models.ContentStatusPublished: true,
		models.ContentStatusArchived:  true,
	},
	models.ContentStatusScheduled: {
		models.ContentStatusDraft:     true,
		models.ContentStatusPublished: true,
		models.ContentStatusArchived:  true,
	},
	models.ContentStatusPublished: {
		models.ContentStatusDraft:    true,
		models.ContentStatusArchived: true,
	},
	models.ContentStatusArchived: {
		models.ContentStatusDraft: true,
	},
}

// CanTransition reports whether the lifecycle graph contains an edge from
// one status to another. Staying in place is not a transition.
func CanTransition(from, to models.ContentStatus) bool {
	return allowedTransitions[from][to]
}
