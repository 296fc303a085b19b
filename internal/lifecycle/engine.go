// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lifecycle

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pressroom/internal/models"
	"pressroom/internal/store"
)

// Engine applies lifecycle transitions. Each operation locks the content
// row, re-checks the current status and commits the status change together
// with any job bookkeeping, so concurrent requests serialize on the row and
// the loser sees a conflict instead of a half-applied change.
type Engine struct {
	db *sql.DB
}

// NewEngine creates a lifecycle engine on the given database handle.
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// engineColumns mirrors the content column order used by the store layer.
const engineColumns = `id, type, title, slug, summary, status, visibility,
	tier, publish_at, published_at, author_id, created_at, updated_at`

func scanItem(scanner interface{ Scan(...any) error }) (*models.ContentItem, error) {
	var c models.ContentItem
	err := scanner.Scan(
		&c.ID, &c.Type, &c.Title, &c.Slug, &c.Summary, &c.Status,
		&c.Visibility, &c.Tier, &c.PublishAt, &c.PublishedAt,
		&c.AuthorID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// lockContent selects the content row FOR UPDATE inside the transaction.
func lockContent(tx *sql.Tx, id uuid.UUID) (*models.ContentItem, error) {
	row := tx.QueryRow(`SELECT `+engineColumns+` FROM content_items WHERE id = $1 FOR UPDATE`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock content: %w", err)
	}
	return item, nil
}

func invalidTransition(from, to models.ContentStatus) error {
	return fmt.Errorf("%s content cannot move to %s: %w", from, to, ErrInvalidTransition)
}

// activeJob returns the queued or running job for the content item, locked
// for the rest of the transaction. Returns nil when there is none.
func activeJob(tx *sql.Tx, contentID uuid.UUID) (*models.ScheduledJob, error) {
	var j models.ScheduledJob
	err := tx.QueryRow(`
		SELECT id, content_id, scheduled_time, status, error, created_at, updated_at
		FROM scheduled_jobs
		WHERE content_id = $1 AND status IN ('queued', 'running')
		FOR UPDATE
	`, contentID).Scan(
		&j.ID, &j.ContentID, &j.ScheduledTime, &j.Status, &j.Error,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return &j, nil
}

// clearActiveJob removes the item's queued job so a new one can take its
// place. A running job cannot be cleared; the caller gets ErrJobRunning and
// should let the worker finish.
func clearActiveJob(tx *sql.Tx, contentID uuid.UUID) error {
	job, err := activeJob(tx, contentID)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	if job.Status == models.JobStatusRunning {
		return ErrJobRunning
	}
	if _, err := tx.Exec(`DELETE FROM scheduled_jobs WHERE id = $1`, job.ID); err != nil {
		return fmt.Errorf("clear queued job: %w", err)
	}
	return nil
}

func insertQueuedJob(tx *sql.Tx, contentID uuid.UUID, at time.Time) (*models.ScheduledJob, error) {
	var j models.ScheduledJob
	err := tx.QueryRow(`
		INSERT INTO scheduled_jobs (content_id, scheduled_time, status)
		VALUES ($1, $2, 'queued')
		RETURNING id, content_id, scheduled_time, status, error, created_at, updated_at
	`, contentID, at).Scan(
		&j.ID, &j.ContentID, &j.ScheduledTime, &j.Status, &j.Error,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert queued job: %w", err)
	}
	return &j, nil
}

func updateStatus(tx *sql.Tx, id uuid.UUID, set string, args ...any) (*models.ContentItem, error) {
	args = append([]any{id}, args...)
	row := tx.QueryRow(`
		UPDATE content_items
		SET `+set+`, updated_at = NOW()
		WHERE id = $1
		RETURNING `+engineColumns, args...)
	return scanItem(row)
}

// Transition dispatches a requested status change. The target status alone
// determines the operation; publishAt is only consulted when scheduling.
func (e *Engine) Transition(contentID uuid.UUID, target models.ContentStatus, publishAt *time.Time) (*models.ContentItem, error) {
	if !models.ValidContentStatus(target) {
		return nil, fmt.Errorf("unknown status %q: %w", target, ErrInvalidTransition)
	}

	var current models.ContentStatus
	err := e.db.QueryRow(`SELECT status FROM content_items WHERE id = $1`, contentID).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read content status: %w", err)
	}
	if !CanTransition(current, target) {
		return nil, invalidTransition(current, target)
	}

	// The target op re-checks the status under lock, so a concurrent
	// transition that wins the race turns this into a conflict.
	switch target {
	case models.ContentStatusScheduled:
		if publishAt == nil {
			return nil, ErrPublishAtRequired
		}
		item, _, err := e.Schedule(contentID, *publishAt)
		return item, err
	case models.ContentStatusPublished:
		return e.PublishNow(contentID)
	case models.ContentStatusArchived:
		return e.Archive(contentID)
	default: // draft
		switch current {
		case models.ContentStatusScheduled:
			return e.Unschedule(contentID)
		case models.ContentStatusPublished:
			return e.Unpublish(contentID)
		default: // archived
			return e.Restore(contentID)
		}
	}
}

// Schedule queues the item for publication at the given future time. Calling
// it on already scheduled content replaces the pending job, which is how a
// publish time gets changed.
func (e *Engine) Schedule(contentID uuid.UUID, publishAt time.Time) (*models.ContentItem, *models.ScheduledJob, error) {
	if !publishAt.After(time.Now()) {
		return nil, nil, ErrPublishAtPast
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, nil, err
	}
	if item.Status != models.ContentStatusDraft && item.Status != models.ContentStatusScheduled {
		return nil, nil, invalidTransition(item.Status, models.ContentStatusScheduled)
	}
	if err := clearActiveJob(tx, contentID); err != nil {
		return nil, nil, err
	}

	job, err := insertQueuedJob(tx, contentID, publishAt)
	if err != nil {
		return nil, nil, err
	}
	item, err = updateStatus(tx, contentID, `status = 'scheduled', publish_at = $2`, publishAt)
	if err != nil {
		return nil, nil, fmt.Errorf("mark scheduled: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, job, nil
}

// Unschedule cancels a pending publication and returns the item to draft.
func (e *Engine) Unschedule(contentID uuid.UUID) (*models.ContentItem, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ContentStatusScheduled {
		return nil, invalidTransition(item.Status, models.ContentStatusDraft)
	}
	if err := clearActiveJob(tx, contentID); err != nil {
		return nil, err
	}

	item, err = updateStatus(tx, contentID, `status = 'draft', publish_at = NULL`)
	if err != nil {
		return nil, fmt.Errorf("mark draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// PublishNow publishes a draft or scheduled item immediately. A pending job
// is cancelled rather than left to fire on nothing.
func (e *Engine) PublishNow(contentID uuid.UUID) (*models.ContentItem, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ContentStatusDraft && item.Status != models.ContentStatusScheduled {
		return nil, invalidTransition(item.Status, models.ContentStatusPublished)
	}
	if err := clearActiveJob(tx, contentID); err != nil {
		return nil, err
	}

	item, err = updateStatus(tx, contentID,
		`status = 'published', published_at = COALESCE(published_at, NOW()), publish_at = NULL`)
	if err != nil {
		return nil, fmt.Errorf("mark published: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// Unpublish takes a published item off the site and back to draft. The
// published_at timestamp stays as a record of the first publication, but
// publish_at is cleared: once the item is no longer published, a schedule
// timestamp would be a lie.
func (e *Engine) Unpublish(contentID uuid.UUID) (*models.ContentItem, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ContentStatusPublished {
		return nil, invalidTransition(item.Status, models.ContentStatusDraft)
	}

	item, err = updateStatus(tx, contentID, `status = 'draft', publish_at = NULL`)
	if err != nil {
		return nil, fmt.Errorf("mark draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// Archive retires an item from any other status. Archiving scheduled content
// cancels its pending job first.
func (e *Engine) Archive(contentID uuid.UUID) (*models.ContentItem, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Status == models.ContentStatusArchived {
		return nil, invalidTransition(item.Status, models.ContentStatusArchived)
	}
	if err := clearActiveJob(tx, contentID); err != nil {
		return nil, err
	}

	item, err = updateStatus(tx, contentID, `status = 'archived', publish_at = NULL`)
	if err != nil {
		return nil, fmt.Errorf("mark archived: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// Restore brings an archived item back as a draft. Archived slugs are
// outside the uniqueness rule, so restoring can collide with a live item
// that claimed the slug in the meantime.
func (e *Engine) Restore(contentID uuid.UUID) (*models.ContentItem, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ContentStatusArchived {
		return nil, invalidTransition(item.Status, models.ContentStatusDraft)
	}

	item, err = updateStatus(tx, contentID, `status = 'draft'`)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "content_items_slug_live" {
			return nil, store.ErrSlugTaken
		}
		return nil, fmt.Errorf("mark draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return item, nil
}

// FireScheduled publishes the content behind a claimed job and records the
// outcome on the job row, all in one transaction. Finding the item already
// published counts as success so a replayed job stays harmless; any other
// status fails the job for an operator to look at. The job row may have
// vanished if the content was deleted after the claim, in which case there
// is nothing left to do.
func (e *Engine) FireScheduled(jobID, contentID uuid.UUID) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := lockContent(tx, contentID)
	if err != nil && err != ErrNotFound {
		return err
	}

	switch {
	case item == nil:
		// Content deleted after the claim; the cascade took the job too.
		return nil
	case item.Status == models.ContentStatusScheduled:
		// publish_at stays: it records that this publication came from a
		// schedule. Only an explicit publish-now or leaving published
		// clears it.
		if _, err := updateStatus(tx, contentID,
			`status = 'published', published_at = COALESCE(published_at, NOW())`); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		if err := finishJob(tx, jobID, models.JobStatusSucceeded, nil); err != nil {
			return err
		}
	case item.Status == models.ContentStatusPublished:
		if err := finishJob(tx, jobID, models.JobStatusSucceeded, nil); err != nil {
			return err
		}
	default:
		msg := fmt.Sprintf("content is %s, not scheduled", item.Status)
		if err := finishJob(tx, jobID, models.JobStatusFailed, &msg); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// FailJob records a firing error on the job row. There is no retry; the row
// keeps the message until an operator reschedules the item.
func (e *Engine) FailJob(jobID uuid.UUID, cause error) error {
	msg := cause.Error()
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := finishJob(tx, jobID, models.JobStatusFailed, &msg); err != nil {
		return err
	}
	return tx.Commit()
}

func finishJob(tx *sql.Tx, jobID uuid.UUID, status models.JobStatus, msg *string) error {
	_, err := tx.Exec(`
		UPDATE scheduled_jobs
		SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1
	`, jobID, status, msg)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}
