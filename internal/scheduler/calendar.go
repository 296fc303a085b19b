// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scheduler

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/lifecycle"
	"pressroom/internal/models"
	"pressroom/internal/store"
)

var (
	// ErrJobNotFound means no job exists under the given id.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued means the job already ran or is running, so it can
	// no longer be cancelled.
	ErrJobNotQueued = errors.New("job is not queued")
)

// CalendarEntry is one job on the schedule calendar, joined with the
// content fields the calendar displays.
type CalendarEntry struct {
	ID            uuid.UUID          `json:"id"`
	ContentID     uuid.UUID          `json:"content_id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	ContentType   models.ContentType `json:"type"`
	ScheduledTime time.Time          `json:"scheduled_time"`
	Status        models.JobStatus   `json:"status"`
	Error         *string            `json:"error,omitempty"`
	Color         string             `json:"color"`
}

// Service answers calendar queries and cancels queued jobs.
type Service struct {
	db     *sql.DB
	engine *lifecycle.Engine
	jobs   *store.JobStore
}

// NewService creates a scheduling service.
func NewService(db *sql.DB, engine *lifecycle.Engine) *Service {
	return &Service{db: db, engine: engine, jobs: store.NewJobStore(db)}
}

// Calendar returns every job scheduled inside [start, end), whatever its
// status, with the content fields and display color the calendar needs.
func (s *Service) Calendar(start, end time.Time) ([]CalendarEntry, error) {
	rows, err := s.db.Query(`
		SELECT j.id, j.content_id, c.title, c.slug, c.type,
		       j.scheduled_time, j.status, j.error
		FROM scheduled_jobs j
		JOIN content_items c ON c.id = j.content_id
		WHERE j.scheduled_time >= $1 AND j.scheduled_time < $2
		ORDER BY j.scheduled_time, j.id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("calendar query: %w", err)
	}
	defer rows.Close()

	var entries []CalendarEntry
	for rows.Next() {
		var e CalendarEntry
		err := rows.Scan(
			&e.ID, &e.ContentID, &e.Title, &e.Slug, &e.ContentType,
			&e.ScheduledTime, &e.Status, &e.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scan calendar entry: %w", err)
		}
		e.Color = e.Status.CalendarColor()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CancelJob cancels a queued job by its id, returning the content to draft.
// Running and finished jobs cannot be cancelled.
func (s *Service) CancelJob(jobID uuid.UUID) (*models.ContentItem, error) {
	job, err := s.jobs.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != models.JobStatusQueued {
		return nil, ErrJobNotQueued
	}
	return s.engine.Unschedule(job.ContentID)
}
