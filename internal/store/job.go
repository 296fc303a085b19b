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

// JobStore handles read access to scheduled publish jobs. Job creation and
// state changes happen inside lifecycle and scheduler transactions; this
// store serves the calendar and lookups.
type JobStore struct {
	db *sql.DB
}

// NewJobStore creates a new JobStore with the given database connection.
func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// jobColumns lists the columns selected in scheduled job queries.
const jobColumns = `id, content_id, scheduled_time, status, error, created_at, updated_at`

// scanJob scans a scheduled job row from the result set.
func scanJob(scanner interface{ Scan(...any) error }) (*models.ScheduledJob, error) {
	var j models.ScheduledJob
	err := scanner.Scan(
		&j.ID, &j.ContentID, &j.ScheduledTime, &j.Status, &j.Error,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FindByID retrieves a job by its UUID. Returns nil if not found.
func (s *JobStore) FindByID(id uuid.UUID) (*models.ScheduledJob, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM scheduled_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return j, nil
}

// FindActiveByContent returns the queued or running job for a content item,
// or nil when none is pending. The partial unique index guarantees at most
// one row qualifies.
func (s *JobStore) FindActiveByContent(contentID uuid.UUID) (*models.ScheduledJob, error) {
	row := s.db.QueryRow(`
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE content_id = $1 AND status IN ('queued', 'running')
	`, contentID)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return j, nil
}

// CalendarRange returns every job, whatever its status, whose scheduled
// time falls inside [start, end), ordered by scheduled time. The calendar
// shows history alongside pending work.
func (s *JobStore) CalendarRange(start, end time.Time) ([]models.ScheduledJob, error) {
	rows, err := s.db.Query(`
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE scheduled_time >= $1 AND scheduled_time < $2
		ORDER BY scheduled_time, id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("calendar range: %w", err)
	}
	defer rows.Close()

	var jobs []models.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// ListForContent returns a content item's full job history, newest first.
func (s *JobStore) ListForContent(contentID uuid.UUID) ([]models.ScheduledJob, error) {
	rows, err := s.db.Query(`
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE content_id = $1
		ORDER BY created_at DESC
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for content: %w", err)
	}
	defer rows.Close()

	var jobs []models.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// CountStuckRunning returns how many jobs have sat in running state longer
// than the given age. The worker logs these for operator attention; nothing
// auto-fails them.
func (s *JobStore) CountStuckRunning(olderThan time.Duration) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM scheduled_jobs
		WHERE status = 'running' AND updated_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int(olderThan.Seconds()))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stuck jobs: %w", err)
	}
	return count, nil
}
