// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a scheduled publish job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// ScheduledJob records one intent to publish a content item at a fixed time.
// Jobs reference content, they do not own it: deleting content removes its
// jobs, cancelling a job leaves the content untouched.
type ScheduledJob struct {
	ID            uuid.UUID `json:"id"`
	ContentID     uuid.UUID `json:"content_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        JobStatus `json:"status"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive returns true while the job can still fire or is firing.
func (j *ScheduledJob) IsActive() bool {
	return j.Status == JobStatusQueued || j.Status == JobStatusRunning
}

// CalendarColor returns the display color the schedule calendar uses for
// this status.
func (s JobStatus) CalendarColor() string {
	switch s {
	case JobStatusQueued:
		return "blue"
	case JobStatusRunning:
		return "amber"
	case JobStatusSucceeded:
		return "green"
	case JobStatusFailed:
		return "red"
	}
	return "gray"
}
