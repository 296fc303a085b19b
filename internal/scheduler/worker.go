// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler runs queued publish jobs when their time arrives and
// serves the schedule calendar. The worker polls the database, so any
// number of processes can run it; row locks decide who fires what.
package scheduler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/lifecycle"
	"pressroom/internal/store"
)

// stuckAfter is how long a job may sit in running state before the worker
// starts warning about it. Stuck jobs are never auto-failed; an operator
// decides what happened.
const stuckAfter = 5 * time.Minute

// claimBatch caps how many due jobs one claim takes, so several workers
// share a backlog instead of one grabbing everything.
const claimBatch = 10

// Worker polls for due jobs and publishes their content. Jobs fire at most
// once: a claim flips the row to running before any work happens, and a
// failure stays on the row instead of going back in the queue.
type Worker struct {
	db     *sql.DB
	engine *lifecycle.Engine
	jobs   *store.JobStore
	logger *slog.Logger

	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
}

// NewWorker creates a worker polling at the given interval.
func NewWorker(db *sql.DB, engine *lifecycle.Engine, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{
		db:       db,
		engine:   engine,
		jobs:     store.NewJobStore(db),
		logger:   logger,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop in its own goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop ends the polling loop and waits for an in-flight tick to finish.
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
	w.logger.Info("scheduler worker stopped")
}

func (w *Worker) run() {
	defer close(w.done)
	w.logger.Info("scheduler worker started", "interval", w.interval)

	// Catch anything that came due while the process was down.
	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.quit:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

// tick drains the current backlog of due jobs, then checks for jobs that
// have been running suspiciously long.
func (w *Worker) tick() {
	for {
		n, err := w.fireDue()
		if err != nil {
			w.logger.Error("firing due jobs", "error", err)
			break
		}
		if n == 0 {
			break
		}
		w.logger.Info("processed due publish jobs", "count", n)
	}

	stuck, err := w.jobs.CountStuckRunning(stuckAfter)
	if err != nil {
		w.logger.Error("checking for stuck jobs", "error", err)
		return
	}
	if stuck > 0 {
		w.logger.Warn("publish jobs stuck in running state", "count", stuck, "older_than", stuckAfter)
	}
}

type claimedJob struct {
	id        uuid.UUID
	contentID uuid.UUID
}

// claimDue marks a batch of due queued jobs as running and returns them.
// SKIP LOCKED keeps concurrent workers from claiming the same rows.
func (w *Worker) claimDue() ([]claimedJob, error) {
	rows, err := w.db.Query(`
		UPDATE scheduled_jobs
		SET status = 'running', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM scheduled_jobs
			WHERE status = 'queued' AND scheduled_time <= NOW()
			ORDER BY scheduled_time
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, content_id
	`, claimBatch)
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	defer rows.Close()

	var claimed []claimedJob
	for rows.Next() {
		var c claimedJob
		if err := rows.Scan(&c.id, &c.contentID); err != nil {
			return nil, fmt.Errorf("scan claimed job: %w", err)
		}
		claimed = append(claimed, c)
	}
	return claimed, rows.Err()
}

// fireDue claims one batch and fires each job. Firing errors are recorded
// on the job row and do not stop the rest of the batch.
func (w *Worker) fireDue() (int, error) {
	claimed, err := w.claimDue()
	if err != nil {
		return 0, err
	}

	for _, c := range claimed {
		if err := w.engine.FireScheduled(c.id, c.contentID); err != nil {
			w.logger.Error("publish job failed", "job_id", c.id, "content_id", c.contentID, "error", err)
			if ferr := w.engine.FailJob(c.id, err); ferr != nil {
				w.logger.Error("recording job failure", "job_id", c.id, "error", ferr)
			}
		}
	}
	return len(claimed), nil
}
