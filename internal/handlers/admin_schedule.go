package handlers

import (
	"errors"
	"net/http"
	"time"

	"pressroom/internal/scheduler"
)

type publishNowRequest struct {
	ContentID string `json:"content_id" validate:"required,uuid"`
}

// ScheduleCalendar returns all publish jobs, regardless of outcome,
// whose scheduled time falls inside [start, end). Entries carry a
// display color derived from job status.
func (a *Admin) ScheduleCalendar(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		respondFieldErrors(w, []fieldError{{Field: "start", Message: "must be an RFC 3339 timestamp"}})
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		respondFieldErrors(w, []fieldError{{Field: "end", Message: "must be an RFC 3339 timestamp"}})
		return
	}
	if !end.After(start) {
		respondFieldErrors(w, []fieldError{{Field: "end", Message: "must be after start"}})
		return
	}

	entries, err := a.schedule.Calendar(start, end)
	if err != nil {
		respondInternal(w, "calendar load failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// PublishNow publishes a draft or scheduled item immediately. Any queued
// job for the item is cancelled in the same transaction, so the job can
// never fire on top of the manual publish.
func (a *Admin) PublishNow(w http.ResponseWriter, r *http.Request) {
	var req publishNowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := parseUUIDField(w, "content_id", req.ContentID)
	if err != nil {
		return
	}

	item, err := a.engine.PublishNow(id)
	if err != nil {
		transitionError(w, err)
		return
	}

	a.invalidateContent(r.Context(), item.ID, item.Slug, "publish")
	respondJSON(w, http.StatusOK, map[string]any{"content": item})
}

// JobCancel unschedules via the calendar: it cancels a queued job and
// returns its content to draft. Jobs that already ran are history and
// cannot be cancelled.
func (a *Admin) JobCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	item, err := a.schedule.CancelJob(id)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			respondError(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, scheduler.ErrJobNotQueued):
			respondError(w, http.StatusConflict, "conflict", "only queued jobs can be cancelled")
		default:
			transitionError(w, err)
		}
		return
	}

	a.invalidateContent(r.Context(), item.ID, item.Slug, "unschedule")
	respondJSON(w, http.StatusOK, map[string]any{"content": item})
}
