// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// admin_content.go covers the draft workspace: creating and editing
// content items and their block sequences, and moving items through the
// publication lifecycle. Status changes never happen in this file's
// update path; they all go through the transition endpoint and the
// lifecycle engine behind it.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pressroom/internal/lifecycle"
	"pressroom/internal/middleware"
	"pressroom/internal/models"
	"pressroom/internal/slug"
	"pressroom/internal/store"
)

// blockInput is one block in a create or update request. Position is
// implied by array order; payload stays opaque JSON.
type blockInput struct {
	Type    string          `json:"type" validate:"required,oneof=markdown image chart embed divider"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type contentCreateRequest struct {
	Type       string       `json:"type" validate:"required,oneof=post page resource_pdf"`
	Title      string       `json:"title" validate:"required,max=300"`
	Slug       string       `json:"slug" validate:"omitempty,max=200"`
	Summary    string       `json:"summary" validate:"omitempty,max=1000"`
	Visibility string       `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	Tier       string       `json:"tier" validate:"omitempty,oneof=free premium subscriber_only"`
	Blocks     []blockInput `json:"blocks" validate:"omitempty,dive"`
}

// contentUpdateRequest replaces the item's editable fields and its whole
// block sequence. blocks is required: an explicit empty array clears the
// body, while omitting it is rejected rather than guessed at.
type contentUpdateRequest struct {
	Title      string       `json:"title" validate:"required,max=300"`
	Slug       string       `json:"slug" validate:"omitempty,max=200"`
	Summary    string       `json:"summary" validate:"omitempty,max=1000"`
	Visibility string       `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	Tier       string       `json:"tier" validate:"omitempty,oneof=free premium subscriber_only"`
	Blocks     []blockInput `json:"blocks" validate:"required,dive"`
}

type transitionRequest struct {
	Status    string     `json:"status" validate:"required,oneof=draft scheduled published archived"`
	PublishAt *time.Time `json:"publish_at"`
}

// toBlocks converts request blocks to models. Positions are assigned by
// the store from array order.
func toBlocks(inputs []blockInput) []models.ContentBlock {
	blocks := make([]models.ContentBlock, 0, len(inputs))
	for _, in := range inputs {
		blocks = append(blocks, models.ContentBlock{
			Type:    models.BlockType(in.Type),
			Payload: in.Payload,
		})
	}
	return blocks
}

// resolveSlug picks the final slug for a title: the explicit one when
// given, otherwise one generated from the title. Returns a field error
// for malformed explicit slugs.
func resolveSlug(explicit, title string) (string, *fieldError) {
	if explicit == "" {
		generated := slug.Generate(title)
		if generated == "" {
			return "", &fieldError{Field: "slug", Message: "could not be derived from title, set one explicitly"}
		}
		return generated, nil
	}
	if !slug.Valid(explicit) {
		return "", &fieldError{Field: "slug", Message: "must be lowercase letters, digits, and single hyphens"}
	}
	return explicit, nil
}

// ContentList returns content items filtered by optional status and type
// query parameters, newest first.
func (a *Admin) ContentList(w http.ResponseWriter, r *http.Request) {
	status := models.ContentStatus(r.URL.Query().Get("status"))
	if status != "" && !models.ValidContentStatus(status) {
		respondError(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}
	ctype := models.ContentType(r.URL.Query().Get("type"))
	if ctype != "" && !models.ValidContentType(ctype) {
		respondError(w, http.StatusBadRequest, "bad_request", "unknown type filter")
		return
	}

	limit, offset := pageParams(r, 50)
	items, err := a.contentStore.List(status, ctype, limit, offset)
	if err != nil {
		respondInternal(w, "content list failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ContentCreate creates a new draft with its block sequence. New content
// always starts as a draft regardless of any status in the payload.
func (a *Admin) ContentCreate(w http.ResponseWriter, r *http.Request) {
	var req contentCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	finalSlug, ferr := resolveSlug(req.Slug, req.Title)
	if ferr != nil {
		respondFieldErrors(w, []fieldError{*ferr})
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	item := &models.ContentItem{
		Type:       models.ContentType(req.Type),
		Title:      req.Title,
		Slug:       finalSlug,
		Visibility: models.Visibility(req.Visibility),
		Tier:       models.Tier(req.Tier),
		AuthorID:   sess.UserID,
	}
	if req.Summary != "" {
		item.Summary = &req.Summary
	}
	if item.Visibility == "" {
		item.Visibility = models.VisibilityPublic
	}
	if item.Tier == "" {
		item.Tier = models.TierFree
	}

	created, err := a.contentStore.Create(item, toBlocks(req.Blocks))
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			respondError(w, http.StatusConflict, "conflict", "slug is already used by live content")
			return
		}
		respondInternal(w, "content create failed", err)
		return
	}

	blocks, err := a.contentStore.BlocksFor(created.ID)
	if err != nil {
		respondInternal(w, "content blocks load failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"content": created, "blocks": blocks})
}

// ContentGet returns one content item with its full block sequence.
func (a *Admin) ContentGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	item, err := a.contentStore.FindByID(id)
	if err != nil {
		respondInternal(w, "content lookup failed", err)
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	blocks, err := a.contentStore.BlocksFor(item.ID)
	if err != nil {
		respondInternal(w, "content blocks load failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"content": item, "blocks": blocks})
}

// ContentUpdate replaces the editable fields and blocks of an item.
// Status and publish timestamps are owned by the lifecycle engine and
// survive this update untouched.
func (a *Admin) ContentUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req contentUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	existing, err := a.contentStore.FindByID(id)
	if err != nil {
		respondInternal(w, "content lookup failed", err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	finalSlug, ferr := resolveSlug(req.Slug, req.Title)
	if ferr != nil {
		respondFieldErrors(w, []fieldError{*ferr})
		return
	}

	oldSlug := existing.Slug
	existing.Title = req.Title
	existing.Slug = finalSlug
	existing.Summary = nil
	if req.Summary != "" {
		existing.Summary = &req.Summary
	}
	if req.Visibility != "" {
		existing.Visibility = models.Visibility(req.Visibility)
	}
	if req.Tier != "" {
		existing.Tier = models.Tier(req.Tier)
	}

	updated, err := a.contentStore.UpdateMeta(existing, toBlocks(req.Blocks))
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			respondError(w, http.StatusConflict, "conflict", "slug is already used by live content")
			return
		}
		respondInternal(w, "content update failed", err)
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	blocks, err := a.contentStore.BlocksFor(updated.ID)
	if err != nil {
		respondInternal(w, "content blocks load failed", err)
		return
	}

	// A renamed slug leaves stale entries under the old key too.
	a.invalidateContent(r.Context(), updated.ID, oldSlug, "update")
	if updated.Slug != oldSlug {
		a.invalidateContent(r.Context(), updated.ID, updated.Slug, "update")
	}

	respondJSON(w, http.StatusOK, map[string]any{"content": updated, "blocks": blocks})
}

// ContentDelete permanently removes an item, its blocks, and any
// scheduled jobs. There is no soft delete; archiving is the recoverable
// path.
func (a *Admin) ContentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	deleted, err := a.contentStore.Delete(id)
	if err != nil {
		respondInternal(w, "content delete failed", err)
		return
	}
	if deleted == nil {
		respondError(w, http.StatusNotFound, "not_found", "content not found")
		return
	}

	a.invalidateContent(r.Context(), deleted.ID, deleted.Slug, "delete")

	w.WriteHeader(http.StatusNoContent)
}

// ContentTransition moves an item to a new lifecycle status. Scheduling
// requires a future publish_at and answers with the queued job; every
// other transition answers with the updated item alone.
func (a *Admin) ContentTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	target := models.ContentStatus(req.Status)

	if target == models.ContentStatusScheduled {
		if req.PublishAt == nil {
			respondFieldErrors(w, []fieldError{{Field: "publish_at", Message: "is required for scheduling"}})
			return
		}
		item, job, err := a.engine.Schedule(id, *req.PublishAt)
		if err != nil {
			transitionError(w, err)
			return
		}
		a.invalidateContent(r.Context(), item.ID, item.Slug, "transition")
		respondJSON(w, http.StatusOK, map[string]any{"content": item, "job": job})
		return
	}

	item, err := a.engine.Transition(id, target, req.PublishAt)
	if err != nil {
		transitionError(w, err)
		return
	}

	a.invalidateContent(r.Context(), item.ID, item.Slug, "transition")
	respondJSON(w, http.StatusOK, map[string]any{"content": item})
}

// transitionError maps lifecycle engine failures onto API status codes.
func transitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "content not found")
	case errors.Is(err, lifecycle.ErrPublishAtRequired):
		respondFieldErrors(w, []fieldError{{Field: "publish_at", Message: "is required for scheduling"}})
	case errors.Is(err, lifecycle.ErrPublishAtPast):
		respondFieldErrors(w, []fieldError{{Field: "publish_at", Message: "must be in the future"}})
	case errors.Is(err, lifecycle.ErrJobRunning):
		respondError(w, http.StatusConflict, "conflict", "a publish job for this content is running right now")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, store.ErrSlugTaken):
		respondError(w, http.StatusConflict, "conflict", "slug is already used by live content")
	default:
		respondInternal(w, "content transition failed", err)
	}
}

// pageParams reads limit and offset query parameters with a default page
// size. Values are clamped to sane bounds.
func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
