// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"pressroom/internal/models"
	"pressroom/internal/redirects"
	"pressroom/internal/store"
)

type redirectRequest struct {
	SourcePath string `json:"source_path" validate:"required,max=500"`
	TargetPath string `json:"target_path" validate:"required,max=500"`
	StatusCode int    `json:"status_code" validate:"required,oneof=301 302"`
	Enabled    *bool  `json:"enabled"`
}

// redirectValidateRequest is the dry-run payload. The optional id marks
// a rule being edited so its current source doesn't count against itself.
type redirectValidateRequest struct {
	redirectRequest
	ID string `json:"id" validate:"omitempty,uuid"`
}

func (req *redirectRequest) toModel() *models.Redirect {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &models.Redirect{
		SourcePath: req.SourcePath,
		TargetPath: req.TargetPath,
		StatusCode: req.StatusCode,
		Enabled:    enabled,
	}
}

// redirectMutationError maps redirect service failures onto API responses.
func redirectMutationError(w http.ResponseWriter, err error) {
	var verr *redirects.ValidationError
	if errors.As(err, &verr) {
		fields := make([]fieldError, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			fields = append(fields, fieldError{Field: v.Field, Message: v.Message})
		}
		respondFieldErrors(w, fields)
		return
	}
	if errors.Is(err, store.ErrRedirectSourceTaken) {
		// A concurrent writer won the source path between validation
		// and insert.
		respondError(w, http.StatusConflict, "conflict", "an enabled redirect for this source path already exists")
		return
	}
	respondInternal(w, "redirect mutation failed", err)
}

// RedirectList returns all redirect rules, enabled and disabled.
func (a *Admin) RedirectList(w http.ResponseWriter, r *http.Request) {
	rules, err := a.redirects.List()
	if err != nil {
		respondInternal(w, "redirect list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"redirects": rules})
}

// RedirectCreate adds a redirect rule. The rule set stays free of
// duplicate enabled sources, cycles, and chains over three hops; a rule
// that would break that is rejected with field errors before anything
// is written.
func (a *Admin) RedirectCreate(w http.ResponseWriter, r *http.Request) {
	var req redirectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := a.redirects.Create(req.toModel())
	if err != nil {
		redirectMutationError(w, err)
		return
	}

	if a.cacheLog != nil {
		a.cacheLog.Log("redirect", created.ID, "create")
	}
	respondJSON(w, http.StatusCreated, map[string]any{"redirect": created})
}

// RedirectUpdate rewrites a rule under the same validation as create.
func (a *Admin) RedirectUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req redirectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rule := req.toModel()
	rule.ID = id

	updated, err := a.redirects.Update(rule)
	if err != nil {
		redirectMutationError(w, err)
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "not_found", "redirect not found")
		return
	}

	if a.cacheLog != nil {
		a.cacheLog.Log("redirect", updated.ID, "update")
	}
	respondJSON(w, http.StatusOK, map[string]any{"redirect": updated})
}

// RedirectDelete removes a rule. Deletion needs no validation pass
// since dropping an edge can only shorten chains.
func (a *Admin) RedirectDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	deleted, err := a.redirects.Delete(id)
	if err != nil {
		respondInternal(w, "redirect delete failed", err)
		return
	}
	if deleted == nil {
		respondError(w, http.StatusNotFound, "not_found", "redirect not found")
		return
	}

	if a.cacheLog != nil {
		a.cacheLog.Log("redirect", deleted.ID, "delete")
	}
	w.WriteHeader(http.StatusNoContent)
}

// RedirectValidate dry-runs a rule against the live rule set without
// writing anything. The response always succeeds; violations ride in
// the body so an editor can show them inline while typing.
func (a *Admin) RedirectValidate(w http.ResponseWriter, r *http.Request) {
	var req redirectValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	exclude := uuid.Nil
	if req.ID != "" {
		var err error
		if exclude, err = parseUUIDField(w, "id", req.ID); err != nil {
			return
		}
	}

	violations := a.redirects.Validate(req.toModel(), exclude)

	respondJSON(w, http.StatusOK, map[string]any{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}
