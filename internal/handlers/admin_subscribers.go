package handlers

import (
	"net/http"

	"pressroom/internal/models"
)

type subscriberTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=free premium subscriber_only"`
}

// SubscriberList returns subscribers, newest first, optionally filtered
// by status.
func (a *Admin) SubscriberList(w http.ResponseWriter, r *http.Request) {
	status := models.SubscriberStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.SubscriberPending, models.SubscriberConfirmed, models.SubscriberUnsubscribed:
	default:
		respondError(w, http.StatusBadRequest, "bad_request", "unknown status filter")
		return
	}

	limit, offset := pageParams(r, 50)
	subs, err := a.subscriberStore.List(status, limit, offset)
	if err != nil {
		respondInternal(w, "subscriber list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscribers": subs})
}

// SubscriberSetTier changes a subscriber's access level. Takes effect on
// the next request that presents their access token.
func (a *Admin) SubscriberSetTier(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req subscriberTierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := a.subscriberStore.UpdateTier(id, models.Tier(req.Tier))
	if err != nil {
		respondInternal(w, "subscriber tier update failed", err)
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "not_found", "subscriber not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriber": sub})
}

// SubscriberDelete removes a subscriber entirely, invalidating their
// access token. Distinct from unsubscribing, which keeps the record.
func (a *Admin) SubscriberDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := a.subscriberStore.Delete(id); err != nil {
		respondInternal(w, "subscriber delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
