// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CacheLogEntry is one recorded cache invalidation: which entity changed,
// what happened to it, and when the cached copies were told to go.
type CacheLogEntry struct {
	ID            int64
	EntityType    string
	EntityID      uuid.UUID
	Action        string
	InvalidatedAt time.Time
}

// CacheLogStore keeps an audit trail of cache invalidations in Postgres.
// When a reader reports stale content, the trail shows whether the
// publish or update that should have cleared the entry ever fired.
type CacheLogStore struct {
	db *sql.DB
}

func NewCacheLogStore(db *sql.DB) *CacheLogStore {
	return &CacheLogStore{db: db}
}

// Log records one invalidation. Best-effort: a failed insert is logged
// and swallowed, since losing an audit row must never fail the request
// that performed the actual invalidation.
func (s *CacheLogStore) Log(entityType string, entityID uuid.UUID, action string) {
	const q = `
		INSERT INTO cache_invalidation_log (entity_type, entity_id, action)
		VALUES ($1, $2, $3)`

	if _, err := s.db.Exec(q, entityType, entityID, action); err != nil {
		slog.Warn("cache invalidation not logged",
			"entity_type", entityType, "entity_id", entityID,
			"action", action, "error", err)
		return
	}
	slog.Debug("cache invalidation logged",
		"entity_type", entityType, "entity_id", entityID, "action", action)
}

// RecentEntries returns up to limit invalidations, newest first.
func (s *CacheLogStore) RecentEntries(limit int) ([]CacheLogEntry, error) {
	const q = `
		SELECT id, entity_type, entity_id, action, invalidated_at
		FROM cache_invalidation_log
		ORDER BY invalidated_at DESC
		LIMIT $1`

	rows, err := s.db.Query(q, limit)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	var entries []CacheLogEntry
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
