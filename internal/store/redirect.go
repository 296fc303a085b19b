// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"pressroom/internal/models"
)

// ErrRedirectSourceTaken is returned when an enabled redirect already
// claims the source path.
var ErrRedirectSourceTaken = errors.New("an enabled redirect already exists for this source path")

// RedirectStore handles redirect rule persistence.
type RedirectStore struct {
	db *sql.DB
}

// NewRedirectStore creates a new RedirectStore with the given database connection.
func NewRedirectStore(db *sql.DB) *RedirectStore {
	return &RedirectStore{db: db}
}

// redirectColumns lists the columns selected in redirect queries.
const redirectColumns = `id, source_path, target_path, status_code, enabled, notes, created_at, updated_at`

// scanRedirect scans a redirect row from the result set.
func scanRedirect(scanner interface{ Scan(...any) error }) (*models.Redirect, error) {
	var r models.Redirect
	err := scanner.Scan(
		&r.ID, &r.SourcePath, &r.TargetPath, &r.StatusCode, &r.Enabled,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// isSourceConflict detects a unique violation on the enabled-source index.
func isSourceConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "redirects_source_enabled"
	}
	return false
}

// Create inserts a new redirect rule and returns it with the generated ID.
func (s *RedirectStore) Create(r *models.Redirect) (*models.Redirect, error) {
	row := s.db.QueryRow(`
		INSERT INTO redirects (source_path, target_path, status_code, enabled, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+redirectColumns,
		r.SourcePath, r.TargetPath, r.StatusCode, r.Enabled, r.Notes,
	)
	created, err := scanRedirect(row)
	if err != nil {
		if isSourceConflict(err) {
			return nil, ErrRedirectSourceTaken
		}
		return nil, fmt.Errorf("create redirect: %w", err)
	}
	return created, nil
}

// Update modifies an existing redirect rule. Returns nil if the rule does
// not exist.
func (s *RedirectStore) Update(r *models.Redirect) (*models.Redirect, error) {
	row := s.db.QueryRow(`
		UPDATE redirects SET
			source_path = $1, target_path = $2, status_code = $3,
			enabled = $4, notes = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+redirectColumns,
		r.SourcePath, r.TargetPath, r.StatusCode, r.Enabled, r.Notes, r.ID,
	)
	updated, err := scanRedirect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isSourceConflict(err) {
			return nil, ErrRedirectSourceTaken
		}
		return nil, fmt.Errorf("update redirect: %w", err)
	}
	return updated, nil
}

// FindByID retrieves a redirect by its UUID. Returns nil if not found.
func (s *RedirectStore) FindByID(id uuid.UUID) (*models.Redirect, error) {
	row := s.db.QueryRow(`SELECT `+redirectColumns+` FROM redirects WHERE id = $1`, id)
	r, err := scanRedirect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find redirect by id: %w", err)
	}
	return r, nil
}

// FindEnabledBySource retrieves the enabled redirect for a source path.
// Returns nil if no enabled rule matches.
func (s *RedirectStore) FindEnabledBySource(sourcePath string) (*models.Redirect, error) {
	row := s.db.QueryRow(`
		SELECT `+redirectColumns+`
		FROM redirects
		WHERE source_path = $1 AND enabled
	`, sourcePath)
	r, err := scanRedirect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find redirect by source: %w", err)
	}
	return r, nil
}

// List returns all redirect rules ordered by source path.
func (s *RedirectStore) List() ([]models.Redirect, error) {
	rows, err := s.db.Query(`SELECT ` + redirectColumns + ` FROM redirects ORDER BY source_path, id`)
	if err != nil {
		return nil, fmt.Errorf("list redirects: %w", err)
	}
	defer rows.Close()

	var items []models.Redirect
	for rows.Next() {
		r, err := scanRedirect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redirect: %w", err)
		}
		items = append(items, *r)
	}
	return items, rows.Err()
}

// EnabledMap returns every enabled rule keyed by source path. The resolver
// loads this into its in-memory cache.
func (s *RedirectStore) EnabledMap() (map[string]models.Redirect, error) {
	rows, err := s.db.Query(`SELECT ` + redirectColumns + ` FROM redirects WHERE enabled`)
	if err != nil {
		return nil, fmt.Errorf("load enabled redirects: %w", err)
	}
	defer rows.Close()

	m := make(map[string]models.Redirect)
	for rows.Next() {
		r, err := scanRedirect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redirect: %w", err)
		}
		m[r.SourcePath] = *r
	}
	return m, rows.Err()
}

// Delete removes a redirect rule by ID and returns it, or nil if absent.
func (s *RedirectStore) Delete(id uuid.UUID) (*models.Redirect, error) {
	row := s.db.QueryRow(`
		DELETE FROM redirects WHERE id = $1
		RETURNING `+redirectColumns, id)
	r, err := scanRedirect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete redirect: %w", err)
	}
	return r, nil
}
