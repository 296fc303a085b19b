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

// ErrSlugTaken is returned when a slug collides with another live content
// item. Archived items do not hold their slug.
var ErrSlugTaken = errors.New("slug already in use")

// ContentStore handles content item and content block persistence. Blocks
// belong to their item and are always written as a whole ordered set.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

// contentColumns lists the columns selected in content item queries.
const contentColumns = `id, type, title, slug, summary, status, visibility,
	tier, publish_at, published_at, author_id, created_at, updated_at`

// scanContent scans a content item row from the result set.
func scanContent(scanner interface{ Scan(...any) error }) (*models.ContentItem, error) {
	var c models.ContentItem
	err := scanner.Scan(
		&c.ID, &c.Type, &c.Title, &c.Slug, &c.Summary, &c.Status, &c.Visibility,
		&c.Tier, &c.PublishAt, &c.PublishedAt, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// isSlugConflict detects a unique violation on the live-slug index.
func isSlugConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "content_items_slug_live"
	}
	return false
}

// Create inserts a new content item together with its ordered blocks in one
// transaction. New items always start as drafts; status changes go through
// the lifecycle engine.
func (s *ContentStore) Create(c *models.ContentItem, blocks []models.ContentBlock) (*models.ContentItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create content begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		INSERT INTO content_items (type, title, slug, summary, status, visibility, tier, author_id)
		VALUES ($1, $2, $3, $4, 'draft', $5, $6, $7)
		RETURNING `+contentColumns,
		c.Type, c.Title, c.Slug, c.Summary, c.Visibility, c.Tier, c.AuthorID,
	)
	created, err := scanContent(row)
	if err != nil {
		if isSlugConflict(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create content: %w", err)
	}

	if err := replaceBlocks(tx, created.ID, blocks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create content commit: %w", err)
	}
	return created, nil
}

// replaceBlocks rewrites the full block set for a content item inside the
// caller's transaction. Positions are reindexed from zero in slice order so
// ordering is deterministic regardless of what the caller sent.
func replaceBlocks(tx *sql.Tx, contentID uuid.UUID, blocks []models.ContentBlock) error {
	if _, err := tx.Exec(`DELETE FROM content_blocks WHERE content_id = $1`, contentID); err != nil {
		return fmt.Errorf("clear blocks: %w", err)
	}
	for i, b := range blocks {
		payload := b.Payload
		if len(payload) == 0 {
			payload = []byte(`{}`)
		}
		// jsonb wants text, not bytea, through the stdlib driver.
		_, err := tx.Exec(`
			INSERT INTO content_blocks (content_id, type, position, payload)
			VALUES ($1, $2, $3, $4)
		`, contentID, b.Type, i, string(payload))
		if err != nil {
			return fmt.Errorf("insert block %d: %w", i, err)
		}
	}
	return nil
}

// FindByID retrieves a content item by its UUID. Returns nil if not found.
func (s *ContentStore) FindByID(id uuid.UUID) (*models.ContentItem, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM content_items WHERE id = $1`, id)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by id: %w", err)
	}
	return c, nil
}

// FindPublishedBySlug retrieves a published, non-private content item by
// slug. Used by the public read path; unlisted items resolve here too.
func (s *ContentStore) FindPublishedBySlug(slug string) (*models.ContentItem, error) {
	row := s.db.QueryRow(`
		SELECT `+contentColumns+`
		FROM content_items
		WHERE slug = $1 AND status = 'published' AND visibility <> 'private'
	`, slug)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by slug: %w", err)
	}
	return c, nil
}

// List returns content items with optional status and type filters, newest
// first. Empty filter strings match everything.
func (s *ContentStore) List(status models.ContentStatus, ctype models.ContentType, limit, offset int) ([]models.ContentItem, error) {
	rows, err := s.db.Query(`
		SELECT `+contentColumns+`
		FROM content_items
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, string(status), string(ctype), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// ListPublishedPublic returns published, publicly visible items ordered by
// publish date descending. Used for the public listing endpoint.
func (s *ContentStore) ListPublishedPublic(ctype models.ContentType, limit, offset int) ([]models.ContentItem, error) {
	rows, err := s.db.Query(`
		SELECT `+contentColumns+`
		FROM content_items
		WHERE status = 'published' AND visibility = 'public'
		  AND ($1 = '' OR type = $1)
		ORDER BY published_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, string(ctype), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list published content: %w", err)
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// UpdateMeta modifies a content item's editable fields and rewrites its
// block set in one transaction. Status, publish_at, and published_at are
// not touched here; those belong to the lifecycle engine.
func (s *ContentStore) UpdateMeta(c *models.ContentItem, blocks []models.ContentBlock) (*models.ContentItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update content begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		UPDATE content_items SET
			title = $1, slug = $2, summary = $3, visibility = $4, tier = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING `+contentColumns,
		c.Title, c.Slug, c.Summary, c.Visibility, c.Tier, c.ID,
	)
	updated, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isSlugConflict(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update content: %w", err)
	}

	if err := replaceBlocks(tx, updated.ID, blocks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update content commit: %w", err)
	}
	return updated, nil
}

// Delete removes a content item by ID and returns it so the caller can
// invalidate caches. Blocks and scheduled jobs go with it via FK cascade.
func (s *ContentStore) Delete(id uuid.UUID) (*models.ContentItem, error) {
	row := s.db.QueryRow(`
		DELETE FROM content_items WHERE id = $1
		RETURNING `+contentColumns, id)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete content: %w", err)
	}
	return c, nil
}

// BlocksFor returns a content item's blocks in display order.
func (s *ContentStore) BlocksFor(contentID uuid.UUID) ([]models.ContentBlock, error) {
	rows, err := s.db.Query(`
		SELECT id, content_id, type, position, payload, created_at, updated_at
		FROM content_blocks
		WHERE content_id = $1
		ORDER BY position, id
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.ContentBlock
	for rows.Next() {
		var b models.ContentBlock
		if err := rows.Scan(
			&b.ID, &b.ContentID, &b.Type, &b.Position, &b.Payload,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CountByStatus returns the number of content items in the given status.
func (s *ContentStore) CountByStatus(status models.ContentStatus) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM content_items WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return count, nil
}
