// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pressroom/internal/models"
)

// ErrVersionMismatch is returned when a rollback names a version that does
// not belong to the asset.
var ErrVersionMismatch = errors.New("version does not belong to this asset")

// AssetStore handles asset metadata and version history. Object bytes live
// in S3; every row here points at an immutable object.
type AssetStore struct {
	db *sql.DB
}

// NewAssetStore creates a new AssetStore with the given database connection.
func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

// assetColumns lists the columns selected in asset queries.
const assetColumns = `id, filename, content_type, visibility, latest_version_id,
	uploader_id, created_at, updated_at`

// versionColumns lists the columns selected in asset version queries.
const versionColumns = `id, asset_id, version_no, sha256, size_bytes, bucket,
	s3_key, thumb_s3_key, created_by, created_at`

// scanAsset scans an asset row from the result set.
func scanAsset(scanner interface{ Scan(...any) error }) (*models.Asset, error) {
	var a models.Asset
	err := scanner.Scan(
		&a.ID, &a.Filename, &a.ContentType, &a.Visibility, &a.LatestVersionID,
		&a.UploaderID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scanVersion scans an asset version row from the result set.
func scanVersion(scanner interface{ Scan(...any) error }) (*models.AssetVersion, error) {
	var v models.AssetVersion
	err := scanner.Scan(
		&v.ID, &v.AssetID, &v.VersionNo, &v.SHA256, &v.SizeBytes, &v.Bucket,
		&v.S3Key, &v.ThumbS3Key, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new asset with its first version and points the latest
// pointer at it, all in one transaction.
func (s *AssetStore) Create(a *models.Asset, v *models.AssetVersion) (*models.Asset, *models.AssetVersion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("create asset begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		INSERT INTO assets (filename, content_type, visibility, uploader_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+assetColumns,
		a.Filename, a.ContentType, a.Visibility, a.UploaderID,
	)
	var created models.Asset
	var latest uuid.NullUUID
	err = row.Scan(
		&created.ID, &created.Filename, &created.ContentType, &created.Visibility,
		&latest, &created.UploaderID, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create asset: %w", err)
	}

	version, err := insertVersion(tx, created.ID, 1, v)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(
		`UPDATE assets SET latest_version_id = $1 WHERE id = $2`,
		version.ID, created.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("point latest version: %w", err)
	}
	created.LatestVersionID = version.ID

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("create asset commit: %w", err)
	}
	return &created, version, nil
}

// insertVersion inserts one version row inside the caller's transaction.
func insertVersion(tx *sql.Tx, assetID uuid.UUID, versionNo int, v *models.AssetVersion) (*models.AssetVersion, error) {
	row := tx.QueryRow(`
		INSERT INTO asset_versions (asset_id, version_no, sha256, size_bytes, bucket, s3_key, thumb_s3_key, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+versionColumns,
		assetID, versionNo, v.SHA256, v.SizeBytes, v.Bucket, v.S3Key, v.ThumbS3Key, v.CreatedBy,
	)
	version, err := scanVersion(row)
	if err != nil {
		return nil, fmt.Errorf("insert version %d: %w", versionNo, err)
	}
	return version, nil
}

// AddVersion appends a new version to an existing asset and re-points the
// latest pointer at it. A re-upload may carry a different content type
// (same document, new encoding). The asset row is locked so concurrent
// uploads get sequential version numbers. Returns nil if the asset does
// not exist.
func (s *AssetStore) AddVersion(assetID uuid.UUID, contentType string, v *models.AssetVersion) (*models.AssetVersion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("add version begin: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(
		`SELECT TRUE FROM assets WHERE id = $1 FOR UPDATE`, assetID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock asset: %w", err)
	}

	var nextNo int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(version_no), 0) + 1 FROM asset_versions WHERE asset_id = $1`, assetID,
	).Scan(&nextNo)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	version, err := insertVersion(tx, assetID, nextNo, v)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		`UPDATE assets SET latest_version_id = $1, content_type = $2, updated_at = NOW() WHERE id = $3`,
		version.ID, contentType, assetID,
	); err != nil {
		return nil, fmt.Errorf("point latest version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add version commit: %w", err)
	}
	return version, nil
}

// Rollback re-points an asset's latest pointer at an older version. The
// version row stays untouched; nothing is deleted. Returns the version now
// serving, nil if the asset is unknown, or ErrVersionMismatch if the
// version belongs to a different asset.
func (s *AssetStore) Rollback(assetID, versionID uuid.UUID) (*models.AssetVersion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("rollback begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+versionColumns+` FROM asset_versions WHERE id = $1`, versionID)
	version, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, ErrVersionMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("find version: %w", err)
	}
	if version.AssetID != assetID {
		return nil, ErrVersionMismatch
	}

	res, err := tx.Exec(
		`UPDATE assets SET latest_version_id = $1, updated_at = NOW() WHERE id = $2`,
		versionID, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("rollback update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rollback affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("rollback commit: %w", err)
	}
	return version, nil
}

// FindByID retrieves an asset by its UUID. Returns nil if not found.
func (s *AssetStore) FindByID(id uuid.UUID) (*models.Asset, error) {
	row := s.db.QueryRow(`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset by id: %w", err)
	}
	return a, nil
}

// LatestVersion returns the version an asset currently serves.
func (s *AssetStore) LatestVersion(assetID uuid.UUID) (*models.AssetVersion, error) {
	row := s.db.QueryRow(`
		SELECT `+versionColumns+`
		FROM asset_versions v
		JOIN assets a ON a.latest_version_id = v.id
		WHERE a.id = $1
	`, assetID)
	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	return v, nil
}

// Versions returns an asset's full version history, newest first.
func (s *AssetStore) Versions(assetID uuid.UUID) ([]models.AssetVersion, error) {
	rows, err := s.db.Query(`
		SELECT `+versionColumns+`
		FROM asset_versions
		WHERE asset_id = $1
		ORDER BY version_no DESC
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.AssetVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// List returns assets ordered by creation date, with pagination.
func (s *AssetStore) List(limit, offset int) ([]models.Asset, error) {
	rows, err := s.db.Query(`
		SELECT `+assetColumns+`
		FROM assets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var items []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// Delete removes an asset and returns its version rows so the caller can
// clean up the S3 objects. Versions cascade with the asset row.
func (s *AssetStore) Delete(id uuid.UUID) (*models.Asset, []models.AssetVersion, error) {
	versions, err := s.Versions(id)
	if err != nil {
		return nil, nil, err
	}

	row := s.db.QueryRow(`
		DELETE FROM assets WHERE id = $1
		RETURNING `+assetColumns, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("delete asset: %w", err)
	}
	return a, versions, nil
}
