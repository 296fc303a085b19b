// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetVisibility controls how an asset's bytes are served.
type AssetVisibility string

const (
	AssetPublic  AssetVisibility = "public"
	AssetPrivate AssetVisibility = "private"
)

// Asset represents an uploaded file with version history. Metadata lives in
// PostgreSQL; the bytes live in S3-compatible object storage, addressed by
// content hash. LatestVersionID points at the version currently served and
// can be moved back to any older version without losing history.
type Asset struct {
	ID              uuid.UUID       `json:"id"`
	Filename        string          `json:"filename"`
	ContentType     string          `json:"content_type"`
	Visibility      AssetVisibility `json:"visibility"`
	LatestVersionID uuid.UUID       `json:"latest_version_id"`
	UploaderID      uuid.UUID       `json:"uploader_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsImage returns true if the asset is an image type.
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// AssetVersion is one immutable upload of an asset's bytes. Versions are
// numbered from 1 and never deleted by a rollback.
type AssetVersion struct {
	ID         uuid.UUID `json:"id"`
	AssetID    uuid.UUID `json:"asset_id"`
	VersionNo  int       `json:"version_no"`
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	Bucket     string    `json:"bucket"`
	S3Key      string    `json:"s3_key"`
	ThumbS3Key *string   `json:"thumb_s3_key,omitempty"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// HumanSize returns a human-readable file size string.
func (v *AssetVersion) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case v.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(v.SizeBytes)/float64(mb))
	case v.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(v.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", v.SizeBytes)
	}
}
