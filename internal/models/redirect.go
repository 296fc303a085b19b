// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Redirect maps one site path to another. Both paths are site-internal and
// rooted; external targets are rejected at write time.
type Redirect struct {
	ID         uuid.UUID `json:"id"`
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`
	StatusCode int       `json:"status_code"`
	Enabled    bool      `json:"enabled"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsPermanent returns true for 301 redirects.
func (r *Redirect) IsPermanent() bool {
	return r.StatusCode == 301
}

// ValidRedirectCode reports whether code is an allowed redirect status.
func ValidRedirectCode(code int) bool {
	return code == 301 || code == 302
}
