// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BlockType identifies how a content block's payload is interpreted.
type BlockType string

const (
	BlockTypeMarkdown BlockType = "markdown"
	BlockTypeImage    BlockType = "image"
	BlockTypeChart    BlockType = "chart"
	BlockTypeEmbed    BlockType = "embed"
	BlockTypeDivider  BlockType = "divider"
)

// ValidBlockType reports whether t is one of the known block types.
func ValidBlockType(t BlockType) bool {
	switch t {
	case BlockTypeMarkdown, BlockTypeImage, BlockTypeChart, BlockTypeEmbed, BlockTypeDivider:
		return true
	}
	return false
}

// ContentBlock is one ordered unit of a content item's body. The payload is
// opaque JSON whose shape depends on the block type; the server stores and
// orders blocks, it does not interpret chart or embed internals.
type ContentBlock struct {
	ID        uuid.UUID       `json:"id"`
	ContentID uuid.UUID       `json:"content_id"`
	Type      BlockType       `json:"type"`
	Position  int             `json:"position"`
	Payload   json.RawMessage `json:"payload"`
	HTML      *string         `json:"html,omitempty"` // Rendered Markdown; public reads only
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarkdownPayload is the payload shape for markdown blocks.
type MarkdownPayload struct {
	Source string `json:"source"`
}

// MarkdownSource extracts the markdown source from a markdown block's
// payload. Returns an empty string for other block types or bad payloads.
func (b *ContentBlock) MarkdownSource() string {
	if b.Type != BlockTypeMarkdown {
		return ""
	}
	var p MarkdownPayload
	if err := json.Unmarshal(b.Payload, &p); err != nil {
		return ""
	}
	return p.Source
}
