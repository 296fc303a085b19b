// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"fmt"

	"pressroom/internal/models"
)

// RenderBlocks fills in the HTML field of every markdown block, in place.
// Other block types carry structured payloads that clients render
// themselves, so they pass through untouched.
func RenderBlocks(blocks []models.ContentBlock) error {
	for i := range blocks {
		if blocks[i].Type != models.BlockTypeMarkdown {
			continue
		}
		rendered, err := ToHTML(blocks[i].MarkdownSource())
		if err != nil {
			return fmt.Errorf("render block at position %d: %w", blocks[i].Position, err)
		}
		blocks[i].HTML = &rendered
	}
	return nil
}
