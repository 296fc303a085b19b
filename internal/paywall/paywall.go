// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package paywall decides how much of a content item a viewer gets. The cut
// happens here, before serialization, so gated blocks never reach the wire.
package paywall

import "pressroom/internal/models"

// Gate truncates block lists for viewers below the required tier.
type Gate struct {
	previewBlocks int
}

// New creates a gate that leaves previewBlocks blocks visible on gated
// content. Zero is valid and hides everything.
func New(previewBlocks int) *Gate {
	if previewBlocks < 0 {
		previewBlocks = 0
	}
	return &Gate{previewBlocks: previewBlocks}
}

// Result is the gate's decision for one request. TotalBlocks always counts
// the full item, so a locked response can say how much is behind the gate.
type Result struct {
	Blocks       []models.ContentBlock
	Locked       bool
	TotalBlocks  int
	RequiredTier models.Tier
}

// Apply returns the blocks the viewer may see. Viewers at or above the
// required tier get everything; everyone else gets the preview prefix.
func (g *Gate) Apply(blocks []models.ContentBlock, required, viewer models.Tier) Result {
	total := len(blocks)
	if viewer.Covers(required) {
		return Result{
			Blocks:       blocks,
			TotalBlocks:  total,
			RequiredTier: required,
		}
	}

	n := g.previewBlocks
	if n > total {
		n = total
	}
	return Result{
		Blocks:       blocks[:n],
		Locked:       true,
		TotalBlocks:  total,
		RequiredTier: required,
	}
}
