// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Tier is an access level. It names both the level a content item requires
// and the level a viewer holds; the two are compared on one total order.
type Tier string

const (
	TierFree           Tier = "free"
	TierPremium        Tier = "premium"
	TierSubscriberOnly Tier = "subscriber_only"
)

// tierRank orders tiers from least to most privileged.
var tierRank = map[Tier]int{
	TierFree:           0,
	TierPremium:        1,
	TierSubscriberOnly: 2,
}

// ValidTier reports whether t is one of the known tiers.
func ValidTier(t Tier) bool {
	_, ok := tierRank[t]
	return ok
}

// Covers reports whether a viewer holding tier t may read content requiring
// tier required. Unknown tiers never cover anything.
func (t Tier) Covers(required Tier) bool {
	vr, ok := tierRank[t]
	if !ok {
		return false
	}
	cr, ok := tierRank[required]
	if !ok {
		return false
	}
	return vr >= cr
}
