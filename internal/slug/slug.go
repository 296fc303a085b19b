// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL path segments from editorial titles.
package slug

import (
	"regexp"
	"strings"
)

// MaxLength caps slugs at a size that stays comfortably inside URL and
// index limits.
const MaxLength = 200

// wellFormed matches a canonical slug: lowercase alphanumeric runs
// joined by single hyphens.
var wellFormed = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Generate turns a title into a slug: lowercase, spaces become hyphens,
// punctuation drops out, hyphen runs collapse. "Hello, World! 2026"
// becomes "hello-world-2026". Titles with nothing usable left produce
// "", and the caller asks for an explicit slug instead.
func Generate(s string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '\t' || r == '\n':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		// Everything else is punctuation or non-ASCII and is dropped.
	}
	return strings.Trim(b.String(), "-")
}

// Valid reports whether s is usable as a slug exactly as given. Slugs
// typed by editors must already be canonical; anything else gets a
// validation error rather than silent rewriting.
func Valid(s string) bool {
	return s != "" && len(s) <= MaxLength && wellFormed.MatchString(s)
}
