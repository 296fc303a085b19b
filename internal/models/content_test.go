package models

import "testing"

// TestContentIsPublished verifies that IsPublished returns true only for
// the "published" status.
func TestContentIsPublished(t *testing.T) {
	tests := []struct {
		name   string
		status ContentStatus
		want   bool
	}{
		{name: "published", status: ContentStatusPublished, want: true},
		{name: "draft", status: ContentStatusDraft, want: false},
		{name: "scheduled", status: ContentStatusScheduled, want: false},
		{name: "archived", status: ContentStatusArchived, want: false},
		{name: "empty status", status: ContentStatus(""), want: false},
		{name: "uppercase PUBLISHED", status: ContentStatus("PUBLISHED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ContentItem{Status: tt.status}
			got := c.IsPublished()
			if got != tt.want {
				t.Errorf("ContentItem{Status: %q}.IsPublished() = %v, want %v",
					tt.status, got, tt.want)
			}
		})
	}
}

// TestValidContentStatus verifies that only the four lifecycle statuses are
// accepted.
func TestValidContentStatus(t *testing.T) {
	tests := []struct {
		name   string
		status ContentStatus
		want   bool
	}{
		{name: "draft", status: ContentStatusDraft, want: true},
		{name: "scheduled", status: ContentStatusScheduled, want: true},
		{name: "published", status: ContentStatusPublished, want: true},
		{name: "archived", status: ContentStatusArchived, want: true},
		{name: "empty", status: ContentStatus(""), want: false},
		{name: "unknown", status: ContentStatus("deleted"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidContentStatus(tt.status); got != tt.want {
				t.Errorf("ValidContentStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

// TestValidContentType verifies the known content type values.
func TestValidContentType(t *testing.T) {
	tests := []struct {
		name string
		ct   ContentType
		want bool
	}{
		{name: "post", ct: ContentTypePost, want: true},
		{name: "page", ct: ContentTypePage, want: true},
		{name: "resource pdf", ct: ContentTypeResource, want: true},
		{name: "empty", ct: ContentType(""), want: false},
		{name: "unknown", ct: ContentType("video"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidContentType(tt.ct); got != tt.want {
				t.Errorf("ValidContentType(%q) = %v, want %v", tt.ct, got, tt.want)
			}
		})
	}
}

// TestValidVisibility verifies the known visibility values.
func TestValidVisibility(t *testing.T) {
	tests := []struct {
		name string
		v    Visibility
		want bool
	}{
		{name: "public", v: VisibilityPublic, want: true},
		{name: "unlisted", v: VisibilityUnlisted, want: true},
		{name: "private", v: VisibilityPrivate, want: true},
		{name: "empty", v: Visibility(""), want: false},
		{name: "unknown", v: Visibility("hidden"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidVisibility(tt.v); got != tt.want {
				t.Errorf("ValidVisibility(%q) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
