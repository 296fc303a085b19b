package models

import (
	"encoding/json"
	"testing"
)

// TestMarkdownSource verifies payload extraction for markdown blocks and
// empty results for everything else.
func TestMarkdownSource(t *testing.T) {
	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{
			name:  "markdown block",
			block: ContentBlock{Type: BlockTypeMarkdown, Payload: json.RawMessage(`{"source":"# Hello"}`)},
			want:  "# Hello",
		},
		{
			name:  "image block ignored",
			block: ContentBlock{Type: BlockTypeImage, Payload: json.RawMessage(`{"source":"# Hello"}`)},
			want:  "",
		},
		{
			name:  "malformed payload",
			block: ContentBlock{Type: BlockTypeMarkdown, Payload: json.RawMessage(`{"source":`)},
			want:  "",
		},
		{
			name:  "empty payload",
			block: ContentBlock{Type: BlockTypeMarkdown, Payload: nil},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.block.MarkdownSource(); got != tt.want {
				t.Errorf("MarkdownSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestValidBlockType verifies the known block type values.
func TestValidBlockType(t *testing.T) {
	for _, bt := range []BlockType{BlockTypeMarkdown, BlockTypeImage, BlockTypeChart, BlockTypeEmbed, BlockTypeDivider} {
		if !ValidBlockType(bt) {
			t.Errorf("ValidBlockType(%q) = false, want true", bt)
		}
	}
	if ValidBlockType(BlockType("table")) {
		t.Error("ValidBlockType(\"table\") = true, want false")
	}
}
