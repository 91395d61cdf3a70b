package outline

import (
	"slices"
	"testing"

	"github.com/mdshelf/mdshelf/internal/domain"
)

func heading(level int, text string) domain.Block {
	return domain.Block{Kind: domain.BlockHeading, Level: level, Text: text}
}

func anchors(headings []domain.HeadingNode) []string {
	out := make([]string, len(headings))
	for i, h := range headings {
		out[i] = h.AnchorID
	}
	return out
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Setup", "setup"},
		{"Getting Started", "getting-started"},
		{"  spaced   out  ", "spaced-out"},
		{"C'est l'été!", "cest-lt"},
		{"100% CPU usage", "100-cpu-usage"},
		{"already-hyphenated", "already-hyphenated"},
		{"a - b", "a---b"},
		{"§±!@#$", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Slugify(tt.text); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtract_CollisionSuffixes(t *testing.T) {
	blocks := []domain.Block{
		heading(2, "Setup"),
		heading(2, "Setup"),
		heading(2, "Setup"),
	}

	want := []string{"setup", "setup-2", "setup-3"}
	if got := anchors(Extract(blocks)); !slices.Equal(got, want) {
		t.Errorf("Anchors = %v, want %v", got, want)
	}
}

func TestExtract_SuffixCollidesWithLiteralHeading(t *testing.T) {
	blocks := []domain.Block{
		heading(2, "Setup 2"),
		heading(2, "Setup"),
		heading(2, "Setup"),
	}

	got := anchors(Extract(blocks))
	seen := make(map[string]struct{})
	for _, a := range got {
		if _, dup := seen[a]; dup {
			t.Fatalf("Duplicate anchor %q in %v", a, got)
		}
		seen[a] = struct{}{}
	}
	if got[0] != "setup-2" {
		t.Errorf("First anchor = %q, want %q", got[0], "setup-2")
	}
}

func TestExtract_EmptySlugFallsBackToPosition(t *testing.T) {
	blocks := []domain.Block{
		heading(1, "Intro"),
		heading(2, "!!!"),
		heading(2, "???"),
	}

	got := anchors(Extract(blocks))
	want := []string{"intro", "section-2", "section-3"}
	if !slices.Equal(got, want) {
		t.Errorf("Anchors = %v, want %v", got, want)
	}
}

func TestExtract_PreservesOrderAndLevels(t *testing.T) {
	blocks := []domain.Block{
		heading(1, "Guide"),
		{Kind: domain.BlockOther},
		heading(2, "Install"),
		heading(3, "Linux"),
		{Kind: domain.BlockOther},
		heading(2, "Usage"),
	}

	got := Extract(blocks)
	if len(got) != 4 {
		t.Fatalf("Extracted %d headings, want 4", len(got))
	}
	wantLevels := []int{1, 2, 3, 2}
	wantTexts := []string{"Guide", "Install", "Linux", "Usage"}
	for i := range got {
		if got[i].Level != wantLevels[i] {
			t.Errorf("Heading %d level = %d, want %d", i, got[i].Level, wantLevels[i])
		}
		if got[i].Text != wantTexts[i] {
			t.Errorf("Heading %d text = %q, want %q", i, got[i].Text, wantTexts[i])
		}
	}
}

func TestExtract_NoHeadings(t *testing.T) {
	blocks := []domain.Block{{Kind: domain.BlockOther}, {Kind: domain.BlockOther}}
	if got := Extract(blocks); len(got) != 0 {
		t.Errorf("Expected empty outline, got %v", got)
	}
	if got := Extract(nil); len(got) != 0 {
		t.Errorf("Expected empty outline for nil blocks, got %v", got)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	blocks := []domain.Block{
		heading(1, "Guide"),
		heading(2, "Setup"),
		heading(2, "Setup"),
	}

	first := anchors(Extract(blocks))
	second := anchors(Extract(blocks))
	if !slices.Equal(first, second) {
		t.Errorf("Extraction not deterministic: %v vs %v", first, second)
	}
}

func TestTitle(t *testing.T) {
	blocks := []domain.Block{
		{Kind: domain.BlockOther},
		heading(2, "Not the title"),
		heading(1, "The Title"),
	}
	if got := Title(blocks); got != "The Title" {
		t.Errorf("Title = %q, want %q", got, "The Title")
	}
	if got := Title(nil); got != "" {
		t.Errorf("Title of empty document = %q, want empty", got)
	}
}
