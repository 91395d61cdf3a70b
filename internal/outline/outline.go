package outline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mdshelf/mdshelf/internal/domain"
)

// Extract builds the heading outline of a document from its parsed block
// sequence. The result is a flat list in document order; consumers indent by
// Level. A document without headings yields an empty outline, never an error.
//
// Anchor ids are unique within the document: the first occurrence of a slug
// keeps it unmodified, later occurrences get -2, -3, and so on.
func Extract(blocks []domain.Block) []domain.HeadingNode {
	sl := newSlugger()
	var headings []domain.HeadingNode
	ordinal := 0
	for _, b := range blocks {
		if b.Kind != domain.BlockHeading {
			continue
		}
		ordinal++
		headings = append(headings, domain.HeadingNode{
			Level:    b.Level,
			Text:     b.Text,
			AnchorID: sl.anchor(b.Text, ordinal),
		})
	}
	return headings
}

// Title returns the document's first level-1 heading, or "".
func Title(blocks []domain.Block) string {
	for _, b := range blocks {
		if b.Kind == domain.BlockHeading && b.Level == 1 {
			return b.Text
		}
	}
	return ""
}

// slugger generates unique URL-fragment anchors for one document.
type slugger struct {
	counts map[string]int
	taken  map[string]struct{}
}

func newSlugger() *slugger {
	return &slugger{
		counts: make(map[string]int),
		taken:  make(map[string]struct{}),
	}
}

// anchor returns the unique anchor for a heading. ordinal is the 1-based
// position of the heading in the document, used only when the text slugs to
// nothing.
func (s *slugger) anchor(text string, ordinal int) string {
	base := Slugify(text)
	if base == "" {
		base = "section-" + strconv.Itoa(ordinal)
	}

	n := s.counts[base] + 1
	candidate := base
	if n > 1 {
		candidate = base + "-" + strconv.Itoa(n)
	}
	// Guard against a generated suffix colliding with a literal heading
	// like "Setup 2".
	for {
		if _, exists := s.taken[candidate]; !exists {
			break
		}
		n++
		candidate = base + "-" + strconv.Itoa(n)
	}
	s.counts[base] = n
	s.taken[candidate] = struct{}{}
	return candidate
}

// reserve marks an anchor as used without generating one.
func (s *slugger) reserve(anchor string) {
	s.taken[anchor] = struct{}{}
}

// Slugify lowercases text, strips characters outside [a-z0-9\s-], and
// replaces each whitespace run with a single hyphen, trimming leading and
// trailing hyphens. Returns "" when nothing survives.
func Slugify(text string) string {
	text = strings.ToLower(text)

	var sb strings.Builder
	inSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			if inSpace && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			inSpace = false
			sb.WriteRune(r)
		default:
			// Dropped entirely; does not break a whitespace run.
		}
	}
	return strings.Trim(sb.String(), "-")
}
