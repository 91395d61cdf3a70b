package outline

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Parser wraps a configured goldmark instance. The same instance produces
// both the block structure consumed by the outline extractor and the
// rendered HTML, so heading anchors always agree between the two.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates the markdown parser used throughout the application:
// GFM with typographer and chroma class-based syntax highlighting.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
				highlighting.NewHighlighting(
					highlighting.WithFormatOptions(
						chromahtml.WithClasses(true),
					),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Blocks parses a markdown document into its top-level block sequence.
// Only headings carry structure the outline needs; everything else is
// reported as BlockOther. Malformed input never fails: goldmark always
// produces a document, possibly with no headings.
func (p *Parser) Blocks(source []byte) []domain.Block {
	doc := p.md.Parser().Parse(text.NewReader(source))

	var blocks []domain.Block
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if heading, ok := child.(*ast.Heading); ok {
			blocks = append(blocks, domain.Block{
				Kind:  domain.BlockHeading,
				Level: heading.Level,
				Text:  plainText(heading, source),
			})
			continue
		}
		blocks = append(blocks, domain.Block{Kind: domain.BlockOther})
	}
	return blocks
}

// Outline parses a document and extracts its heading outline.
func (p *Parser) Outline(source []byte) []domain.HeadingNode {
	return Extract(p.Blocks(source))
}

// Render converts a markdown document to HTML. Heading ids are generated
// with the same slug algorithm as Extract, so outline anchors resolve
// against the rendered output.
func (p *Parser) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	if err := p.md.Convert(source, &buf, parser.WithContext(pctx)); err != nil {
		return nil, fmt.Errorf("markdown render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// plainText extracts the rendered plain-text content of an inline container,
// dropping markup but keeping code span and text content.
func plainText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// slugIDs implements goldmark's parser.IDs on top of the outline slugger,
// keeping rendered heading ids identical to extracted anchors.
type slugIDs struct {
	slugger *slugger
	ordinal int
}

func newSlugIDs() *slugIDs {
	return &slugIDs{slugger: newSlugger()}
}

// Generate returns the anchor id for the next heading in document order.
func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	s.ordinal++
	return []byte(s.slugger.anchor(string(value), s.ordinal))
}

// Put registers an explicitly authored id so generated ones never collide
// with it.
func (s *slugIDs) Put(value []byte) {
	s.slugger.reserve(string(value))
}
