package render

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockBullet
	blockNumbered
)

// block is one line-level element of a report.
type block struct {
	kind  blockKind
	level int
	text  string
	spans []span
}

// span is a run of text with optional bold.
type span struct {
	text string
	bold bool
}

var markdown = goldmark.New()

// parseMarkdown flattens text into blocks. Soft line breaks start a new
// block of the same kind. Thematic breaks and raw HTML are dropped.
func parseMarkdown(src string) []block {
	source := []byte(strings.ReplaceAll(src, "\r\n", "\n"))
	doc := markdown.Parser().Parse(text.NewReader(source))

	var blocks []block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			for _, line := range inlineLines(n, source) {
				blocks = appendBlock(blocks, block{kind: blockHeading, level: n.Level}, line)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			kind, prefix := listMarker(n)
			for i, line := range inlineLines(n, source) {
				if i > 0 {
					kind, prefix = blockParagraph, ""
				}
				if prefix != "" {
					line = append([]span{{text: prefix}}, line...)
				}
				blocks = appendBlock(blocks, block{kind: kind}, line)
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				line := strings.TrimSpace(string(seg.Value(source)))
				blocks = appendBlock(blocks, block{kind: blockParagraph}, []span{{text: line}})
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// listMarker reports the kind of a paragraph that opens a list item, with
// the visible number for ordered lists.
func listMarker(n ast.Node) (blockKind, string) {
	item, ok := n.Parent().(*ast.ListItem)
	if !ok || item.FirstChild() != n {
		return blockParagraph, ""
	}
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return blockBullet, ""
	}
	num := list.Start
	for sib := list.FirstChild(); sib != nil && sib != item; sib = sib.NextSibling() {
		num++
	}
	return blockNumbered, fmt.Sprintf("%d%c ", num, list.Marker)
}

// appendBlock merges adjacent spans of equal weight and fills in the plain
// text. Empty lines are skipped, and a paragraph led by "•" becomes a bullet.
func appendBlock(blocks []block, b block, line []span) []block {
	for _, s := range line {
		if n := len(b.spans); n > 0 && b.spans[n-1].bold == s.bold {
			b.spans[n-1].text += s.text
			continue
		}
		b.spans = append(b.spans, s)
	}
	if b.kind == blockParagraph && len(b.spans) > 0 {
		if rest, ok := strings.CutPrefix(b.spans[0].text, "• "); ok {
			b.kind = blockBullet
			b.spans[0].text = rest
		}
	}
	var sb strings.Builder
	for _, s := range b.spans {
		sb.WriteString(s.text)
	}
	b.text = strings.TrimSpace(sb.String())
	if b.text == "" {
		return blocks
	}
	return append(blocks, b)
}

// inlineLines collects the inline content of n as spans, split at line
// breaks.
func inlineLines(n ast.Node, source []byte) [][]span {
	lines := [][]span{nil}
	var walk func(n ast.Node, bold bool)
	walk = func(n ast.Node, bold bool) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				cur := &lines[len(lines)-1]
				*cur = append(*cur, span{text: string(c.Segment.Value(source)), bold: bold})
				if c.SoftLineBreak() || c.HardLineBreak() {
					lines = append(lines, nil)
				}
			case *ast.String:
				cur := &lines[len(lines)-1]
				*cur = append(*cur, span{text: string(c.Value), bold: bold})
			case *ast.AutoLink:
				cur := &lines[len(lines)-1]
				*cur = append(*cur, span{text: string(c.Label(source)), bold: bold})
			case *ast.RawHTML:
			case *ast.Emphasis:
				walk(c, bold || c.Level >= 2)
			default:
				walk(c, bold)
			}
		}
	}
	walk(n, false)
	return lines
}
