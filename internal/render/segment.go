package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// SegmentKind distinguishes streamed text from whole blocks.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentBlock
)

// Segment is one top-level unit of an answer.
type Segment struct {
	Kind SegmentKind
	Text string
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// segment splits Markdown into top-level units. Paragraphs made only of
// plain text become text segments carrying their rendered text; any other
// node keeps its Markdown source so the target can draw it as a block.
func segment(md goldmark.Markdown, raw string) []Segment {
	src := []byte(raw)
	doc := md.Parser().Parse(text.NewReader(src))

	var nodes []ast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		nodes = append(nodes, n)
	}

	starts := make([]int, len(nodes))
	prevEnd := 0
	for i, n := range nodes {
		s := blockStart(n, src)
		if s < 0 {
			s = skipBlankLines(src, prevEnd)
		}
		starts[i] = s
		if e := blockEnd(n); e > s {
			prevEnd = e
		} else {
			prevEnd = lineEnd(src, s)
		}
	}

	segs := make([]Segment, 0, len(nodes))
	for i, n := range nodes {
		if p, ok := n.(*ast.Paragraph); ok {
			if txt, plain := plainText(p, src); plain {
				segs = append(segs, Segment{Kind: SegmentText, Text: txt})
				continue
			}
		}
		end := len(src)
		if i+1 < len(nodes) {
			end = starts[i+1]
		}
		// Leading indentation is kept: it is what makes an indented code
		// block or nested list what it is.
		block := strings.TrimRight(string(src[skipBlankLines(src, starts[i]):end]), " \t\r\n")
		if block == "" {
			continue
		}
		segs = append(segs, Segment{Kind: SegmentBlock, Text: block})
	}
	return segs
}

func plainText(p *ast.Paragraph, src []byte) (string, bool) {
	var b strings.Builder
	for c := p.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			v := t.Segment.Value(src)
			if !t.IsRaw() {
				v = util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(v)))
			}
			b.Write(v)
			switch {
			case t.HardLineBreak():
				b.WriteByte('\n')
			case t.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			return "", false
		}
	}
	return strings.TrimSpace(b.String()), true
}

// blockStart returns the offset of the first line of n, or -1 when n carries
// no source lines (thematic breaks, empty fences).
func blockStart(n ast.Node, src []byte) int {
	if fence, ok := n.(*ast.FencedCodeBlock); ok {
		if fence.Info != nil {
			return lineStart(src, fence.Info.Segment.Start)
		}
		if fence.Lines().Len() > 0 {
			first := lineStart(src, fence.Lines().At(0).Start)
			if first > 0 {
				return lineStart(src, first-1)
			}
		}
		return -1
	}
	best := -1
	walkSegments(n, func(seg text.Segment) {
		if best < 0 || seg.Start < best {
			best = seg.Start
		}
	})
	if best < 0 {
		return -1
	}
	return lineStart(src, best)
}

func blockEnd(n ast.Node) int {
	end := -1
	walkSegments(n, func(seg text.Segment) {
		if seg.Stop > end {
			end = seg.Stop
		}
	})
	return end
}

// walkSegments visits the source lines of every block under n and the
// segments of its text nodes; table cells only carry the latter.
func walkSegments(n ast.Node, fn func(text.Segment)) {
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			fn(t.Segment)
			return ast.WalkContinue, nil
		}
		if c.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if lines := c.Lines(); lines != nil {
			for i := 0; i < lines.Len(); i++ {
				fn(lines.At(i))
			}
		}
		return ast.WalkContinue, nil
	})
}

func lineStart(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return bytes.LastIndexByte(src[:off], '\n') + 1
}

func lineEnd(src []byte, off int) int {
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i + 1
	}
	return len(src)
}

func skipBlankLines(src []byte, off int) int {
	for off < len(src) {
		end := lineEnd(src, off)
		if len(bytes.TrimSpace(src[off:end])) > 0 {
			return off
		}
		off = end
	}
	return off
}
