package model

import "strings"

// Span is a run of text drawn with a single font, size and fill colour.
type Span struct {
	Text     string
	FontName string  // base font name without a subset prefix
	FontSize float64 // points, quantised to 0.01
	Color    RGB
	BBox     Rect
}

// HasFontMetadata reports whether the span carries a usable font name and size.
func (s Span) HasFontMetadata() bool {
	return s.FontName != "" && s.FontSize > 0
}

// Line is a sequence of spans sharing a baseline.
type Line struct {
	BBox  Rect
	Spans []Span
}

// Text returns the concatenated span text of the line.
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Block is a group of vertically adjacent lines; it is the unit of
// classification.
type Block struct {
	BBox  Rect
	Lines []Line
}

// Spans returns every span of the block in line order.
func (b Block) Spans() []Span {
	var out []Span
	for _, l := range b.Lines {
		out = append(out, l.Spans...)
	}
	return out
}

// Text returns the block text with lines separated by newlines.
func (b Block) Text() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}
