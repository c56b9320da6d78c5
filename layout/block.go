package layout

import (
	"math"
	"strings"

	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/text"
)

// BlockConfig holds configuration for block detection
type BlockConfig struct {
	// BaselineTolerance is the maximum baseline difference for two fragments
	// to share a line, as a fraction of font size (default: 0.3)
	BaselineTolerance float64

	// HorizontalGapThreshold is the largest horizontal gap inside a line,
	// as a fraction of font size (default: 3.0)
	HorizontalGapThreshold float64

	// SpaceThreshold is the gap above which a space is inserted between
	// merged fragments, as a fraction of font size (default: 0.15)
	SpaceThreshold float64

	// VerticalGapThreshold is the largest vertical gap between consecutive
	// lines of one block, as a fraction of the previous line height
	// (default: 0.6)
	VerticalGapThreshold float64

	// SizeChangeRatio starts a new block when the dominant font size of two
	// consecutive lines differs by more than this ratio; 0 disables
	// (default: 0.2)
	SizeChangeRatio float64
}

// DefaultBlockConfig returns sensible default configuration
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		BaselineTolerance:      0.3,
		HorizontalGapThreshold: 3.0,
		SpaceThreshold:         0.15,
		VerticalGapThreshold:   0.6,
		SizeChangeRatio:        0.2,
	}
}

// PageBox is the page's MediaBox in PDF user space.
type PageBox struct {
	LLX, LLY, URX, URY float64
}

// Width returns the page width
func (b PageBox) Width() float64 {
	return b.URX - b.LLX
}

// Height returns the page height
func (b PageBox) Height() float64 {
	return b.URY - b.LLY
}

// ToPage converts a PDF user-space rectangle (bottom-left origin) into
// page space (top-left origin).
func (b PageBox) ToPage(x0, y0, x1, y1 float64) model.Rect {
	return model.NewRect(x0-b.LLX, b.URY-y1, x1-b.LLX, b.URY-y0)
}

// BlockDetector detects text blocks on a page
type BlockDetector struct {
	config BlockConfig
}

// NewBlockDetector creates a new block detector with default configuration
func NewBlockDetector() *BlockDetector {
	return &BlockDetector{config: DefaultBlockConfig()}
}

// NewBlockDetectorWithConfig creates a block detector with custom configuration
func NewBlockDetectorWithConfig(config BlockConfig) *BlockDetector {
	return &BlockDetector{config: config}
}

// lineBuilder accumulates fragments of one line.
type lineBuilder struct {
	spans    []model.Span
	baseline float64
	lastX1   float64
	lastSize float64

	// pendingSpace is set by a whitespace fragment and consumed by the next
	// fragment that joins the current span
	pendingSpace bool
}

// Detect groups fragments, in content order, into blocks. Consecutive
// fragments on the same baseline form a line; consecutive fragments with the
// same font, size and colour form a span; consecutive lines that are close
// vertically and overlap horizontally form a block.
func (d *BlockDetector) Detect(fragments []text.Fragment, box PageBox) []model.Block {
	lines := d.groupIntoLines(fragments, box)
	return d.groupLinesIntoBlocks(lines)
}

func (d *BlockDetector) groupIntoLines(fragments []text.Fragment, box PageBox) []model.Line {
	var lines []model.Line
	var cur *lineBuilder

	flush := func() {
		if cur != nil && len(cur.spans) > 0 {
			lines = append(lines, finalizeLine(cur.spans))
		}
		cur = nil
	}

	for _, f := range fragments {
		blank := strings.TrimSpace(f.Text) == ""
		rect := box.ToPage(f.X, f.Bottom(), f.X+f.Width, f.Top())

		if cur != nil && d.continuesLine(cur, f) {
			gap := f.X - cur.lastX1
			last := &cur.spans[len(cur.spans)-1]
			switch {
			case blank:
				// Whitespace never becomes part of a span's text, so exact
				// tokens such as bullets and years keep their text.
				cur.pendingSpace = true
			case sameStyle(*last, f):
				if (cur.pendingSpace || gap > d.config.SpaceThreshold*f.FontSize) &&
					!strings.HasSuffix(last.Text, " ") && !strings.HasPrefix(f.Text, " ") {
					last.Text += " "
				}
				last.Text += f.Text
				last.BBox = last.BBox.Union(rect)
				cur.pendingSpace = false
			default:
				cur.spans = append(cur.spans, spanFromFragment(f, rect))
				cur.pendingSpace = false
			}
			cur.lastX1 = math.Max(cur.lastX1, f.X+f.Width)
			continue
		}

		flush()
		if blank {
			continue
		}
		cur = &lineBuilder{
			spans:    []model.Span{spanFromFragment(f, rect)},
			baseline: f.Y,
			lastX1:   f.X + f.Width,
			lastSize: f.FontSize,
		}
	}
	flush()
	return lines
}

func (d *BlockDetector) continuesLine(cur *lineBuilder, f text.Fragment) bool {
	size := math.Max(f.FontSize, cur.lastSize)
	if size <= 0 {
		size = 1
	}
	if math.Abs(f.Y-cur.baseline) > d.config.BaselineTolerance*size {
		return false
	}
	gap := f.X - cur.lastX1
	// Allow a small overlap for kerning, but not a jump back to a new column.
	if gap < -0.5*size {
		return false
	}
	return gap <= d.config.HorizontalGapThreshold*size
}

func (d *BlockDetector) groupLinesIntoBlocks(lines []model.Line) []model.Block {
	if len(lines) == 0 {
		return nil
	}

	var blocks []model.Block
	current := []model.Line{lines[0]}

	for i := 1; i < len(lines); i++ {
		prev := lines[i-1]
		curr := lines[i]

		gap := curr.BBox.Y0 - prev.BBox.Y1
		threshold := prev.BBox.Height() * d.config.VerticalGapThreshold
		overlap := prev.BBox.X0 < curr.BBox.X1 && curr.BBox.X0 < prev.BBox.X1
		backwards := curr.BBox.Y1 <= prev.BBox.Y0

		if gap > threshold || !overlap || backwards || d.sizeChanged(prev, curr) {
			blocks = append(blocks, finalizeBlock(current))
			current = []model.Line{curr}
			continue
		}
		current = append(current, curr)
	}
	blocks = append(blocks, finalizeBlock(current))
	return blocks
}

func (d *BlockDetector) sizeChanged(prev, curr model.Line) bool {
	if d.config.SizeChangeRatio <= 0 {
		return false
	}
	a, b := dominantSize(prev), dominantSize(curr)
	if a <= 0 || b <= 0 {
		return false
	}
	return math.Abs(a-b)/math.Max(a, b) > d.config.SizeChangeRatio
}

// dominantSize returns the font size covering the most characters of a line.
func dominantSize(l model.Line) float64 {
	counts := make(map[float64]int)
	var best float64
	for _, s := range l.Spans {
		counts[s.FontSize] += len([]rune(s.Text))
		if counts[s.FontSize] > counts[best] {
			best = s.FontSize
		}
	}
	return best
}

func sameStyle(s model.Span, f text.Fragment) bool {
	return s.FontName == f.FontName && s.FontSize == f.FontSize && s.Color == f.Color
}

func spanFromFragment(f text.Fragment, rect model.Rect) model.Span {
	return model.Span{
		Text:     f.Text,
		FontName: f.FontName,
		FontSize: f.FontSize,
		Color:    f.Color,
		BBox:     rect,
	}
}

func finalizeLine(spans []model.Span) model.Line {
	var bbox model.Rect
	for i := range spans {
		spans[i].Text = strings.TrimSpace(spans[i].Text)
		bbox = bbox.Union(spans[i].BBox)
	}
	return model.Line{BBox: bbox, Spans: spans}
}

func finalizeBlock(lines []model.Line) model.Block {
	var bbox model.Rect
	for _, l := range lines {
		bbox = bbox.Union(l.BBox)
	}
	return model.Block{BBox: bbox, Lines: lines}
}
