package tables

import (
	"context"

	"github.com/tidwall/rtree"

	"github.com/tsawler/redline/model"
)

// Finder locates tables on a page.
type Finder interface {
	// FindTables returns table bounding boxes in page space for the page at
	// pageIndex (0-based).
	FindTables(ctx context.Context, pageIndex int) ([]model.Rect, error)
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, pageIndex int) ([]model.Rect, error)

// FindTables calls f.
func (f FinderFunc) FindTables(ctx context.Context, pageIndex int) ([]model.Rect, error) {
	return f(ctx, pageIndex)
}

// Flagged is a table that contains marked text.
type Flagged struct {
	// Index is the table's position in the finder result.
	Index int
	BBox  model.Rect
}

// CrossReferencer decides which tables on a page contain marked text.
type CrossReferencer struct {
	marked model.RGB
}

// NewCrossReferencer creates a cross-referencer for the given marked colour.
func NewCrossReferencer(marked model.RGB) *CrossReferencer {
	return &CrossReferencer{marked: marked}
}

// Flag returns, in input order, the tables that intersect a block holding
// at least one span in the marked colour. Every span counts, including
// bullet glyphs.
func (x *CrossReferencer) Flag(page *model.Page, tables []model.Rect) []Flagged {
	if page == nil || len(tables) == 0 || len(page.Blocks) == 0 {
		return nil
	}

	var tr rtree.RTreeG[int]
	for i, b := range page.Blocks {
		if b.BBox.IsEmpty() {
			continue
		}
		tr.Insert([2]float64{b.BBox.X0, b.BBox.Y0}, [2]float64{b.BBox.X1, b.BBox.Y1}, i)
	}

	var flagged []Flagged
	for ti, t := range tables {
		if t.IsEmpty() {
			continue
		}
		hit := false
		tr.Search([2]float64{t.X0, t.Y0}, [2]float64{t.X1, t.Y1}, func(_, _ [2]float64, bi int) bool {
			// The tree also reports rectangles that only touch.
			b := page.Blocks[bi]
			if b.BBox.Intersects(t) && x.hasMarked(b) {
				hit = true
				return false
			}
			return true
		})
		if hit {
			flagged = append(flagged, Flagged{Index: ti, BBox: t})
		}
	}
	return flagged
}

func (x *CrossReferencer) hasMarked(b model.Block) bool {
	for _, l := range b.Lines {
		for _, s := range l.Spans {
			if s.Color == x.marked {
				return true
			}
		}
	}
	return false
}
