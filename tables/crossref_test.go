package tables

import (
	"context"
	"testing"

	"github.com/tsawler/redline/model"
)

var (
	red   = model.RGB{R: 218, G: 31, B: 51}
	black = model.RGB{}
)

// makeBlock creates a single-span block
func makeBlock(txt string, color model.RGB, bbox model.Rect) model.Block {
	return model.Block{
		BBox: bbox,
		Lines: []model.Line{{
			BBox: bbox,
			Spans: []model.Span{{
				Text:     txt,
				FontName: "TimesNewRomanPSMT",
				FontSize: 9,
				Color:    color,
				BBox:     bbox,
			}},
		}},
	}
}

func makePage(blocks ...model.Block) *model.Page {
	page := model.NewPage(0, 612, 792)
	for _, b := range blocks {
		page.AddBlock(b)
	}
	return page
}

func TestFlag_MarkedBlockInsideTable(t *testing.T) {
	page := makePage(
		makeBlock("cell", red, model.Rect{X0: 120, Y0: 210, X1: 180, Y1: 220}),
	)
	tables := []model.Rect{{X0: 100, Y0: 200, X1: 400, Y1: 300}}

	flagged := NewCrossReferencer(red).Flag(page, tables)
	if len(flagged) != 1 {
		t.Fatalf("expected 1 flagged table, got %d", len(flagged))
	}
	if flagged[0].Index != 0 || flagged[0].BBox != tables[0] {
		t.Errorf("flagged = %+v", flagged[0])
	}
}

func TestFlag_UnmarkedBlockIgnored(t *testing.T) {
	page := makePage(
		makeBlock("cell", black, model.Rect{X0: 120, Y0: 210, X1: 180, Y1: 220}),
	)
	tables := []model.Rect{{X0: 100, Y0: 200, X1: 400, Y1: 300}}

	if flagged := NewCrossReferencer(red).Flag(page, tables); len(flagged) != 0 {
		t.Errorf("expected no flagged tables, got %+v", flagged)
	}
}

func TestFlag_NearMissColourIgnored(t *testing.T) {
	page := makePage(
		makeBlock("cell", model.RGB{R: 219, G: 31, B: 51}, model.Rect{X0: 120, Y0: 210, X1: 180, Y1: 220}),
	)
	tables := []model.Rect{{X0: 100, Y0: 200, X1: 400, Y1: 300}}

	if flagged := NewCrossReferencer(red).Flag(page, tables); len(flagged) != 0 {
		t.Errorf("expected no flagged tables, got %+v", flagged)
	}
}

func TestFlag_TouchingIsNotIntersecting(t *testing.T) {
	page := makePage(
		makeBlock("below", red, model.Rect{X0: 120, Y0: 300, X1: 180, Y1: 310}),
	)
	tables := []model.Rect{{X0: 100, Y0: 200, X1: 400, Y1: 300}}

	if flagged := NewCrossReferencer(red).Flag(page, tables); len(flagged) != 0 {
		t.Errorf("expected no flagged tables for an edge contact, got %+v", flagged)
	}
}

func TestFlag_BulletCounts(t *testing.T) {
	page := makePage(
		makeBlock("•", red, model.Rect{X0: 120, Y0: 210, X1: 125, Y1: 220}),
	)
	tables := []model.Rect{{X0: 100, Y0: 200, X1: 400, Y1: 300}}

	if flagged := NewCrossReferencer(red).Flag(page, tables); len(flagged) != 1 {
		t.Errorf("expected bullet span to flag the table, got %d", len(flagged))
	}
}

func TestFlag_MultipleTablesKeepOrder(t *testing.T) {
	page := makePage(
		makeBlock("a", red, model.Rect{X0: 120, Y0: 110, X1: 180, Y1: 120}),
		makeBlock("b", black, model.Rect{X0: 120, Y0: 410, X1: 180, Y1: 420}),
		makeBlock("c", red, model.Rect{X0: 120, Y0: 610, X1: 180, Y1: 620}),
	)
	tables := []model.Rect{
		{X0: 100, Y0: 100, X1: 400, Y1: 200},
		{X0: 100, Y0: 400, X1: 400, Y1: 500},
		{X0: 100, Y0: 600, X1: 400, Y1: 700},
	}

	flagged := NewCrossReferencer(red).Flag(page, tables)
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged tables, got %d", len(flagged))
	}
	if flagged[0].Index != 0 || flagged[1].Index != 2 {
		t.Errorf("flagged indexes = %d, %d; want 0, 2", flagged[0].Index, flagged[1].Index)
	}
}

func TestFlag_Empty(t *testing.T) {
	x := NewCrossReferencer(red)
	if got := x.Flag(nil, []model.Rect{{X1: 1, Y1: 1}}); got != nil {
		t.Errorf("nil page: got %+v", got)
	}
	if got := x.Flag(makePage(), nil); got != nil {
		t.Errorf("no tables: got %+v", got)
	}
}

func TestFinderFunc(t *testing.T) {
	want := []model.Rect{{X0: 1, Y0: 2, X1: 3, Y1: 4}}
	var f Finder = FinderFunc(func(_ context.Context, pageIndex int) ([]model.Rect, error) {
		if pageIndex != 7 {
			t.Errorf("pageIndex = %d, want 7", pageIndex)
		}
		return want, nil
	})

	got, err := f.FindTables(context.Background(), 7)
	if err != nil || len(got) != 1 || got[0] != want[0] {
		t.Errorf("FindTables = %+v, %v", got, err)
	}
}
