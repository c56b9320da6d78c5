package classify

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/tables"
)

var (
	red   = model.RGB{R: 218, G: 31, B: 51}
	black = model.RGB{}
	grey  = model.RGB{R: 90, G: 90, B: 90}
)

// ============================================================================
// Helpers
// ============================================================================

// makeSpan creates a span with the given typography
func makeSpan(txt string, size float64, font string, color model.RGB) model.Span {
	return model.Span{Text: txt, FontName: font, FontSize: size, Color: color}
}

// makeBlock creates a single-line block at the given vertical position
func makeBlock(y0, y1 float64, spans ...model.Span) model.Block {
	bbox := model.Rect{X0: 72, Y0: y0, X1: 540, Y1: y1}
	for i := range spans {
		spans[i].BBox = bbox
	}
	return model.Block{
		BBox:  bbox,
		Lines: []model.Line{{BBox: bbox, Spans: spans}},
	}
}

func makePage(index int, blocks ...model.Block) *model.Page {
	page := model.NewPage(index, 612, 792)
	for _, b := range blocks {
		page.AddBlock(b)
	}
	return page
}

func body(txt string, color model.RGB) model.Span {
	return makeSpan(txt, 10, "TimesNewRomanPSMT", color)
}

func h2(txt string, color model.RGB) model.Span {
	return makeSpan(txt, 11, "Arial-BoldMT", color)
}

func h3(txt string, color model.RGB) model.Span {
	return makeSpan(txt, 10, "Arial-BoldMT", color)
}

func classify(t *testing.T, c *Classifier, page *model.Page, hc HeadingContext) ([]model.Region, HeadingContext) {
	t.Helper()
	regions, hc, err := c.ClassifyPage(context.Background(), page, hc)
	if err != nil {
		t.Fatalf("ClassifyPage failed: %v", err)
	}
	return regions, hc
}

func kinds(regions []model.Region) []model.RegionKind {
	out := make([]model.RegionKind, len(regions))
	for i, r := range regions {
		out[i] = r.Kind
	}
	return out
}

func assertKinds(t *testing.T, regions []model.Region, want ...model.RegionKind) {
	t.Helper()
	got := kinds(regions)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

// countingFinder returns fixed rectangles and counts calls
type countingFinder struct {
	rects []model.Rect
	err   error
	calls int
}

func (f *countingFinder) FindTables(_ context.Context, _ int) ([]model.Rect, error) {
	f.calls++
	return f.rects, f.err
}

// ============================================================================
// Marked text
// ============================================================================

func TestClassifyPage_MarkedBlock(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(3, makeBlock(100, 112, body("Important", red)))

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText)

	r := regions[0]
	if r.Page != 3 {
		t.Errorf("Page = %d, want 3", r.Page)
	}
	if r.BBox != page.Blocks[0].BBox {
		t.Errorf("BBox = %+v, want block bbox", r.BBox)
	}
	if r.Detail != nil {
		t.Errorf("Detail = %#v, want nil", r.Detail)
	}
}

func TestClassifyPage_ExactColourOnly(t *testing.T) {
	c := New(DefaultConfig())
	nearMisses := []model.RGB{
		{R: 217, G: 31, B: 51},
		{R: 219, G: 31, B: 51},
		{R: 218, G: 30, B: 51},
		{R: 218, G: 32, B: 51},
		{R: 218, G: 31, B: 50},
		{R: 218, G: 31, B: 52},
	}

	for _, col := range nearMisses {
		page := makePage(0, makeBlock(100, 112, body("almost", col)))
		regions, _ := classify(t, c, page, HeadingContext{})
		if len(regions) != 0 {
			t.Errorf("colour %+v produced %v", col, kinds(regions))
		}
	}
}

func TestClassifyPage_BulletsIgnored(t *testing.T) {
	c := New(DefaultConfig())
	for _, bullet := range []string{"•", "●", "∙", "–"} {
		page := makePage(0, makeBlock(100, 112,
			body(bullet, red),
			body(" list item", black),
		))
		regions, _ := classify(t, c, page, HeadingContext{})
		if len(regions) != 0 {
			t.Errorf("bullet %q produced %v", bullet, kinds(regions))
		}
	}
}

func TestClassifyPage_BulletWithMarkedText(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(100, 112,
		body("•", red),
		body("marked item", red),
	))

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText)
}

func TestClassifyPage_MissingMetadataNeverErrors(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0,
		makeBlock(100, 112, makeSpan("no font", 0, "", red)),
		makeBlock(200, 212, makeSpan("no size", 0, "Arial-BoldMT", black)),
	)

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText)
}

func TestClassifyPage_NilPage(t *testing.T) {
	regions, hc, err := New(DefaultConfig()).ClassifyPage(context.Background(), nil, HeadingContext{Level2Active: true})
	if err != nil || regions != nil || !hc.Level2Active {
		t.Errorf("got %v, %+v, %v", regions, hc, err)
	}
}

func TestClassifyPage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(DefaultConfig()).ClassifyPage(ctx, makePage(0), HeadingContext{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ============================================================================
// Headings
// ============================================================================

func TestClassifyPage_UnmarkedHeading2Captured(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(100, 113, h2("1.2 Methods", black)))

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.Heading2)
	if !hc.Level2Active {
		t.Error("expected Level2Active after heading capture")
	}
	if hc.Level2MarkedDone {
		t.Error("Level2MarkedDone should be false for an unmarked heading")
	}
}

func TestClassifyPage_UnmarkedHeading3Captured(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(100, 112, h3("1.2.1 Detail", black)))

	regions, hc := classify(t, c, page, HeadingContext{Level2Active: true})
	assertKinds(t, regions, model.Heading3)
	if !hc.Level3Active || !hc.Level2Active {
		t.Errorf("context = %+v, want both levels active", hc)
	}
}

func TestClassifyPage_MarkedHeading2(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(100, 113, h2("1.2 Methods", red)))

	regions, hc := classify(t, c, page, HeadingContext{Level2Active: true, Level3Active: true})
	for _, r := range regions {
		if r.Kind == model.Heading2 {
			t.Fatal("marked heading must not be captured as a heading region")
		}
	}
	assertKinds(t, regions, model.MarkedText)
	if !hc.Level2MarkedDone {
		t.Error("expected Level2MarkedDone")
	}
	if hc.Level2Active || hc.Level3Active {
		t.Errorf("context = %+v, want heading levels reset", hc)
	}
}

func TestClassifyPage_MarkedHeading3KeepsLevel2(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(100, 112, h3("1.2.1 Detail", red)))

	_, hc := classify(t, c, page, HeadingContext{Level2Active: true, Level3Active: true})
	if !hc.Level3MarkedDone {
		t.Error("expected Level3MarkedDone")
	}
	if !hc.Level2Active || hc.Level3Active {
		t.Errorf("context = %+v, want Level2Active only", hc)
	}
}

func TestClassifyPage_MarkedDoneResetsPerBlock(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0,
		makeBlock(100, 113, h2("1.2 Methods", red)),
		makeBlock(200, 213, h2("1.3 Results", black)),
	)

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText, model.Heading2)
	if hc.Level2MarkedDone {
		t.Error("Level2MarkedDone leaked from the previous block")
	}
	if !hc.Level2Active {
		t.Error("expected Level2Active after the unmarked heading")
	}
}

func TestClassifyPage_ChapterBoundary(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(50, 64,
		makeSpan("Chapter 4", 12, "Arial-Black", black),
		h2("4.1 Overview", black),
	))

	regions, hc := classify(t, c, page, HeadingContext{Level2Active: true, Level3Active: true})
	if len(regions) != 0 {
		t.Errorf("chapter block produced %v", kinds(regions))
	}
	if hc.Level2Active || hc.Level3Active {
		t.Errorf("context = %+v, want both levels reset", hc)
	}
}

func TestClassifyPage_LevelsPersistAcrossPages(t *testing.T) {
	c := New(DefaultConfig())

	_, hc := classify(t, c, makePage(0, makeBlock(100, 113, h2("1.2 Methods", black))), HeadingContext{})
	_, hc = classify(t, c, makePage(1, makeBlock(100, 112, body("plain", black))), hc)

	if !hc.Level2Active {
		t.Error("Level2Active should persist onto the next page")
	}
}

// ============================================================================
// Formulas and titles
// ============================================================================

func TestClassifyPage_FormulaShrink(t *testing.T) {
	c := New(DefaultConfig())
	for _, size := range []float64{8, 10.5} {
		block := makeBlock(200, 220, makeSpan("x²", size, "CambriaMath", red))
		regions, _ := classify(t, c, makePage(0, block), HeadingContext{})
		assertKinds(t, regions, model.Formula)

		r := regions[0]
		if math.Abs(r.BBox.Y0-200.4) > 1e-9 || math.Abs(r.BBox.Y1-219.6) > 1e-9 {
			t.Errorf("size %v: bbox = %+v, want y 200.4..219.6", size, r.BBox)
		}
		if r.BBox.X0 != block.BBox.X0 || r.BBox.X1 != block.BBox.X1 {
			t.Errorf("size %v: horizontal bounds changed: %+v", size, r.BBox)
		}
		detail, ok := r.Detail.(model.FormulaDetail)
		if !ok || detail.Original != block.BBox {
			t.Errorf("size %v: detail = %#v", size, r.Detail)
		}
	}
}

func TestClassifyPage_BlackTitle(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0,
		makeBlock(50, 90, makeSpan("Statistics", 36, "Arial-Black", black)),
		makeBlock(100, 116, makeSpan("Part One", 14, "Arial-Black", black)),
		makeBlock(120, 136, makeSpan("grey title", 14, "Arial-Black", grey)),
		makeBlock(140, 156, makeSpan("light", 14, "Arial-Light", black)),
	)

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.Title, model.Title)
}

func TestClassifyPage_BlackTitleOnlyWhenNothingElse(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(50, 90,
		makeSpan("Statistics", 36, "Arial-Black", black),
		body("marked note", red),
	))

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText)
}

// ============================================================================
// Figures
// ============================================================================

func figureTitle(color model.RGB) model.Span {
	return makeSpan("Figure 3.1", 12, "Arial-BoldMT", color)
}

func TestClassifyPage_FigureSkipsLastImage(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(400, 414, figureTitle(red)))
	page.Images = []model.Rect{
		{X0: 72, Y0: 100, X1: 300, Y1: 200},
		{X0: 300, Y0: 100, X1: 540, Y1: 200},
		{X0: 0, Y0: 700, X1: 612, Y1: 792},
	}

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.FigureTitle, model.Figure, model.Figure)
	for i, r := range regions[1:] {
		if r.BBox != page.Images[i] {
			t.Errorf("figure %d bbox = %+v, want %+v", i, r.BBox, page.Images[i])
		}
		if d, ok := r.Detail.(model.FigureDetail); !ok || d.ImageIndex != i {
			t.Errorf("figure %d detail = %#v", i, r.Detail)
		}
	}
	if !hc.FigureShownOnPage {
		t.Error("expected FigureShownOnPage")
	}
}

func TestClassifyPage_SecondFigureTitleAddsNothing(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0,
		makeBlock(400, 414, figureTitle(red)),
		makeBlock(600, 614, figureTitle(red)),
	)
	page.Images = []model.Rect{
		{X0: 72, Y0: 100, X1: 300, Y1: 200},
		{X0: 0, Y0: 700, X1: 612, Y1: 792},
	}

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.FigureTitle, model.Figure)
}

func TestClassifyPage_FigureWithoutImages(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(400, 414, figureTitle(red)))

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.FigureTitle)
	if !hc.FigureShownOnPage {
		t.Error("FigureShownOnPage should be set even without images")
	}
}

func TestClassifyPage_UnmarkedFigureTitleIgnored(t *testing.T) {
	c := New(DefaultConfig())
	page := makePage(0, makeBlock(400, 414, figureTitle(black)))
	page.Images = []model.Rect{{X0: 1, Y0: 1, X1: 2, Y1: 2}, {X0: 3, Y0: 3, X1: 4, Y1: 4}}

	regions, _ := classify(t, c, page, HeadingContext{})
	if len(regions) != 0 {
		t.Errorf("unmarked figure title produced %v", kinds(regions))
	}
}

func TestClassifyPage_FigureFlagResetsPerPage(t *testing.T) {
	c := New(DefaultConfig())

	_, hc := classify(t, c, makePage(0, makeBlock(400, 414, figureTitle(red))), HeadingContext{})
	regions, _ := classify(t, c, makePage(1, makeBlock(400, 414, figureTitle(red))), hc)
	assertKinds(t, regions, model.FigureTitle)
}

// ============================================================================
// Tables
// ============================================================================

func tableCell(txt string) model.Span {
	return makeSpan(txt, 9, "TimesNewRomanPSMT", red)
}

func TestClassifyPage_TableOncePerPage(t *testing.T) {
	finder := &countingFinder{rects: []model.Rect{{X0: 50, Y0: 90, X1: 560, Y1: 400}}}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	page := makePage(0,
		makeBlock(100, 110, tableCell("row one")),
		makeBlock(150, 160, tableCell("row two")),
		makeBlock(200, 210, tableCell("row three")),
	)

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.Table)
	if finder.calls != 1 {
		t.Errorf("finder called %d times, want 1", finder.calls)
	}
	if d, ok := regions[0].Detail.(model.TableDetail); !ok || d.TableIndex != 0 {
		t.Errorf("detail = %#v", regions[0].Detail)
	}
	if !hc.TableHandledOnPage {
		t.Error("expected TableHandledOnPage")
	}
}

func TestClassifyPage_TableBodyOutsideTableStillSkipped(t *testing.T) {
	finder := &countingFinder{rects: []model.Rect{{X0: 50, Y0: 90, X1: 560, Y1: 130}}}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	page := makePage(0,
		makeBlock(100, 110, tableCell("in table")),
		makeBlock(500, 510, makeSpan("body", 9, "TimesNewRomanPS-BoldMT", red)),
		makeBlock(600, 612, body("regular marked", red)),
	)

	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.Table, model.MarkedText)
	if regions[1].BBox.Y0 != 600 {
		t.Errorf("second region = %+v, want the regular marked block", regions[1])
	}
}

func TestClassifyPage_EmptyFinderResultAllowsRetry(t *testing.T) {
	finder := &countingFinder{}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	page := makePage(0,
		makeBlock(100, 110, tableCell("one")),
		makeBlock(150, 160, tableCell("two")),
	)

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText, model.MarkedText)
	if finder.calls != 2 {
		t.Errorf("finder called %d times, want 2", finder.calls)
	}
	if hc.TableHandledOnPage {
		t.Error("TableHandledOnPage should stay false without tables")
	}
}

func TestClassifyPage_UnflaggedTableEndsScan(t *testing.T) {
	finder := &countingFinder{rects: []model.Rect{{X0: 50, Y0: 700, X1: 560, Y1: 780}}}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	page := makePage(0,
		makeBlock(100, 110, tableCell("one")),
		makeBlock(150, 160, tableCell("two")),
	)

	regions, hc := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText, model.MarkedText)
	if finder.calls != 1 {
		t.Errorf("finder called %d times, want 1", finder.calls)
	}
	if hc.TableHandledOnPage {
		t.Error("TableHandledOnPage should be false when no table was flagged")
	}
}

func TestClassifyPage_YearTrigger(t *testing.T) {
	finder := &countingFinder{rects: []model.Rect{{X0: 50, Y0: 90, X1: 560, Y1: 400}}}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	notYear := makePage(0, makeBlock(100, 114, makeSpan("Source", 12, "Arial-ItalicMT", red)))
	classify(t, c, notYear, HeadingContext{})
	if finder.calls != 0 {
		t.Fatalf("non-year italic text triggered the table pass")
	}

	year := makePage(0, makeBlock(100, 114, makeSpan("2024", 12, "Arial-ItalicMT", red)))
	regions, _ := classify(t, c, year, HeadingContext{})
	if finder.calls != 1 {
		t.Errorf("finder called %d times, want 1", finder.calls)
	}
	assertKinds(t, regions, model.Table, model.MarkedText)
}

func TestClassifyPage_TableTriggerRequiresMarkedSpan(t *testing.T) {
	finder := &countingFinder{rects: []model.Rect{{X0: 50, Y0: 90, X1: 560, Y1: 400}}}
	cfg := DefaultConfig()
	cfg.Finder = finder
	c := New(cfg)

	page := makePage(0, makeBlock(100, 110,
		makeSpan("cell", 9, "TimesNewRomanPSMT", black),
		body("note", red),
	))

	classify(t, c, page, HeadingContext{})
	if finder.calls != 0 {
		t.Errorf("unmarked trigger span started the table pass")
	}
}

func TestClassifyPage_TableFlagResetsPerPage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Finder = &countingFinder{}
	c := New(cfg)

	page := makePage(1, makeBlock(100, 110, tableCell("cell")))
	regions, _ := classify(t, c, page, HeadingContext{TableHandledOnPage: true})
	assertKinds(t, regions, model.MarkedText)
}

func TestClassifyPage_FinderErrorLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := DefaultConfig()
	cfg.Logger = logger
	cfg.Finder = &countingFinder{err: errors.New("broken content stream")}
	c := New(cfg)

	regions, _ := classify(t, c, makePage(4, makeBlock(100, 110, tableCell("cell"))), HeadingContext{})
	assertKinds(t, regions, model.MarkedText)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
			if e.Data["page"] != 5 {
				t.Errorf("page field = %v, want 5", e.Data["page"])
			}
		}
	}
	if !warned {
		t.Error("expected a warning for the finder error")
	}
}

func TestClassifyPage_FinderPanicRecovered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Finder = tables.FinderFunc(func(context.Context, int) ([]model.Rect, error) {
		panic("malformed geometry")
	})
	c := New(cfg)

	regions, hc := classify(t, c, makePage(0, makeBlock(100, 110, tableCell("cell"))), HeadingContext{})
	assertKinds(t, regions, model.MarkedText)
	if hc.TableHandledOnPage {
		t.Error("a panicking finder must not mark the table handled")
	}
}

func TestClassifyPage_PageNoticeLoggedOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cfg := DefaultConfig()
	cfg.Logger = logger
	c := New(cfg)

	page := makePage(0,
		makeBlock(100, 112, body("one", red)),
		makeBlock(200, 212, body("two", red)),
	)
	classify(t, c, page, HeadingContext{})

	infos := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			infos++
		}
	}
	if infos != 1 {
		t.Errorf("logged %d page notices, want 1", infos)
	}
}
