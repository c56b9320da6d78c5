package flow

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/tsawler/redline/docx"
	"github.com/tsawler/redline/htmldoc"
	"github.com/tsawler/redline/model"
)

var testPNG = []byte("\x89PNG\r\n\x1a\nfake")

func makeRaster(x0, y0, x1, y1 float64) model.Raster {
	return model.Raster{
		Data:   testPNG,
		Format: "png",
		BBox:   model.NewRect(x0, y0, x1, y1),
		Kind:   model.MarkedText,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssemble_Empty(t *testing.T) {
	body := Assemble(nil)
	if !body.Empty() {
		t.Fatalf("expected no elements, got %d", len(body.Elements))
	}
	if body.Placeholder != NoContentText {
		t.Errorf("Placeholder = %q", body.Placeholder)
	}
}

func TestAssemble_Geometry(t *testing.T) {
	body := Assemble([]model.Raster{makeRaster(86, 10, 258, 53)})
	if len(body.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(body.Elements))
	}
	if body.Placeholder != "" {
		t.Errorf("Placeholder should be empty, got %q", body.Placeholder)
	}

	el := body.Elements[0]
	if !approx(el.IndentInches, 1) {
		t.Errorf("IndentInches = %v, want 1", el.IndentInches)
	}
	if !approx(el.WidthInches, 2) {
		t.Errorf("WidthInches = %v, want 2", el.WidthInches)
	}
	if !approx(el.HeightInches, 0.5) {
		t.Errorf("HeightInches = %v, want 0.5", el.HeightInches)
	}
}

func TestAssemble_WidthCap(t *testing.T) {
	// 1032 points is 12 inches at 86 per inch.
	body := Assemble([]model.Raster{makeRaster(0, 0, 1032, 86)})
	el := body.Elements[0]
	if !approx(el.WidthInches, 6) {
		t.Errorf("WidthInches = %v, want 6", el.WidthInches)
	}
	if !approx(el.HeightInches, 0.5) {
		t.Errorf("HeightInches = %v, want 0.5 (aspect preserved)", el.HeightInches)
	}
}

func TestAssemble_KeepsOrder(t *testing.T) {
	rasters := []model.Raster{
		makeRaster(0, 50, 86, 60),
		makeRaster(172, 120, 258, 130),
	}
	body := Assemble(rasters)
	if len(body.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(body.Elements))
	}
	if body.Elements[0].Raster.BBox.Y0 != 50 || body.Elements[1].Raster.BBox.Y0 != 120 {
		t.Errorf("element order changed")
	}
}

func TestLayout_CustomAndZero(t *testing.T) {
	l := Layout{PixelsPerInch: 72, MaxWidthInches: 1}
	el := l.Assemble([]model.Raster{makeRaster(72, 0, 216, 72)}).Elements[0]
	if !approx(el.IndentInches, 1) || !approx(el.WidthInches, 1) || !approx(el.HeightInches, 0.5) {
		t.Errorf("custom layout element = %+v", el)
	}

	el = Layout{}.Assemble([]model.Raster{makeRaster(86, 0, 172, 86)}).Elements[0]
	if !approx(el.IndentInches, 1) || !approx(el.WidthInches, 1) {
		t.Errorf("zero layout should fall back to defaults, got %+v", el)
	}
}

func TestBody_WriteDOCX_Placeholder(t *testing.T) {
	var buf bytes.Buffer
	if err := Assemble(nil).WriteDOCX(&buf); err != nil {
		t.Fatalf("WriteDOCX failed: %v", err)
	}
	r, err := docx.OpenBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	paras := r.Paragraphs()
	if len(paras) != 1 || paras[0].Text != NoContentText {
		t.Errorf("paragraphs = %+v", paras)
	}
	if r.PictureCount() != 0 {
		t.Errorf("PictureCount() = %d, want 0", r.PictureCount())
	}
}

func TestBody_WriteDOCX_Pictures(t *testing.T) {
	body := Assemble([]model.Raster{
		makeRaster(86, 0, 258, 43),
		makeRaster(0, 100, 86, 186),
	})
	body.Title = "report"

	var buf bytes.Buffer
	if err := body.WriteDOCX(&buf); err != nil {
		t.Fatalf("WriteDOCX failed: %v", err)
	}
	r, err := docx.OpenBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	paras := r.Paragraphs()
	if len(paras) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paras))
	}
	if paras[0].IndentTwips != 1440 || paras[0].Alignment != "left" {
		t.Errorf("first paragraph indent/alignment = %d/%q", paras[0].IndentTwips, paras[0].Alignment)
	}
	if got := paras[0].Pictures[0].WidthEMU; got != 2*docx.EMUPerInch {
		t.Errorf("first picture width = %d EMU", got)
	}
	if paras[1].IndentTwips != 0 {
		t.Errorf("second paragraph indent = %d", paras[1].IndentTwips)
	}
	if r.Title() != "report" {
		t.Errorf("Title() = %q", r.Title())
	}
}

func TestBody_WriteHTML(t *testing.T) {
	body := Assemble([]model.Raster{makeRaster(43, 0, 129, 43)})

	var buf bytes.Buffer
	if err := body.WriteHTML(&buf); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}
	doc, err := htmldoc.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(doc.Images))
	}
	if doc.Images[0].Style != "width:1.000in;height:0.500in" {
		t.Errorf("Style = %q", doc.Images[0].Style)
	}

	buf.Reset()
	if err := Assemble(nil).WriteHTML(&buf); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}
	doc, err = htmldoc.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Paragraphs) != 1 || doc.Paragraphs[0] != NoContentText {
		t.Errorf("Paragraphs = %q", doc.Paragraphs)
	}
}

func TestBody_WriteDOCX_BadRaster(t *testing.T) {
	r := makeRaster(0, 0, 10, 10)
	r.Format = "tiff"
	if err := Assemble([]model.Raster{r}).WriteDOCX(&bytes.Buffer{}); err == nil {
		t.Error("expected error for unsupported raster format")
	}
}

type fakeAltTexter struct {
	calls int
	fail  int
}

func (f *fakeAltTexter) AltText(data []byte) (string, error) {
	f.calls++
	if f.calls == f.fail {
		return "", errors.New("boom")
	}
	return "text", nil
}

func TestBody_Describe(t *testing.T) {
	body := Assemble([]model.Raster{makeRaster(0, 0, 10, 10), makeRaster(0, 20, 10, 30)})
	if err := body.Describe(&fakeAltTexter{}); err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	for i, el := range body.Elements {
		if el.AltText != "text" {
			t.Errorf("element %d AltText = %q", i, el.AltText)
		}
	}

	body = Assemble([]model.Raster{makeRaster(0, 0, 10, 10), makeRaster(0, 20, 10, 30)})
	if err := body.Describe(&fakeAltTexter{fail: 2}); err == nil {
		t.Error("expected error from failing AltTexter")
	}
	if body.Elements[0].AltText != "text" || body.Elements[1].AltText != "" {
		t.Errorf("unexpected alt text after failure: %+v", body.Elements)
	}
}
