package flow

import (
	"fmt"
	"io"

	"github.com/tsawler/redline/docx"
	"github.com/tsawler/redline/htmldoc"
	"github.com/tsawler/redline/model"
)

// NoContentText is the only paragraph of a body assembled from no rasters.
const NoContentText = "No red text content was found in the PDF file."

// Layout converts page points to flow inches.
type Layout struct {
	// PixelsPerInch divides page coordinates to get inches (default: 86)
	PixelsPerInch float64

	// MaxWidthInches caps picture width (default: 6)
	MaxWidthInches float64
}

// DefaultLayout returns the layout used for Letter output with one inch
// margins.
func DefaultLayout() Layout {
	return Layout{
		PixelsPerInch:  86,
		MaxWidthInches: 6.0,
	}
}

// Element is one picture paragraph.
type Element struct {
	Raster       model.Raster
	IndentInches float64
	WidthInches  float64
	HeightInches float64
	AltText      string
}

// Body is an assembled flow document.
type Body struct {
	Title string

	// Placeholder is set only when Elements is empty
	Placeholder string

	Elements []Element
}

// Assemble lays rasters out with DefaultLayout.
func Assemble(rasters []model.Raster) Body {
	return DefaultLayout().Assemble(rasters)
}

// Assemble converts rasters, in order, to picture elements.
func (l Layout) Assemble(rasters []model.Raster) Body {
	if l.PixelsPerInch <= 0 {
		l.PixelsPerInch = DefaultLayout().PixelsPerInch
	}
	if l.MaxWidthInches <= 0 {
		l.MaxWidthInches = DefaultLayout().MaxWidthInches
	}

	if len(rasters) == 0 {
		return Body{Placeholder: NoContentText}
	}

	body := Body{Elements: make([]Element, 0, len(rasters))}
	for _, r := range rasters {
		body.Elements = append(body.Elements, l.element(r))
	}
	return body
}

func (l Layout) element(r model.Raster) Element {
	w, h := r.BBox.Width(), r.BBox.Height()
	width := min(w/l.PixelsPerInch, l.MaxWidthInches)

	var height float64
	if w > 0 {
		height = width * h / w
	}
	return Element{
		Raster:       r,
		IndentInches: r.BBox.X0 / l.PixelsPerInch,
		WidthInches:  width,
		HeightInches: height,
	}
}

// Empty reports whether the body holds no pictures.
func (b Body) Empty() bool {
	return len(b.Elements) == 0
}

// AltTexter produces alternative text for an encoded region image.
type AltTexter interface {
	AltText(data []byte) (string, error)
}

// Describe fills in the alt text of every element. It stops at the first
// error, leaving the remaining elements without alt text.
func (b *Body) Describe(a AltTexter) error {
	for i := range b.Elements {
		text, err := a.AltText(b.Elements[i].Raster.Data)
		if err != nil {
			return fmt.Errorf("describing element %d: %w", i+1, err)
		}
		b.Elements[i].AltText = text
	}
	return nil
}

// WriteDOCX writes the body as a Word document.
func (b Body) WriteDOCX(w io.Writer) error {
	builder := docx.NewBuilder().SetTitle(b.Title)
	if b.Empty() && b.Placeholder != "" {
		builder.AddParagraph(b.Placeholder)
	}
	for i, el := range b.Elements {
		err := builder.AddPicture(docx.Picture{
			Data:         el.Raster.Data,
			Format:       el.Raster.Format,
			WidthInches:  el.WidthInches,
			HeightInches: el.HeightInches,
			IndentInches: el.IndentInches,
			AltText:      el.AltText,
		})
		if err != nil {
			return fmt.Errorf("adding element %d: %w", i+1, err)
		}
	}
	return builder.Write(w)
}

// WriteHTML writes the body as a self-contained HTML page.
func (b Body) WriteHTML(w io.Writer) error {
	writer := htmldoc.NewWriter().SetTitle(b.Title)
	if b.Empty() && b.Placeholder != "" {
		writer.AddParagraph(b.Placeholder)
	}
	for i, el := range b.Elements {
		err := writer.AddImage(htmldoc.Image{
			Data:         el.Raster.Data,
			Format:       el.Raster.Format,
			WidthInches:  el.WidthInches,
			HeightInches: el.HeightInches,
			IndentInches: el.IndentInches,
			AltText:      el.AltText,
		})
		if err != nil {
			return fmt.Errorf("adding element %d: %w", i+1, err)
		}
	}
	return writer.Write(w)
}
