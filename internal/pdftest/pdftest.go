// Package pdftest builds small, valid PDF files for tests.
//
// Every page gets a Helvetica font resource named F1 and, optionally, a set
// of 1x1 grey image XObjects named Im1..ImN that content can paint with Do.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one page of a generated document.
type Page struct {
	Width, Height float64
	Content       string
	Images        int
}

// Letter returns a US Letter page with the given content stream.
func Letter(content string) Page {
	return Page{Width: 612, Height: 792, Content: content}
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) object(body string) {
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", len(b.offsets), body)
}

func (b *builder) stream(dict, data string) {
	b.object(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

// Build returns the bytes of a PDF containing the given pages.
func Build(pages ...Page) []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.4\n")

	// Object numbers: 1 catalog, 2 page tree, 3 font, then per page the page
	// object, its content stream and its images.
	const firstPage = 4
	kids := make([]string, len(pages))
	num := firstPage
	for i, p := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", num)
		num += 2 + p.Images
	}

	b.object("<< /Type /Catalog /Pages 2 0 R >>")
	b.object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	num = firstPage
	for _, p := range pages {
		contentNum := num + 1
		var xobjects string
		for i := 0; i < p.Images; i++ {
			xobjects += fmt.Sprintf(" /Im%d %d 0 R", i+1, contentNum+1+i)
		}
		resources := "/Font << /F1 3 0 R >>"
		if xobjects != "" {
			resources += " /XObject <<" + xobjects + " >>"
		}
		b.object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << %s >> /Contents %d 0 R >>",
			p.Width, p.Height, resources, contentNum))
		b.stream("", p.Content)
		for i := 0; i < p.Images; i++ {
			b.stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x80")
		}
		num += 2 + p.Images
	}

	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.offsets)+1)
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.offsets)+1, xref)
	return b.buf.Bytes()
}

// Text returns a content stream that paints s at (x, y) in Helvetica with
// the given size and fill colour (0-255 components).
func Text(x, y, size float64, r, g, bl uint8, s string) string {
	return fmt.Sprintf("BT /F1 %g Tf %.4f %.4f %.4f rg %g %g Td (%s) Tj ET\n",
		size, float64(r)/255, float64(g)/255, float64(bl)/255, x, y, s)
}

// Image returns a content stream that paints image XObject n in the given
// PDF-space rectangle.
func Image(n int, x, y, w, h float64) string {
	return fmt.Sprintf("q %g 0 0 %g %g %g cm /Im%d Do Q\n", w, h, x, y, n)
}

// Rule returns a content stream that strokes a line.
func Rule(x0, y0, x1, y1 float64) string {
	return fmt.Sprintf("%g %g m %g %g l S\n", x0, y0, x1, y1)
}

// Grid returns a content stream stroking a ruled table with the given
// column and row boundaries.
func Grid(xs, ys []float64) string {
	var s string
	for _, y := range ys {
		s += Rule(xs[0], y, xs[len(xs)-1], y)
	}
	for _, x := range xs {
		s += Rule(x, ys[0], x, ys[len(ys)-1])
	}
	return s
}
