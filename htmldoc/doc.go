// Package htmldoc writes flow documents as a single self-contained HTML
// page and reads such pages back.
//
// Pictures are embedded as data URIs, one per paragraph, so the output has
// no companion files. Sizes and indents are expressed in CSS inches:
//
//	w := htmldoc.NewWriter().SetTitle("chapter 3")
//	err := w.AddImage(htmldoc.Image{Data: pngBytes, Format: "png", WidthInches: 4})
//	err = w.Write(out)
//
// [Parse] recovers the title, the text paragraphs and the images of a page
// produced by [Writer].
package htmldoc
