// Package reader opens PDF files and builds the page model used for region
// classification.
//
// A [Document] wraps the tabula PDF reader. For every page it produces a
// [model.Page] holding the coloured text blocks and the bounding boxes of
// painted images, converted from PDF user space to top-left page space
// using the page's MediaBox:
//
//	doc, err := reader.Open("book.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
//	page, err := doc.Page(ctx, 0)
//
// [Document.FindTables] runs ruling-line grid detection over the page's
// graphics and reports table bounding boxes in the same coordinate space.
//
// [FromBytes] accepts an in-memory PDF. The data is written to a temporary
// file so that external renderers can read it through [Document.Path].
package reader
