// Package tables links detected tables to the marked text they contain.
//
// Table geometry comes from a [Finder]; the production finder is
// reader.Document, which detects ruled grids. A [CrossReferencer] indexes a
// page's blocks in an R-tree and flags every table that intersects at least
// one block holding a span in the marked colour:
//
//	xref := tables.NewCrossReferencer(model.RGB{R: 218, G: 31, B: 51})
//	rects, err := finder.FindTables(ctx, page.Index)
//	for _, f := range xref.Flag(page, rects) {
//	    fmt.Println(f.Index, f.BBox)
//	}
package tables
