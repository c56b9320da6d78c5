// Package classify decides which regions of a page are captured.
//
// A [Classifier] scans a page's blocks in content order with a
// [HeadingContext] that it threads from block to block and from page to
// page. What a block means is decided by a [Template]: the exact highlight
// colour, the bullet glyphs that never count as highlighted, and a table of
// font signatures (size plus PostScript font name) with their structural
// [Role].
//
//	c := classify.New(classify.Config{
//	    Template: classify.DefaultTemplate(),
//	    Finder:   doc,
//	})
//
//	var hc classify.HeadingContext
//	for i := 0; i < doc.PageCount(); i++ {
//	    page, _ := doc.Page(ctx, i)
//	    regions, next, err := c.ClassifyPage(ctx, page, hc)
//	    if err != nil {
//	        return err
//	    }
//	    hc = next
//	    // ... capture regions
//	}
//
// For every block the rules apply in a fixed order:
//
//  1. spans are scanned for font signatures and the marked colour
//  2. a marked block may start the page's table pass and marks its own
//     heading levels as done, closing the open heading levels
//  3. a chapter signature closes both heading levels
//  4. otherwise heading signatures are captured as heading regions
//  5. a marked figure title captures the title and the page's images
//     except the last, once per page
//  6. any other marked block is captured, shrunk vertically if it holds a
//     formula, unless it is table body text on a page whose table was
//     already captured
//  7. a block that produced nothing may still be a bold black title
//
// Missing font metadata is never an error; such spans simply match no
// signature. Table detection failures are logged and treated as "no table".
package classify
