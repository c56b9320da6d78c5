// Package docx writes and reads the small subset of Office Open XML used by
// flow documents: plain text paragraphs and paragraphs holding a single
// inline picture.
//
// [Builder] produces a complete package on a US Letter page with one inch
// margins:
//
//	b := docx.NewBuilder().SetTitle("chapter 3")
//	err := b.AddPicture(docx.Picture{
//	    Data:         pngBytes,
//	    Format:       "png",
//	    WidthInches:  4.2,
//	    HeightInches: 0.3,
//	    IndentInches: 0.8,
//	})
//	err = b.Write(w)
//
// [Reader] parses such documents back into paragraphs with their indent,
// alignment and picture extents, which is what the tests and the inspection
// tooling rely on.
//
// Sizes use the WordprocessingML units: English Metric Units for drawings
// ([EMUPerInch]) and twips for paragraph indents ([TwipsPerInch]).
package docx
