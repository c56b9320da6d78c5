// Package layout groups positioned text fragments into the block structure
// used for classification.
//
// The [BlockDetector] consumes [text.Fragment] values in content order and
// produces [model.Block] values in page space:
//
//	detector := layout.NewBlockDetector()
//	blocks := detector.Detect(fragments, layout.PageBox{URX: 612, URY: 792})
//
// Grouping happens in three steps:
//
//   - fragments on the same baseline with small horizontal gaps form a line
//   - adjacent fragments of one line with the same font, size and colour are
//     merged into a span, inserting a space where the gap is wide
//   - lines that are close vertically and overlap horizontally form a block;
//     a jump in dominant font size also starts a new block
//
// Whitespace-only fragments never start a span of their own, so an invisible
// space cannot carry a colour.
package layout
