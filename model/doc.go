// Package model defines the page representation shared by the extraction
// pipeline.
//
// A [Page] holds an ordered list of [Block] values, each made of [Line]
// values, each made of [Span] values carrying text, font name, font size,
// fill colour and bounding box. The bounding boxes of raster images painted
// on the page are kept in draw order.
//
// # Coordinates
//
// All geometry uses [Rect] in page space: points, origin at the top-left
// corner of the page, Y growing downward. This matches the orientation of a
// rendered page image, so a Rect maps to pixels by a single scale factor.
//
// # Regions
//
// The classifier produces [Region] values tagged with a closed [RegionKind].
// Kinds that need extra data attach a [RegionDetail]:
//
//   - [FigureDetail] - which page image a figure came from
//   - [FormulaDetail] - the bounds before the formula adjustment
//   - [TableDetail] - which detected table was captured
//
// Captured regions become [Raster] values once they are rendered.
package model
