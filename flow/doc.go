// Package flow turns the ordered rasters of a composed document into a
// single flowing text document.
//
// Each raster becomes one left-aligned paragraph holding one inline
// picture. The raster's horizontal page offset becomes the paragraph
// indent and its width the picture width, both converted with a fixed
// pixels-per-inch factor and capped at the printable width:
//
//	body := flow.Assemble(rasters)
//	err := body.WriteDOCX(w)
//
// A document without rasters still produces a valid body holding the
// placeholder paragraph [NoContentText].
package flow
