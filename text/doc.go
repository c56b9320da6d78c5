// Package text extracts coloured text fragments from PDF content streams.
//
// The [Extractor] walks content stream operations with a tracked graphics
// state, so every [Fragment] carries the fill colour that was in effect when
// it was painted, together with its position, width, font name and size:
//
//	ex := text.NewExtractor()
//	ex.RegisterFontsFromPage(page, resolver)
//	fragments, err := ex.ExtractFromBytes(contentData)
//
// Fill colours set with rg, g, k, sc and scn are converted to 8-bit RGB.
// Font names have subset prefixes removed, and font sizes are quantised to
// 0.01pt via [QuantizeSize].
//
// Form XObjects are followed when a resource context is configured with
// [Extractor.SetResourceContext].
package text
