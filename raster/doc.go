// Package raster renders PDF pages and captures page regions as images.
//
// A [Renderer] turns a whole page into an image at a given resolution. The
// production renderer is [Poppler], which runs pdftoppm:
//
//	z := raster.NewRasterizer(raster.NewPoppler("book.pdf"), raster.DefaultConfig())
//	img, err := z.Capture(ctx, region)
//
// A [Rasterizer] maps a region's page-space rectangle (points, top-left
// origin) to pixels at its DPI, rounding outward and clipping to the page,
// crops the rendered page and encodes the result as PNG. It caches the most
// recently rendered page, so regions should be captured page by page.
package raster
