package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/redline/model"
)

// DefaultDPI is the capture resolution.
const DefaultDPI = 380

// ErrEmptyClip is returned when a region maps to no pixels of its page.
var ErrEmptyClip = errors.New("region lies outside the rendered page")

// Renderer renders whole pages.
type Renderer interface {
	// RenderPage renders the page at pageIndex (0-based) at dpi dots per inch.
	RenderPage(ctx context.Context, pageIndex int, dpi int) (image.Image, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, pageIndex int, dpi int) (image.Image, error)

// RenderPage calls f.
func (f RendererFunc) RenderPage(ctx context.Context, pageIndex int, dpi int) (image.Image, error) {
	return f(ctx, pageIndex, dpi)
}

// Config holds configuration for region capture
type Config struct {
	// DPI is the render resolution (default: 380)
	DPI int
}

// DefaultConfig returns the default capture configuration
func DefaultConfig() Config {
	return Config{DPI: DefaultDPI}
}

// Rasterizer captures page regions as PNG images. It keeps the most
// recently rendered page, so consecutive regions of one page render it once.
type Rasterizer struct {
	renderer Renderer
	dpi      int

	page  int
	image image.Image
}

// NewRasterizer creates a rasterizer over r
func NewRasterizer(r Renderer, config Config) *Rasterizer {
	if config.DPI <= 0 {
		config.DPI = DefaultDPI
	}
	return &Rasterizer{renderer: r, dpi: config.DPI, page: -1}
}

// DPI returns the capture resolution.
func (z *Rasterizer) DPI() int {
	return z.dpi
}

// Capture renders the region's page if needed and returns the region's
// pixels as a PNG raster.
func (z *Rasterizer) Capture(ctx context.Context, region model.Region) (model.Raster, error) {
	img, err := z.pageImage(ctx, region.Page)
	if err != nil {
		return model.Raster{}, err
	}

	bounds := img.Bounds()
	clip := z.pixelRect(region.BBox).Add(bounds.Min).Intersect(bounds)
	if clip.Empty() {
		return model.Raster{}, fmt.Errorf("page %d %s %v: %w", region.Page+1, region.Kind, region.BBox, ErrEmptyClip)
	}

	dst := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	draw.Draw(dst, dst.Bounds(), img, clip.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return model.Raster{}, fmt.Errorf("encoding PNG: %w", err)
	}

	return model.Raster{
		Data:        buf.Bytes(),
		Format:      "png",
		BBox:        region.BBox,
		Page:        region.Page,
		Kind:        region.Kind,
		PixelWidth:  clip.Dx(),
		PixelHeight: clip.Dy(),
	}, nil
}

func (z *Rasterizer) pageImage(ctx context.Context, page int) (image.Image, error) {
	if z.image != nil && z.page == page {
		return z.image, nil
	}
	img, err := z.renderer.RenderPage(ctx, page, z.dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page+1, err)
	}
	z.page, z.image = page, img
	return img, nil
}

// pixelRect maps a page-space rectangle in points to pixels, rounding
// outward.
func (z *Rasterizer) pixelRect(r model.Rect) image.Rectangle {
	scale := float64(z.dpi) / 72
	return image.Rect(
		int(math.Floor(r.X0*scale)),
		int(math.Floor(r.Y0*scale)),
		int(math.Ceil(r.X1*scale)),
		int(math.Ceil(r.Y1*scale)),
	)
}
