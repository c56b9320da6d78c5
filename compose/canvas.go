package compose

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline/internal/logging"
	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/raster"
)

// ErrCanvasClosed is returned by operations on an extracted canvas.
var ErrCanvasClosed = errors.New("canvas is closed")

// OutputPage mirrors one source page and holds the rasters placed on it,
// in placement order.
type OutputPage struct {
	Index  int
	Width  float64
	Height float64
	Placed []model.Raster
}

// Canvas is the output document: one page per source page, each holding
// region images at their source coordinates.
type Canvas struct {
	pages  []*OutputPage
	byPage map[int]*OutputPage
	closed bool
}

// NewCanvas creates one output page per source page, with the same size.
func NewCanvas(pages []*model.Page) *Canvas {
	c := &Canvas{
		pages:  make([]*OutputPage, len(pages)),
		byPage: make(map[int]*OutputPage, len(pages)),
	}
	for i, p := range pages {
		c.pages[i] = &OutputPage{Index: p.Index, Width: p.Width, Height: p.Height}
		c.byPage[p.Index] = c.pages[i]
	}
	return c
}

// PageCount returns the number of output pages.
func (c *Canvas) PageCount() int {
	return len(c.pages)
}

func (c *Canvas) add(r model.Raster) error {
	if c.closed {
		return ErrCanvasClosed
	}
	out, ok := c.byPage[r.Page]
	if !ok {
		return fmt.Errorf("page %d is not on the canvas", r.Page+1)
	}
	out.Placed = append(out.Placed, r)
	return nil
}

// Extract returns every placed raster, page by page in source order and
// within a page by ascending top edge. Rasters with the same top edge keep
// their placement order. The canvas is closed afterwards.
func (c *Canvas) Extract() ([]model.Raster, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	var out []model.Raster
	for _, p := range c.pages {
		placed := append([]model.Raster(nil), p.Placed...)
		sort.SliceStable(placed, func(i, j int) bool {
			return placed[i].BBox.Y0 < placed[j].BBox.Y0
		})
		out = append(out, placed...)
	}

	c.Close()
	return out, nil
}

// Close discards the canvas without extracting it.
func (c *Canvas) Close() {
	c.closed = true
	c.pages = nil
	c.byPage = nil
}

// Capturer turns a region into a raster image. raster.Rasterizer is the
// production implementation.
type Capturer interface {
	Capture(ctx context.Context, region model.Region) (model.Raster, error)
}

// Config holds configuration for composition
type Config struct {
	// Capturer rasterises regions. Required.
	Capturer Capturer

	// Logger receives one entry per placed region (default: discard)
	Logger logrus.FieldLogger
}

// Composer places captured regions on a canvas.
type Composer struct {
	canvas   *Canvas
	capturer Capturer
	log      logrus.FieldLogger
}

// NewComposer creates a composer drawing onto canvas.
func NewComposer(canvas *Canvas, config Config) *Composer {
	return &Composer{
		canvas:   canvas,
		capturer: config.Capturer,
		log:      logging.OrDiscard(config.Logger),
	}
}

// Place captures region and appends it to its output page at the region's
// source coordinates. A region lying entirely outside its page, such as
// bleed artwork, is skipped with a warning.
func (c *Composer) Place(ctx context.Context, region model.Region) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.capturer == nil {
		return errors.New("compose: no capturer configured")
	}

	if c.canvas.closed {
		return ErrCanvasClosed
	}

	r, err := c.capturer.Capture(ctx, region)
	if errors.Is(err, raster.ErrEmptyClip) {
		c.log.WithFields(logrus.Fields{
			"page": region.Page + 1,
			"kind": region.Kind.String(),
		}).WithError(err).Warn("region outside page skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("capturing %s region on page %d: %w", region.Kind, region.Page+1, err)
	}
	if err := c.canvas.add(r); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"page":   region.Page + 1,
		"kind":   region.Kind.String(),
		"region": fmt.Sprintf("%.1f,%.1f,%.1f,%.1f", region.BBox.X0, region.BBox.Y0, region.BBox.X1, region.BBox.Y1),
	}).Debug("placed region")
	return nil
}

// Run opens a canvas for pages, lets place populate it and returns the
// extracted rasters. The canvas is closed on every path; when place fails
// nothing is returned.
func Run(ctx context.Context, pages []*model.Page, config Config, place func(ctx context.Context, c *Composer) error) ([]model.Raster, error) {
	canvas := NewCanvas(pages)
	if err := place(ctx, NewComposer(canvas, config)); err != nil {
		canvas.Close()
		return nil, err
	}
	return canvas.Extract()
}
