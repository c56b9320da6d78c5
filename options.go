package redline

import (
	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline/classify"
	"github.com/tsawler/redline/flow"
	"github.com/tsawler/redline/raster"
)

// RendererFactory creates a page renderer for the PDF file at path.
type RendererFactory func(path string) raster.Renderer

// options holds configuration for an extraction.
type options struct {
	// Page selection (1-indexed, nil means all pages)
	pages []int

	// pageErr is an invalid page selection, reported by terminal calls
	pageErr error

	dpi      int
	template classify.Template
	tables   bool
	layout   flow.Layout

	logger    logrus.FieldLogger
	renderer  RendererFactory
	pdftoppm  string
	altTexter flow.AltTexter
}

// defaultOptions returns the default extraction options.
func defaultOptions() options {
	return options{
		dpi:      raster.DefaultDPI,
		template: classify.DefaultTemplate(),
		tables:   true,
		layout:   flow.DefaultLayout(),
	}
}

// clone creates a copy of options with its own page list.
func (o options) clone() options {
	n := o
	if o.pages != nil {
		n.pages = make([]int, len(o.pages))
		copy(n.pages, o.pages)
	}
	return n
}

// Option configures an extraction. Options are accepted by Convert and
// Extractor.With and mirror the fluent methods.
type Option func(*options)

// WithPages selects pages (1-indexed).
func WithPages(pages ...int) Option {
	return func(o *options) { o.pages = append(o.pages, pages...) }
}

// WithDPI sets the capture resolution.
func WithDPI(dpi int) Option {
	return func(o *options) { o.dpi = dpi }
}

// WithTemplate replaces the classification template.
func WithTemplate(t classify.Template) Option {
	return func(o *options) { o.template = t }
}

// WithoutTables disables the table pass.
func WithoutTables() Option {
	return func(o *options) { o.tables = false }
}

// WithLayout sets the flow layout.
func WithLayout(l flow.Layout) Option {
	return func(o *options) { o.layout = l }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithRenderer sets the page renderer factory.
func WithRenderer(f RendererFactory) Option {
	return func(o *options) { o.renderer = f }
}

// WithPdftoppm sets the pdftoppm binary used by the default renderer.
func WithPdftoppm(binary string) Option {
	return func(o *options) { o.pdftoppm = binary }
}

// WithAltTexter sets the alt text source for pictures.
func WithAltTexter(a flow.AltTexter) Option {
	return func(o *options) { o.altTexter = a }
}
