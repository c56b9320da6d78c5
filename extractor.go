package redline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline/classify"
	"github.com/tsawler/redline/compose"
	"github.com/tsawler/redline/flow"
	"github.com/tsawler/redline/format"
	"github.com/tsawler/redline/internal/logging"
	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/raster"
	"github.com/tsawler/redline/reader"
	"github.com/tsawler/redline/tables"
)

// Extractor provides a fluent interface for extracting marked content.
// Each configuration method returns a new Extractor instance, so a
// configured Extractor can be reused as a template for several calls.
//
// Terminal operations (DOCX, HTML, Body, Regions, ColorReport) open the
// document, process it and close it again.
type Extractor struct {
	// Source
	name  string
	path  string
	data  []byte
	inMem bool

	ctx     context.Context
	options options
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		name:    e.name,
		path:    e.path,
		data:    e.data,
		inMem:   e.inMem,
		ctx:     e.ctx,
		options: e.options.clone(),
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// With applies opts to a copy of the Extractor.
func (e *Extractor) With(opts ...Option) *Extractor {
	n := e.clone()
	for _, opt := range opts {
		opt(&n.options)
	}
	return n
}

// Named sets the name used for log fields and the document title. It
// defaults to the path or the name given to FromBytes.
func (e *Extractor) Named(name string) *Extractor {
	n := e.clone()
	n.name = name
	return n
}

// Context sets the context used by terminal operations.
func (e *Extractor) Context(ctx context.Context) *Extractor {
	n := e.clone()
	n.ctx = ctx
	return n
}

// Pages specifies which pages to process (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	out, _, err := redline.Open("doc.pdf").Pages(1, 3, 5).DOCX()
func (e *Extractor) Pages(pages ...int) *Extractor {
	return e.With(WithPages(pages...))
}

// PageRange specifies a range of pages to process (1-indexed, inclusive).
// A range that ends before it starts makes terminal calls fail.
func (e *Extractor) PageRange(start, end int) *Extractor {
	n := e.clone()
	if start > end {
		if n.options.pageErr == nil {
			n.options.pageErr = fmt.Errorf("invalid page range %d-%d", start, end)
		}
		return n
	}
	for i := start; i <= end; i++ {
		n.options.pages = append(n.options.pages, i)
	}
	return n
}

// DPI sets the resolution regions are captured at (default: 380).
func (e *Extractor) DPI(dpi int) *Extractor {
	return e.With(WithDPI(dpi))
}

// Template replaces the classification template.
func (e *Extractor) Template(t classify.Template) *Extractor {
	return e.With(WithTemplate(t))
}

// WithoutTables disables the table pass.
func (e *Extractor) WithoutTables() *Extractor {
	return e.With(WithoutTables())
}

// Layout sets the flow layout.
func (e *Extractor) Layout(l flow.Layout) *Extractor {
	return e.With(WithLayout(l))
}

// Logger sets the logger. Entries carry a "document" field.
func (e *Extractor) Logger(l logrus.FieldLogger) *Extractor {
	return e.With(WithLogger(l))
}

// Renderer sets the page renderer factory. The default renders with
// poppler's pdftoppm.
func (e *Extractor) Renderer(f RendererFactory) *Extractor {
	return e.With(WithRenderer(f))
}

// Pdftoppm sets the pdftoppm binary used by the default renderer.
func (e *Extractor) Pdftoppm(binary string) *Extractor {
	return e.With(WithPdftoppm(binary))
}

// AltText sets an alt text source for the output pictures.
func (e *Extractor) AltText(a flow.AltTexter) *Extractor {
	return e.With(WithAltTexter(a))
}

// ============================================================================
// Terminal Operations (execute extraction and return results)
// ============================================================================

// DOCX runs the extraction and returns the output as a Word document.
//
// Example:
//
//	out, warnings, err := redline.Open("document.pdf").DOCX()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", redline.FormatWarnings(warnings))
//	}
func (e *Extractor) DOCX() ([]byte, []Warning, error) {
	return e.write(flow.Body.WriteDOCX)
}

// HTML runs the extraction and returns the output as a self-contained
// HTML page.
func (e *Extractor) HTML() ([]byte, []Warning, error) {
	return e.write(flow.Body.WriteHTML)
}

func (e *Extractor) write(fn func(flow.Body, io.Writer) error) ([]byte, []Warning, error) {
	body, warnings, err := e.Body()
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := fn(body, &buf); err != nil {
		return nil, nil, fmt.Errorf("writing output: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

// Body runs the extraction and returns the assembled flow document.
func (e *Extractor) Body() (flow.Body, []Warning, error) {
	ctx := e.context()
	log := e.log()

	doc, err := e.open()
	if err != nil {
		return flow.Body{}, nil, err
	}
	defer doc.Close()

	a, err := e.analyze(ctx, doc, log)
	if err != nil {
		return flow.Body{}, nil, err
	}

	rasters, err := compose.Run(ctx, a.pages, compose.Config{
		Capturer: raster.NewRasterizer(e.renderer(doc.Path()), raster.Config{DPI: e.options.dpi}),
		Logger:   log,
	}, func(ctx context.Context, c *compose.Composer) error {
		for _, r := range a.regions {
			if err := c.Place(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return flow.Body{}, nil, err
	}

	body := e.options.layout.Assemble(rasters)
	body.Title = format.Stem(filepath.Base(e.name))

	warnings := a.warnings()
	if e.options.altTexter != nil && !body.Empty() {
		if err := body.Describe(e.options.altTexter); err != nil {
			log.WithError(err).Warn("alt text unavailable")
			warnings = append(warnings, Warning{
				Code:    WarningAltText,
				Message: fmt.Sprintf("alt text unavailable: %v", err),
			})
		}
	}

	log.WithFields(logrus.Fields{
		"pages":    len(a.pages),
		"regions":  len(a.regions),
		"pictures": len(body.Elements),
	}).Info("document converted")
	return body, warnings, nil
}

// Regions classifies the selected pages and returns the regions that would
// be captured, without rendering anything.
func (e *Extractor) Regions() ([]model.Region, []Warning, error) {
	doc, err := e.open()
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close()

	a, err := e.analyze(e.context(), doc, e.log())
	if err != nil {
		return nil, nil, err
	}
	return a.regions, a.warnings(), nil
}

// PageCount returns the number of pages in the document.
func (e *Extractor) PageCount() (int, error) {
	doc, err := e.open()
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.PageCount(), nil
}

// analysis is the classified document.
type analysis struct {
	pages   []*model.Page
	regions []model.Region
}

func (a *analysis) warnings() []Warning {
	if len(a.regions) > 0 {
		return nil
	}
	return []Warning{{
		Code:    WarningNoMarkedContent,
		Message: "no marked content found",
	}}
}

func (e *Extractor) open() (*reader.Document, error) {
	if e.options.dpi <= 0 {
		return nil, fmt.Errorf("invalid DPI %d", e.options.dpi)
	}
	if e.options.pageErr != nil {
		return nil, e.options.pageErr
	}

	var (
		doc *reader.Document
		err error
	)
	switch {
	case e.inMem:
		if err := format.CheckPDF(e.data); err != nil {
			return nil, &LoadError{Name: e.name, Err: err}
		}
		doc, err = reader.FromBytes(e.data)
	case e.path == "":
		err = errors.New("no filename specified")
	default:
		doc, err = reader.Open(e.path)
	}
	if err != nil {
		return nil, &LoadError{Name: e.name, Err: err}
	}
	return doc, nil
}

func (e *Extractor) analyze(ctx context.Context, doc *reader.Document, log logrus.FieldLogger) (*analysis, error) {
	indices, err := resolvePages(e.options.pages, doc.PageCount())
	if err != nil {
		return nil, err
	}

	var finder tables.Finder
	if e.options.tables {
		finder = tables.FinderFunc(doc.FindTables)
	}
	c := classify.New(classify.Config{
		Template: e.options.template,
		Finder:   finder,
		Logger:   log,
	})

	a := &analysis{pages: make([]*model.Page, 0, len(indices))}
	var hc classify.HeadingContext
	for _, i := range indices {
		page, err := doc.Page(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		regions, next, err := c.ClassifyPage(ctx, page, hc)
		if err != nil {
			return nil, err
		}
		hc = next
		a.pages = append(a.pages, page)
		a.regions = append(a.regions, regions...)
	}
	return a, nil
}

func (e *Extractor) renderer(path string) raster.Renderer {
	if e.options.renderer != nil {
		return e.options.renderer(path)
	}
	p := raster.NewPoppler(path)
	if e.options.pdftoppm != "" {
		p.Binary = e.options.pdftoppm
	}
	return p
}

func (e *Extractor) context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *Extractor) log() logrus.FieldLogger {
	return logging.OrDiscard(e.options.logger).WithField("document", filepath.Base(e.name))
}

// resolvePages converts 1-indexed page numbers to sorted, unique 0-indexed
// page indices. No pages means all pages.
func resolvePages(pages []int, pageCount int) ([]int, error) {
	if len(pages) == 0 {
		indices := make([]int, pageCount)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	seen := make(map[int]bool)
	var indices []int
	for _, p := range pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		if !seen[p-1] {
			seen[p-1] = true
			indices = append(indices, p-1)
		}
	}
	sort.Ints(indices)
	return indices, nil
}
