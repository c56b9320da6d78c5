package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/pages"
	pdfreader "github.com/tsawler/tabula/reader"
	grids "github.com/tsawler/tabula/tables"

	"github.com/tsawler/redline/layout"
	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/text"
)

// ErrPageRange is returned when a page index is outside the document.
var ErrPageRange = errors.New("page index out of range")

// letterBox is used when a page has no usable MediaBox.
var letterBox = layout.PageBox{URX: 612, URY: 792}

// Document is an open PDF. It builds pages for classification, reports
// ruling-line tables and exposes the file path for external renderers.
type Document struct {
	r        *pdfreader.Reader
	path     string
	temp     bool
	detector *layout.BlockDetector
	count    int
}

// Open opens the PDF file at path.
func Open(path string) (*Document, error) {
	r, err := pdfreader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	return newDocument(r, path, false)
}

// FromBytes writes data to a temporary file and opens it. The file is
// removed by Close.
func FromBytes(data []byte) (*Document, error) {
	path := filepath.Join(os.TempDir(), "redline-"+uuid.NewString()+".pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing temporary PDF: %w", err)
	}

	r, err := pdfreader.Open(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	doc, err := newDocument(r, path, true)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return doc, nil
}

func newDocument(r *pdfreader.Reader, path string, temp bool) (*Document, error) {
	count, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("reading page tree: %w", err)
	}
	return &Document{
		r:        r,
		path:     path,
		temp:     temp,
		detector: layout.NewBlockDetector(),
		count:    count,
	}, nil
}

// Close releases the file handle and removes any temporary copy.
func (d *Document) Close() error {
	err := d.r.Close()
	if d.temp {
		if rmErr := os.Remove(d.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
	}
	return err
}

// Path returns the file system path of the document.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.count
}

// Page builds the classification model of the page at index (0-based):
// coloured text blocks and the bounding boxes of painted images, all in
// top-left page space derived from the MediaBox.
func (d *Document) Page(ctx context.Context, index int) (*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, box, err := d.page(index)
	if err != nil {
		return nil, err
	}

	out := model.NewPage(index, box.Width(), box.Height())

	data, err := contentBytes(pg)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index+1, err)
	}
	if len(data) == 0 {
		return out, nil
	}

	ex := text.NewExtractor()
	resolver := func(ref core.IndirectRef) (core.Object, error) {
		return d.r.ResolveReference(ref)
	}
	// Unknown fonts still yield text, just without font metadata.
	_ = ex.RegisterFontsFromPage(pg, resolver)
	if resources, resErr := pg.Resources(); resErr == nil && resources != nil {
		ex.SetResourceContext(resources, resolver)
	}

	fragments, err := ex.ExtractFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("page %d: extracting text: %w", index+1, err)
	}
	for _, b := range d.detector.Detect(fragments, box) {
		out.AddBlock(b)
	}

	placed, err := d.r.ExtractPlacedImages(pg)
	if err != nil {
		return nil, fmt.Errorf("page %d: locating images: %w", index+1, err)
	}
	for _, img := range placed {
		out.Images = append(out.Images, box.ToPage(img.X, img.Y, img.X+img.Width, img.Y+img.Height))
	}

	return out, nil
}

// FindTables detects ruled tables on the page at index and returns their
// bounding boxes in page space, most confident first.
func (d *Document) FindTables(ctx context.Context, index int) ([]model.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pg, box, err := d.page(index)
	if err != nil {
		return nil, err
	}
	data, err := contentBytes(pg)
	if err != nil || len(data) == 0 {
		return nil, err
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil, fmt.Errorf("page %d: extracting graphics: %w", index+1, err)
	}

	result := grids.DetectGrids(ge)
	rects := make([]model.Rect, 0, len(result.Hypotheses))
	for _, h := range result.Hypotheses {
		b := h.BBox
		rects = append(rects, box.ToPage(b.X, b.Y, b.X+b.Width, b.Y+b.Height))
	}
	return rects, nil
}

func (d *Document) page(index int) (*pages.Page, layout.PageBox, error) {
	if index < 0 || index >= d.count {
		return nil, layout.PageBox{}, fmt.Errorf("page %d: %w", index+1, ErrPageRange)
	}
	pg, err := d.r.GetPage(index)
	if err != nil {
		return nil, layout.PageBox{}, fmt.Errorf("page %d: %w", index+1, err)
	}
	return pg, mediaBox(pg), nil
}

func mediaBox(pg *pages.Page) layout.PageBox {
	mb, err := pg.MediaBox()
	if err != nil || len(mb) != 4 {
		return letterBox
	}
	box := layout.PageBox{LLX: mb[0], LLY: mb[1], URX: mb[2], URY: mb[3]}
	if box.LLX > box.URX {
		box.LLX, box.URX = box.URX, box.LLX
	}
	if box.LLY > box.URY {
		box.LLY, box.URY = box.URY, box.LLY
	}
	if box.Width() <= 0 || box.Height() <= 0 {
		return letterBox
	}
	return box
}

// contentBytes decodes and concatenates the page's content streams.
func contentBytes(pg *pages.Page) ([]byte, error) {
	contents, err := pg.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading contents: %w", err)
	}

	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding content stream: %w", err)
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}
