package model

// Page is one source page as seen by the classifier.
type Page struct {
	// Index is the 0-based page number in the source document
	Index int

	// Width and Height are the page dimensions in points
	Width  float64
	Height float64

	// Blocks are the text blocks in content order
	Blocks []Block

	// Images are the bounding boxes of painted raster images in draw order
	Images []Rect
}

// NewPage creates an empty page with the given dimensions.
func NewPage(index int, width, height float64) *Page {
	return &Page{Index: index, Width: width, Height: height}
}

// Bounds returns the page rectangle.
func (p *Page) Bounds() Rect {
	return Rect{X0: 0, Y0: 0, X1: p.Width, Y1: p.Height}
}

// AddBlock appends a block to the page.
func (p *Page) AddBlock(b Block) {
	p.Blocks = append(p.Blocks, b)
}
