package model

// RegionKind identifies why a page region was selected for capture.
type RegionKind int

const (
	// MarkedText is a block containing text in the marked colour
	MarkedText RegionKind = iota
	// Heading2 is a structural level-2 heading captured for context
	Heading2
	// Heading3 is a structural level-3 heading captured for context
	Heading3
	// FigureTitle is the title block of a marked figure
	FigureTitle
	// Figure is an embedded raster image belonging to a marked figure
	Figure
	// Table is a whole table that contains marked text
	Table
	// Formula is a marked formula block with adjusted vertical bounds
	Formula
	// Title is a black document or chapter title
	Title
)

// String returns the region kind name.
func (k RegionKind) String() string {
	switch k {
	case MarkedText:
		return "marked-text"
	case Heading2:
		return "heading-2"
	case Heading3:
		return "heading-3"
	case FigureTitle:
		return "figure-title"
	case Figure:
		return "figure"
	case Table:
		return "table"
	case Formula:
		return "formula"
	case Title:
		return "title"
	default:
		return "unknown"
	}
}

// RegionDetail carries kind-specific data for a Region. The set of
// implementations is closed to this package.
type RegionDetail interface {
	regionDetail()
}

// FigureDetail identifies which placed page image a Figure region came from.
type FigureDetail struct {
	ImageIndex int // index into Page.Images (draw order)
}

// FormulaDetail keeps the block bounds before the vertical adjustment.
type FormulaDetail struct {
	Original Rect
}

// TableDetail identifies the detected table a Table region came from.
type TableDetail struct {
	TableIndex int
}

func (FigureDetail) regionDetail()  {}
func (FormulaDetail) regionDetail() {}
func (TableDetail) regionDetail()   {}

// Region is a rectangular area of a source page selected for capture.
type Region struct {
	Page   int
	BBox   Rect
	Kind   RegionKind
	Detail RegionDetail // nil except for Figure, Formula and Table
}

// Raster is an encoded image of a captured region.
type Raster struct {
	Data        []byte
	Format      string // "png"
	BBox        Rect   // placement on the output page, in points
	Page        int
	Kind        RegionKind
	PixelWidth  int
	PixelHeight int
}
