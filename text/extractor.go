package text

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/font"
	"github.com/tsawler/tabula/graphicsstate"
	pdfmodel "github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"

	"github.com/tsawler/redline/model"
)

// Default vertical font metrics, as fractions of the em, used when a font
// has no descriptor.
const (
	defaultAscent  = 0.8
	defaultDescent = -0.2
)

// subsetPrefix matches the six-letter tag PDF writers prepend to subset fonts.
var subsetPrefix = regexp.MustCompile(`^[A-Z]{6}\+`)

// Fragment is a piece of text painted by one text-showing operator, with its
// fill colour and font metrics. Coordinates are PDF user space (origin
// bottom-left).
type Fragment struct {
	Text     string
	X, Y     float64 // baseline origin
	Width    float64
	FontName string  // base font with the subset prefix removed; empty if unknown
	FontSize float64 // device font size quantised to 0.01
	Ascent   float64 // fraction of FontSize above the baseline
	Descent  float64 // fraction of FontSize below the baseline (negative)
	Color    model.RGB
}

// Top returns the Y coordinate of the fragment's ascent line.
func (f Fragment) Top() float64 {
	return f.Y + f.Ascent*f.FontSize
}

// Bottom returns the Y coordinate of the fragment's descent line.
func (f Fragment) Bottom() float64 {
	return f.Y + f.Descent*f.FontSize
}

// Resolver resolves indirect references.
type Resolver func(core.IndirectRef) (core.Object, error)

// fontInfo is a registered font resource.
type fontInfo struct {
	font    *font.Font
	name    string
	ascent  float64
	descent float64
}

// Extractor walks PDF content streams and produces coloured text fragments.
// It tracks the graphics state so that the fill colour in effect when text is
// shown is attached to each fragment.
type Extractor struct {
	gs    *graphicsstate.GraphicsState
	fonts map[string]*fontInfo

	fragments []Fragment

	resources core.Dict
	resolver  Resolver
	depth     int
	maxDepth  int
}

// NewExtractor creates a new extractor with an initial graphics state.
func NewExtractor() *Extractor {
	return &Extractor{
		gs:       graphicsstate.NewGraphicsState(),
		fonts:    make(map[string]*fontInfo),
		maxDepth: 10,
	}
}

// SetResourceContext configures resources and a resolver for Form XObject
// processing.
func (e *Extractor) SetResourceContext(resources core.Dict, resolver Resolver) {
	e.resources = resources
	e.resolver = resolver
}

// RegisterFont registers a standard font under a resource name.
func (e *Extractor) RegisterFont(name, baseFont, subtype string) {
	e.register(name, font.NewFont(name, baseFont, subtype), nil)
}

func (e *Extractor) register(name string, f *font.Font, fd *font.FontDescriptor) {
	info := &fontInfo{
		font:    f,
		name:    subsetPrefix.ReplaceAllString(f.BaseFont, ""),
		ascent:  defaultAscent,
		descent: defaultDescent,
	}
	if fd != nil && fd.Ascent > 0 {
		info.ascent = fd.Ascent / 1000
		if fd.Descent < 0 {
			info.descent = fd.Descent / 1000
		}
	}
	e.fonts[name] = info
	if !strings.HasPrefix(name, "/") {
		e.fonts["/"+name] = info
	}
}

// RegisterFontsFromPage registers every font in a page's resources.
func (e *Extractor) RegisterFontsFromPage(page *pages.Page, resolver Resolver) error {
	resources, err := page.Resources()
	if err != nil || resources == nil {
		return nil
	}
	return e.RegisterFontsFromResources(resources, resolver)
}

// RegisterFontsFromResources registers every font in a resources dictionary.
// Fonts that cannot be parsed are skipped.
func (e *Extractor) RegisterFontsFromResources(resources core.Dict, resolver Resolver) error {
	fontDictObj := resources.Get("Font")
	if fontDictObj == nil {
		return nil
	}

	resolved, err := resolveIfRef(fontDictObj, resolver)
	if err != nil {
		return fmt.Errorf("resolving font dictionary: %w", err)
	}
	fonts, ok := resolved.(core.Dict)
	if !ok {
		return nil
	}

	for name, fontObj := range fonts {
		fontResolved, err := resolveIfRef(fontObj, resolver)
		if err != nil {
			continue
		}
		fontDict, ok := fontResolved.(core.Dict)
		if !ok {
			continue
		}
		subtype, ok := fontDict.Get("Subtype").(core.Name)
		if !ok {
			continue
		}

		switch string(subtype) {
		case "Type1", "MMType1":
			if t1, err := font.NewType1Font(fontDict, resolver); err == nil {
				e.register(name, t1.Font, t1.FontDescriptor)
			}
		case "TrueType":
			if tt, err := font.NewTrueTypeFont(fontDict, resolver); err == nil {
				e.register(name, tt.Font, tt.FontDescriptor)
			}
		case "Type0":
			if t0, err := font.NewType0Font(fontDict, resolver); err == nil {
				var fd *font.FontDescriptor
				if t0.DescendantFont != nil {
					fd = t0.DescendantFont.FontDescriptor
				}
				e.register(name, t0.Font, fd)
			}
		}
	}
	return nil
}

func resolveIfRef(obj core.Object, resolver Resolver) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok && resolver != nil {
		return resolver(ref)
	}
	return obj, nil
}

// Extract processes parsed operations and returns the fragments found.
func (e *Extractor) Extract(operations []contentstream.Operation) ([]Fragment, error) {
	e.fragments = nil
	for _, op := range operations {
		if err := e.processOperation(op); err != nil {
			return nil, err
		}
	}
	return e.fragments, nil
}

// ExtractFromBytes parses a decoded content stream and extracts fragments.
func (e *Extractor) ExtractFromBytes(data []byte) ([]Fragment, error) {
	operations, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing content stream: %w", err)
	}
	return e.Extract(operations)
}

func (e *Extractor) processOperation(op contentstream.Operation) error {
	switch op.Operator {
	case "q":
		e.gs.Save()
	case "Q":
		// Unbalanced Q is common in real files; keep the current state.
		_ = e.gs.Restore()
	case "cm":
		if len(op.Operands) == 6 {
			e.gs.Transform(operandsToMatrix(op.Operands))
		}

	// Fill colour
	case "rg":
		if c, ok := floats(op.Operands, 3); ok {
			e.gs.SetFillColorRGB(c[0], c[1], c[2])
		}
	case "g":
		if c, ok := floats(op.Operands, 1); ok {
			e.gs.SetFillColorRGB(c[0], c[0], c[0])
		}
	case "k":
		if c, ok := floats(op.Operands, 4); ok {
			e.gs.SetFillColorRGB(cmykToRGB(c[0], c[1], c[2], c[3]))
		}
	case "sc", "scn":
		e.setFillColorN(op.Operands)
	case "cs":
		// A new colour space resets the fill colour to its initial value.
		e.gs.SetFillColorRGB(0, 0, 0)

	// Text state
	case "BT":
		e.gs.BeginText()
	case "ET":
		e.gs.EndText()
	case "Tf":
		if len(op.Operands) == 2 {
			if name, ok := op.Operands[0].(core.Name); ok {
				if size, ok := toFloat(op.Operands[1]); ok {
					fontName := string(name)
					if !strings.HasPrefix(fontName, "/") {
						fontName = "/" + fontName
					}
					e.gs.SetFont(fontName, size)
				}
			}
		}
	case "Tc":
		if v, ok := floats(op.Operands, 1); ok {
			e.gs.SetCharSpacing(v[0])
		}
	case "Tw":
		if v, ok := floats(op.Operands, 1); ok {
			e.gs.SetWordSpacing(v[0])
		}
	case "Tz":
		if v, ok := floats(op.Operands, 1); ok {
			e.gs.SetHorizontalScaling(v[0])
		}
	case "TL":
		if v, ok := floats(op.Operands, 1); ok {
			e.gs.SetLeading(v[0])
		}
	case "Ts":
		if v, ok := floats(op.Operands, 1); ok {
			e.gs.SetTextRise(v[0])
		}

	// Text positioning
	case "Tm":
		if len(op.Operands) == 6 {
			e.gs.SetTextMatrix(operandsToMatrix(op.Operands))
		}
	case "Td":
		if v, ok := floats(op.Operands, 2); ok {
			e.gs.TranslateText(v[0], v[1])
		}
	case "TD":
		if v, ok := floats(op.Operands, 2); ok {
			e.gs.TranslateTextSetLeading(v[0], v[1])
		}
	case "T*":
		e.gs.NextLine()

	// Text showing
	case "Tj":
		if len(op.Operands) == 1 {
			if s, ok := op.Operands[0].(core.String); ok {
				e.showText([]byte(s))
			}
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				e.showTextArray(arr)
			}
		}
	case "'":
		e.gs.NextLine()
		if len(op.Operands) == 1 {
			if s, ok := op.Operands[0].(core.String); ok {
				e.showText([]byte(s))
			}
		}
	case "\"":
		if len(op.Operands) == 3 {
			if ws, ok := toFloat(op.Operands[0]); ok {
				e.gs.SetWordSpacing(ws)
			}
			if cs, ok := toFloat(op.Operands[1]); ok {
				e.gs.SetCharSpacing(cs)
			}
			e.gs.NextLine()
			if s, ok := op.Operands[2].(core.String); ok {
				e.showText([]byte(s))
			}
		}

	case "Do":
		if len(op.Operands) == 1 {
			if name, ok := op.Operands[0].(core.Name); ok {
				// A broken form must not abort the page.
				_ = e.invokeXObject(string(name))
			}
		}
	}
	return nil
}

// setFillColorN handles sc/scn. Pattern operands are ignored; the number of
// numeric components selects gray, RGB or CMYK.
func (e *Extractor) setFillColorN(operands []core.Object) {
	var c []float64
	for _, op := range operands {
		if v, ok := toFloat(op); ok {
			c = append(c, v)
		}
	}
	switch len(c) {
	case 1:
		e.gs.SetFillColorRGB(c[0], c[0], c[0])
	case 3:
		e.gs.SetFillColorRGB(c[0], c[1], c[2])
	case 4:
		e.gs.SetFillColorRGB(cmykToRGB(c[0], c[1], c[2], c[3]))
	}
}

func (e *Extractor) invokeXObject(name string) error {
	if e.resources == nil || e.resolver == nil {
		return nil
	}
	if e.depth >= e.maxDepth {
		return fmt.Errorf("XObject nesting too deep (max %d)", e.maxDepth)
	}

	xobjs, err := resolveIfRef(e.resources.Get("XObject"), e.resolver)
	if err != nil {
		return fmt.Errorf("resolving XObject dictionary: %w", err)
	}
	xobjDict, ok := xobjs.(core.Dict)
	if !ok {
		return nil
	}
	ref := xobjDict.Get(strings.TrimPrefix(name, "/"))
	if ref == nil {
		return nil
	}
	obj, err := resolveIfRef(ref, e.resolver)
	if err != nil {
		return fmt.Errorf("resolving XObject %s: %w", name, err)
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil
	}
	if subtype, ok := stream.Dict.Get("Subtype").(core.Name); !ok || string(subtype) != "Form" {
		return nil
	}

	data, err := stream.Decode()
	if err != nil {
		return fmt.Errorf("decoding XObject %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	operations, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parsing XObject %s: %w", name, err)
	}

	oldResources := e.resources
	if resObj, err := resolveIfRef(stream.Dict.Get("Resources"), e.resolver); err == nil {
		if res, ok := resObj.(core.Dict); ok {
			_ = e.RegisterFontsFromResources(res, e.resolver)
			e.resources = res
		}
	}

	e.gs.Save()
	e.depth++
	if m, ok := stream.Dict.Get("Matrix").(core.Array); ok && len(m) == 6 {
		e.gs.Transform(operandsToMatrix([]core.Object(m)))
	}
	for _, op := range operations {
		_ = e.processOperation(op)
	}
	e.depth--
	_ = e.gs.Restore()
	e.resources = oldResources
	return nil
}

func (e *Extractor) showText(data []byte) {
	x, y := e.gs.GetTextPosition()
	fontSize := e.gs.GetEffectiveFontSize()
	info := e.fonts[e.gs.GetFontName()]

	var decoded string
	var width float64
	frag := Fragment{Ascent: defaultAscent, Descent: defaultDescent}
	if info != nil {
		decoded = info.font.DecodeString(data)
		width = info.font.GetStringWidth(decoded) * fontSize / 1000.0
		frag.FontName = info.name
		frag.Ascent = info.ascent
		frag.Descent = info.descent
	} else {
		decoded = string(data)
		width = float64(len(decoded)) * fontSize * 0.5
	}

	ctm := e.gs.CTM
	ctmScale := math.Sqrt(ctm[2]*ctm[2] + ctm[3]*ctm[3])
	if ctmScale == 0 {
		ctmScale = 1.0
	}
	hScale := e.gs.Text.HorizontalScaling / 100.0

	frag.Text = decoded
	frag.X = x
	frag.Y = y
	frag.Width = width * hScale * ctmScale
	frag.FontSize = QuantizeSize(fontSize * ctmScale)
	fc := e.gs.FillColor
	frag.Color = model.RGBFromFloats(fc[0], fc[1], fc[2])

	if decoded != "" {
		e.fragments = append(e.fragments, frag)
	}
	e.gs.ShowTextWithWidth(string(data), width*hScale)
}

func (e *Extractor) showTextArray(arr core.Array) {
	for _, item := range arr {
		if s, ok := item.(core.String); ok {
			e.showText([]byte(s))
			continue
		}
		if v, ok := toFloat(item); ok {
			hScale := e.gs.Text.HorizontalScaling / 100.0
			tm := e.gs.GetTextMatrix()
			tm[4] += -v * e.gs.GetEffectiveFontSize() * hScale / 1000.0
			e.gs.Text.TextMatrix = tm
		}
	}
}

// Fragments returns the fragments extracted so far.
func (e *Extractor) Fragments() []Fragment {
	return e.fragments
}

// QuantizeSize rounds a font size to 0.01pt so that sizes computed through
// matrix products compare equal to their nominal values.
func QuantizeSize(size float64) float64 {
	return math.Round(size*100) / 100
}

func cmykToRGB(c, m, y, k float64) (r, g, b float64) {
	return 1 - math.Min(1, c+k), 1 - math.Min(1, m+k), 1 - math.Min(1, y+k)
}

func floats(operands []core.Object, n int) ([]float64, bool) {
	if len(operands) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, op := range operands {
		v, ok := toFloat(op)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func toFloat(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

func operandsToMatrix(operands []core.Object) pdfmodel.Matrix {
	if len(operands) != 6 {
		return pdfmodel.Identity()
	}
	var m pdfmodel.Matrix
	for i, op := range operands {
		m[i], _ = toFloat(op)
	}
	return m
}
