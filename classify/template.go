package classify

import (
	"math"
	"strings"

	"github.com/tsawler/redline/model"
)

// Role is the structural meaning of a font signature in a document template.
type Role int

const (
	// RoleNone means the signature carries no structural meaning
	RoleNone Role = iota

	// RoleHeading2 marks a second-level heading
	RoleHeading2

	// RoleHeading3 marks a third-level heading
	RoleHeading3

	// RoleChapter marks a chapter boundary, which closes open headings
	RoleChapter

	// RoleFigureTitle marks the caption line of a figure
	RoleFigureTitle

	// RoleFormula marks mathematical content
	RoleFormula

	// RoleTableBody marks text set inside a table
	RoleTableBody

	// RoleBlackTitle marks a large unmarked title
	RoleBlackTitle
)

// String returns a string representation of the role
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleHeading2:
		return "heading-2"
	case RoleHeading3:
		return "heading-3"
	case RoleChapter:
		return "chapter"
	case RoleFigureTitle:
		return "figure-title"
	case RoleFormula:
		return "formula"
	case RoleTableBody:
		return "table-body"
	case RoleBlackTitle:
		return "black-title"
	default:
		return "unknown"
	}
}

// Signature identifies a span's typography: size in points, quantised to
// 0.01pt, and the PostScript font name without subset prefix.
type Signature struct {
	Size float64
	Font string
}

// Sig builds a signature with a quantised size.
func Sig(size float64, font string) Signature {
	return Signature{Size: quantize(size), Font: font}
}

// SignatureOf returns the signature of s. It returns false when the span has
// no font name or size.
func SignatureOf(s model.Span) (Signature, bool) {
	if !s.HasFontMetadata() {
		return Signature{}, false
	}
	return Sig(s.FontSize, s.FontName), true
}

func quantize(size float64) float64 {
	return math.Round(size*100) / 100
}

// Trigger is a signature that starts the table pass when a marked span
// carries it. When Texts is non-empty the span text must also equal one of
// them exactly.
type Trigger struct {
	Signature Signature
	Texts     []string
}

// Matches reports whether a span with the given signature and text fires
// the trigger.
func (t Trigger) Matches(sig Signature, text string) bool {
	if sig != t.Signature {
		return false
	}
	if len(t.Texts) == 0 {
		return true
	}
	for _, want := range t.Texts {
		if text == want {
			return true
		}
	}
	return false
}

// Template is the rule table for one document template: the colours that
// matter, the bullet glyphs to ignore and what each font signature means.
type Template struct {
	// Marked is the exact highlight colour
	Marked model.RGB

	// Black is the colour of unmarked titles
	Black model.RGB

	// Bullets are span texts that never count as marked content
	Bullets []string

	// Roles maps font signatures to their structural role
	Roles map[Signature]Role

	// TableTriggers start the table pass for a page
	TableTriggers []Trigger

	// FormulaShrink scales formula regions vertically toward their midpoint
	FormulaShrink float64
}

// DefaultTemplate returns the rule table of the supported textbook layout.
func DefaultTemplate() Template {
	return Template{
		Marked:  model.RGB{R: 218, G: 31, B: 51},
		Black:   model.RGB{R: 0, G: 0, B: 0},
		Bullets: []string{"•", "●", "∙", "–"},
		Roles: map[Signature]Role{
			Sig(11, "Arial-BoldMT"):          RoleHeading2,
			Sig(10, "Arial-BoldMT"):          RoleHeading3,
			Sig(12, "Arial-Black"):           RoleChapter,
			Sig(12, "Arial-BoldMT"):          RoleFigureTitle,
			Sig(8, "CambriaMath"):            RoleFormula,
			Sig(10.5, "CambriaMath"):         RoleFormula,
			Sig(9, "TimesNewRomanPSMT"):      RoleTableBody,
			Sig(9, "TimesNewRomanPS-BoldMT"): RoleTableBody,
			Sig(14, "Arial-Black"):           RoleBlackTitle,
			Sig(36, "Arial-Black"):           RoleBlackTitle,
		},
		TableTriggers: []Trigger{
			{Signature: Sig(9, "TimesNewRomanPSMT")},
			{Signature: Sig(12, "Arial-ItalicMT"), Texts: []string{"2024", "2025"}},
		},
		FormulaShrink: 0.96,
	}
}

// withDefaults fills the unset fields of t from DefaultTemplate. Black is
// left alone since its zero value is the default.
func (t Template) withDefaults() Template {
	def := DefaultTemplate()
	if t.Marked == (model.RGB{}) {
		t.Marked = def.Marked
	}
	if t.Bullets == nil {
		t.Bullets = def.Bullets
	}
	if t.Roles == nil {
		t.Roles = def.Roles
	}
	if t.TableTriggers == nil {
		t.TableTriggers = def.TableTriggers
	}
	if t.FormulaShrink == 0 {
		t.FormulaShrink = def.FormulaShrink
	}
	return t
}

// Role returns the role of sig, or RoleNone.
func (t Template) Role(sig Signature) Role {
	return t.Roles[sig]
}

// IsBullet reports whether text is exactly one of the bullet glyphs.
func (t Template) IsBullet(text string) bool {
	for _, b := range t.Bullets {
		if text == b {
			return true
		}
	}
	return false
}

// IsTrigger reports whether a marked span with this signature and text
// starts the table pass.
func (t Template) IsTrigger(sig Signature, text string) bool {
	for _, tr := range t.TableTriggers {
		if tr.Matches(sig, text) {
			return true
		}
	}
	return false
}

// isBoldFont reports whether a font name denotes a bold or black weight.
func isBoldFont(name string) bool {
	return strings.Contains(name, "Bold") || strings.Contains(name, "Black")
}
