package classify

import (
	"testing"

	"github.com/tsawler/redline/model"
)

func TestSig_Quantises(t *testing.T) {
	if Sig(10.999999, "Arial-BoldMT") != Sig(11, "Arial-BoldMT") {
		t.Error("sizes within 0.01pt should produce equal signatures")
	}
	if Sig(10.98, "Arial-BoldMT") == Sig(11, "Arial-BoldMT") {
		t.Error("sizes 0.02pt apart should differ")
	}
}

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		name string
		span model.Span
		ok   bool
	}{
		{"complete", model.Span{FontName: "Arial-BoldMT", FontSize: 11}, true},
		{"no font", model.Span{FontSize: 11}, false},
		{"no size", model.Span{FontName: "Arial-BoldMT"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := SignatureOf(tt.span)
			if ok != tt.ok {
				t.Errorf("SignatureOf ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestDefaultTemplate_Roles(t *testing.T) {
	tmpl := DefaultTemplate()
	tests := []struct {
		size float64
		font string
		want Role
	}{
		{11, "Arial-BoldMT", RoleHeading2},
		{10, "Arial-BoldMT", RoleHeading3},
		{12, "Arial-Black", RoleChapter},
		{12, "Arial-BoldMT", RoleFigureTitle},
		{8, "CambriaMath", RoleFormula},
		{10.5, "CambriaMath", RoleFormula},
		{9, "TimesNewRomanPSMT", RoleTableBody},
		{9, "TimesNewRomanPS-BoldMT", RoleTableBody},
		{14, "Arial-Black", RoleBlackTitle},
		{36, "Arial-Black", RoleBlackTitle},
		{10, "TimesNewRomanPSMT", RoleNone},
	}

	for _, tt := range tests {
		if got := tmpl.Role(Sig(tt.size, tt.font)); got != tt.want {
			t.Errorf("Role(%v %s) = %v, want %v", tt.size, tt.font, got, tt.want)
		}
	}
}

func TestTemplate_IsTrigger(t *testing.T) {
	tmpl := DefaultTemplate()
	tests := []struct {
		sig  Signature
		text string
		want bool
	}{
		{Sig(9, "TimesNewRomanPSMT"), "anything", true},
		{Sig(12, "Arial-ItalicMT"), "2024", true},
		{Sig(12, "Arial-ItalicMT"), "2025", true},
		{Sig(12, "Arial-ItalicMT"), "2026", false},
		{Sig(12, "Arial-ItalicMT"), " 2024", false},
		{Sig(9, "TimesNewRomanPS-BoldMT"), "bold cell", false},
	}

	for _, tt := range tests {
		if got := tmpl.IsTrigger(tt.sig, tt.text); got != tt.want {
			t.Errorf("IsTrigger(%+v, %q) = %v, want %v", tt.sig, tt.text, got, tt.want)
		}
	}
}

func TestTemplate_IsBullet(t *testing.T) {
	tmpl := DefaultTemplate()
	if !tmpl.IsBullet("•") || !tmpl.IsBullet("–") {
		t.Error("expected bullet glyphs to match")
	}
	if tmpl.IsBullet("• item") || tmpl.IsBullet("-") {
		t.Error("only exact bullet glyphs should match")
	}
}

func TestRoleString(t *testing.T) {
	if RoleHeading2.String() != "heading-2" {
		t.Errorf("RoleHeading2.String() = %q", RoleHeading2.String())
	}
	if Role(99).String() != "unknown" {
		t.Errorf("Role(99).String() = %q", Role(99).String())
	}
}

func TestHeadingContext_StartPage(t *testing.T) {
	hc := HeadingContext{
		Level2Active:       true,
		Level3Active:       true,
		FigureShownOnPage:  true,
		TableHandledOnPage: true,
	}
	next := hc.StartPage()
	if !next.Level2Active || !next.Level3Active {
		t.Error("heading levels should carry over")
	}
	if next.FigureShownOnPage || next.TableHandledOnPage {
		t.Error("per-page flags should reset")
	}
}

func TestNew_PartialTemplateKeepsMarkedColour(t *testing.T) {
	green := model.RGB{R: 0, G: 160, B: 0}
	c := New(Config{Template: Template{Marked: green}})

	if c.tmpl.Marked != green {
		t.Errorf("Marked = %v, want %v", c.tmpl.Marked, green)
	}
	if c.tmpl.Role(Sig(11, "Arial-BoldMT")) != RoleHeading2 {
		t.Error("unset Roles should come from the default template")
	}
	if !c.tmpl.IsBullet("•") {
		t.Error("unset Bullets should come from the default template")
	}
	if c.tmpl.FormulaShrink != DefaultTemplate().FormulaShrink {
		t.Errorf("FormulaShrink = %v", c.tmpl.FormulaShrink)
	}

	page := makePage(0, makeBlock(100, 110, body("green note", green)))
	regions, _ := classify(t, c, page, HeadingContext{})
	assertKinds(t, regions, model.MarkedText)
}

func TestNew_EmptyRuleSetsStayEmpty(t *testing.T) {
	c := New(Config{Template: Template{Bullets: []string{}, TableTriggers: []Trigger{}}})

	if c.tmpl.IsBullet("•") {
		t.Error("an empty bullet list should not be replaced")
	}
	if c.tmpl.IsTrigger(Sig(9, "TimesNewRomanPSMT"), "x") {
		t.Error("an empty trigger list should not be replaced")
	}
}
