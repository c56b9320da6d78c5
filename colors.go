package redline

import (
	"sort"
	"strings"

	"github.com/tsawler/redline/model"
)

// ColorSamplePages is the number of leading pages ColorReport inspects when no
// pages are selected.
const ColorSamplePages = 10

// ColorCount is one entry of a colour report.
type ColorCount struct {
	Color model.RGB
	Count int

	// Sample is the first span seen in this colour, cut to 30 characters
	Sample string

	// PotentiallyRed is set for strongly red colours (R > 150, G < 100,
	// B < 100), the candidates for a template's marked colour.
	PotentiallyRed bool
}

// ColorReport counts the fill colours of non-blank text spans, most frequent
// first. It inspects the selected pages, or the first ColorSamplePages
// pages when none are selected, and is meant for finding the marked colour
// of an unfamiliar document.
func (e *Extractor) ColorReport() ([]ColorCount, []Warning, error) {
	doc, err := e.open()
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close()

	pages := e.options.pages
	if len(pages) == 0 {
		for i := 1; i <= min(ColorSamplePages, doc.PageCount()); i++ {
			pages = append(pages, i)
		}
	}
	indices, err := resolvePages(pages, doc.PageCount())
	if err != nil {
		return nil, nil, err
	}

	ctx := e.context()
	counts := make(map[model.RGB]*ColorCount)
	var order []*ColorCount
	for _, i := range indices {
		page, err := doc.Page(ctx, i)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range page.Blocks {
			for _, s := range b.Spans() {
				text := strings.TrimSpace(s.Text)
				if text == "" {
					continue
				}
				c, ok := counts[s.Color]
				if !ok {
					c = &ColorCount{
						Color:          s.Color,
						Sample:         sample(text),
						PotentiallyRed: isPotentiallyRed(s.Color),
					}
					counts[s.Color] = c
					order = append(order, c)
				}
				c.Count++
			}
		}
	}

	out := make([]ColorCount, len(order))
	for i, c := range order {
		out[i] = *c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, nil, nil
}

func isPotentiallyRed(c model.RGB) bool {
	return c.R > 150 && c.G < 100 && c.B < 100
}

func sample(text string) string {
	r := []rune(text)
	if len(r) <= 30 {
		return text
	}
	return string(r[:30]) + "..."
}
