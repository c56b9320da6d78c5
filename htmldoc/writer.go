package htmldoc

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Image is a picture paragraph.
type Image struct {
	Data         []byte
	Format       string // "png" or "jpeg"
	WidthInches  float64
	HeightInches float64
	IndentInches float64
	AltText      string
}

// Writer builds an HTML page from text and image paragraphs, in order.
type Writer struct {
	title string
	body  []*html.Node
}

// NewWriter creates an empty page writer.
func NewWriter() *Writer {
	return &Writer{}
}

// SetTitle sets the page title.
func (w *Writer) SetTitle(title string) *Writer {
	w.title = title
	return w
}

// AddParagraph appends a text paragraph.
func (w *Writer) AddParagraph(text string) {
	p := element(atom.P)
	p.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	w.body = append(w.body, p)
}

// AddImage appends a paragraph holding one embedded image.
func (w *Writer) AddImage(img Image) error {
	mime, err := mimeType(img.Format)
	if err != nil {
		return err
	}
	if len(img.Data) == 0 {
		return fmt.Errorf("image %d has no data", w.ImageCount()+1)
	}

	p := element(atom.P,
		html.Attribute{Key: "class", Val: "region"},
		html.Attribute{Key: "style", Val: fmt.Sprintf("margin:0;margin-left:%.3fin", img.IndentInches)},
	)
	src := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	p.AppendChild(element(atom.Img,
		html.Attribute{Key: "src", Val: src},
		html.Attribute{Key: "alt", Val: img.AltText},
		html.Attribute{Key: "style", Val: fmt.Sprintf("width:%.3fin;height:%.3fin", img.WidthInches, img.HeightInches)},
	))
	w.body = append(w.body, p)
	return nil
}

// ImageCount returns the number of images added so far.
func (w *Writer) ImageCount() int {
	n := 0
	for _, p := range w.body {
		if p.FirstChild != nil && p.FirstChild.DataAtom == atom.Img {
			n++
		}
	}
	return n
}

// Write renders the page.
func (w *Writer) Write(out io.Writer) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "en"})
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: w.title})
	head.AppendChild(title)
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: "body{width:6.5in;margin:1in auto}p.region{line-height:0}"})
	head.AppendChild(style)
	root.AppendChild(head)

	body := element(atom.Body)
	for _, p := range w.body {
		body.AppendChild(cloneNode(p))
	}
	root.AppendChild(body)
	doc.AppendChild(root)

	if err := html.Render(out, doc); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// cloneNode deep-copies n so Write can be called more than once.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{Type: n.Type, DataAtom: n.DataAtom, Data: n.Data, Attr: append([]html.Attribute(nil), n.Attr...)}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func mimeType(format string) (string, error) {
	switch strings.ToLower(format) {
	case "png":
		return "image/png", nil
	case "jpeg", "jpg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}
