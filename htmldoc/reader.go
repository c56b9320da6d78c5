package htmldoc

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is the content of a parsed page.
type Document struct {
	Title      string
	Paragraphs []string
	Images     []ParsedImage
}

// ParsedImage is an image found in the page body.
type ParsedImage struct {
	Src   string
	Alt   string
	Style string
}

// Data decodes a base64 data URI source. Other sources yield an error.
func (img ParsedImage) Data() ([]byte, error) {
	_, payload, ok := strings.Cut(img.Src, ";base64,")
	if !ok || !strings.HasPrefix(img.Src, "data:") {
		return nil, fmt.Errorf("image source is not a base64 data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc := &Document{}
	doc.walk(root)
	return doc, nil
}

func (d *Document) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			d.Title = getTextContent(n)
			return
		case "style", "script":
			return
		case "img":
			d.Images = append(d.Images, ParsedImage{
				Src:   getAttr(n, "src"),
				Alt:   getAttr(n, "alt"),
				Style: getAttr(n, "style"),
			})
		case "p":
			if text := getTextContent(n); text != "" {
				d.Paragraphs = append(d.Paragraphs, text)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c)
	}
}

func getTextContent(n *html.Node) string {
	var result strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			result.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(result.String())
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
