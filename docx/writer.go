package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
)

// Unit conversions used by WordprocessingML.
const (
	EMUPerInch   = 914400
	TwipsPerInch = 1440
)

// Letter page with one inch margins, in twips.
const (
	pageWidthTwips  = 12240
	pageHeightTwips = 15840
	marginTwips     = 1440
)

// EMU converts inches to English Metric Units.
func EMU(inches float64) int64 {
	return int64(math.Round(inches * EMUPerInch))
}

// Twips converts inches to twentieths of a point.
func Twips(inches float64) int {
	return int(math.Round(inches * TwipsPerInch))
}

// Picture is an inline image paragraph.
type Picture struct {
	// Data holds the encoded image
	Data []byte

	// Format is "png" or "jpeg"
	Format string

	// WidthInches and HeightInches are the displayed size
	WidthInches  float64
	HeightInches float64

	// IndentInches is the paragraph's left indent
	IndentInches float64

	// AltText becomes the picture description
	AltText string
}

type part struct {
	name string
	data []byte
}

type block struct {
	text    string
	picture *Picture
	media   int
}

// Builder assembles a DOCX document from text and picture paragraphs, in
// order.
type Builder struct {
	title  string
	blocks []block
	media  [][]byte
	exts   []string
}

// NewBuilder creates an empty document builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetTitle sets the document title stored in the core properties.
func (b *Builder) SetTitle(title string) *Builder {
	b.title = title
	return b
}

// AddParagraph appends a plain text paragraph.
func (b *Builder) AddParagraph(text string) {
	b.blocks = append(b.blocks, block{text: text})
}

// AddPicture appends a left-aligned paragraph holding one inline picture.
func (b *Builder) AddPicture(p Picture) error {
	ext, err := mediaExtension(p.Format)
	if err != nil {
		return err
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("picture %d has no data", len(b.media)+1)
	}
	b.media = append(b.media, p.Data)
	b.exts = append(b.exts, ext)
	pic := p
	b.blocks = append(b.blocks, block{picture: &pic, media: len(b.media)})
	return nil
}

// PictureCount returns the number of pictures added so far.
func (b *Builder) PictureCount() int {
	return len(b.media)
}

func mediaExtension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "png":
		return "png", nil
	case "jpeg", "jpg":
		return "jpeg", nil
	default:
		return "", fmt.Errorf("unsupported picture format %q", format)
	}
}

// Write writes the document as a DOCX package.
func (b *Builder) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	parts := []part{
		{"[Content_Types].xml", b.contentTypes()},
		{"_rels/.rels", packageRels()},
		{"docProps/core.xml", b.coreProps()},
		{"word/document.xml", b.document()},
		{"word/_rels/document.xml.rels", b.documentRels()},
	}
	for i, data := range b.media {
		parts = append(parts, part{mediaName(i+1, b.exts[i]), data})
	}

	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing DOCX archive: %w", err)
	}
	return nil
}

// Bytes returns the document as DOCX bytes.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mediaName(n int, ext string) string {
	return fmt.Sprintf("word/media/image%d.%s", n, ext)
}

func imageRelID(n int) string {
	return fmt.Sprintf("rIdImage%d", n)
}

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails on writer errors, which bytes.Buffer never returns.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (b *Builder) contentTypes() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<Types xmlns="%s">`, nsCT)
	buf.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	buf.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	buf.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	buf.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	buf.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	buf.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	buf.WriteString(`</Types>`)
	return buf.Bytes()
}

func packageRels() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<Relationships xmlns="%s">`, nsPkg)
	fmt.Fprintf(&buf, `<Relationship Id="rId1" Type="%s" Target="word/document.xml"/>`, relTypeDocument)
	fmt.Fprintf(&buf, `<Relationship Id="rId2" Type="%s" Target="docProps/core.xml"/>`, relTypeCore)
	buf.WriteString(`</Relationships>`)
	return buf.Bytes()
}

func (b *Builder) coreProps() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<cp:coreProperties xmlns:cp="%s" xmlns:dc="%s">`, nsCP, nsDC)
	fmt.Fprintf(&buf, `<dc:title>%s</dc:title>`, escape(b.title))
	buf.WriteString(`<dc:creator>redline</dc:creator>`)
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes()
}

func (b *Builder) documentRels() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<Relationships xmlns="%s">`, nsPkg)
	for i := range b.media {
		target := strings.TrimPrefix(mediaName(i+1, b.exts[i]), "word/")
		fmt.Fprintf(&buf, `<Relationship Id="%s" Type="%s" Target="%s"/>`, imageRelID(i+1), relTypeImage, target)
	}
	buf.WriteString(`</Relationships>`)
	return buf.Bytes()
}

func (b *Builder) document() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, `<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s">`,
		nsW, nsR, nsWP, nsA, nsPic)
	buf.WriteString(`<w:body>`)

	for _, blk := range b.blocks {
		if blk.picture == nil {
			fmt.Fprintf(&buf, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(blk.text))
			continue
		}
		writePicture(&buf, blk.picture, blk.media)
	}

	fmt.Fprintf(&buf, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`,
		pageWidthTwips, pageHeightTwips, marginTwips, marginTwips, marginTwips, marginTwips)
	buf.WriteString(`</w:body></w:document>`)
	return buf.Bytes()
}

func writePicture(buf *bytes.Buffer, p *Picture, n int) {
	cx, cy := EMU(p.WidthInches), EMU(p.HeightInches)
	name := fmt.Sprintf("Picture %d", n)
	alt := escape(p.AltText)

	buf.WriteString(`<w:p><w:pPr><w:spacing w:before="0" w:after="0"/>`)
	fmt.Fprintf(buf, `<w:ind w:left="%d"/><w:jc w:val="left"/></w:pPr>`, Twips(p.IndentInches))
	buf.WriteString(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`)
	fmt.Fprintf(buf, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	fmt.Fprintf(buf, `<wp:docPr id="%d" name="%s" descr="%s"/>`, n, name, alt)
	buf.WriteString(`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	buf.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic>`)
	fmt.Fprintf(buf, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s" descr="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, n, name, alt)
	fmt.Fprintf(buf, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, imageRelID(n))
	fmt.Fprintf(buf, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, cx, cy)
	buf.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`)
}
