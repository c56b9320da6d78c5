package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// Paragraph is one body paragraph of a DOCX document.
type Paragraph struct {
	Text        string
	Alignment   string
	IndentTwips int
	Pictures    []PictureInfo
}

// PictureInfo describes an inline picture.
type PictureInfo struct {
	// Target is the media part, e.g. "word/media/image1.png"
	Target    string
	WidthEMU  int64
	HeightEMU int64
	AltText   string
}

// Reader provides access to DOCX document content.
type Reader struct {
	closer     io.Closer
	files      map[string]*zip.File
	document   *documentXML
	rels       *relationshipsXML
	coreProps  *corePropertiesXML
	paragraphs []Paragraph
}

// Open opens a DOCX file for reading.
func Open(filename string) (*Reader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	r, err := newReader(&zr.Reader)
	if err != nil {
		zr.Close()
		return nil, err
	}
	r.closer = zr
	return r, nil
}

// OpenBytes reads a DOCX document held in memory.
func OpenBytes(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return newReader(zr)
}

func newReader(zr *zip.Reader) (*Reader, error) {
	r := &Reader{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		r.files[f.Name] = f
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := r.parseRelationships(); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	if err := r.parseDocument(); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	r.parseCoreProperties()
	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

// validate checks that required DOCX files exist.
func (r *Reader) validate() error {
	for _, name := range []string{"[Content_Types].xml", "word/document.xml"} {
		if _, ok := r.files[name]; !ok {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

// getFileContent reads the content of a file from the ZIP archive.
func (r *Reader) getFileContent(name string) ([]byte, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Paragraphs returns the body paragraphs in document order.
func (r *Reader) Paragraphs() []Paragraph {
	return r.paragraphs
}

// Text returns the text of all paragraphs, one per line.
func (r *Reader) Text() string {
	texts := make([]string, len(r.paragraphs))
	for i, p := range r.paragraphs {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n")
}

// Title returns the document title from the core properties.
func (r *Reader) Title() string {
	if r.coreProps == nil {
		return ""
	}
	return r.coreProps.Title
}

// PictureCount returns the number of inline pictures in the body.
func (r *Reader) PictureCount() int {
	n := 0
	for _, p := range r.paragraphs {
		n += len(p.Pictures)
	}
	return n
}

// Media returns the bytes of a media part.
func (r *Reader) Media(target string) ([]byte, error) {
	return r.getFileContent(target)
}

// PageSize returns the section page size in twips, or zeros when absent.
func (r *Reader) PageSize() (width, height int) {
	if r.document.Body == nil || r.document.Body.SectPr == nil {
		return 0, 0
	}
	ps := r.document.Body.SectPr.PageSize
	w, _ := strconv.Atoi(ps.W)
	h, _ := strconv.Atoi(ps.H)
	return w, h
}

// parseRelationships parses the document relationships file.
func (r *Reader) parseRelationships() error {
	data, err := r.getFileContent("word/_rels/document.xml.rels")
	if err != nil {
		// Relationships file is optional
		return nil
	}

	r.rels = &relationshipsXML{}
	return xml.Unmarshal(data, r.rels)
}

// parseDocument parses the main document content.
func (r *Reader) parseDocument() error {
	data, err := r.getFileContent("word/document.xml")
	if err != nil {
		return err
	}

	r.document = &documentXML{}
	if err := xml.Unmarshal(data, r.document); err != nil {
		return fmt.Errorf("unmarshaling document.xml: %w", err)
	}

	if r.document.Body != nil {
		for _, p := range r.document.Body.Paragraphs {
			r.paragraphs = append(r.paragraphs, r.processParagraph(p))
		}
	}
	return nil
}

func (r *Reader) parseCoreProperties() {
	data, err := r.getFileContent("docProps/core.xml")
	if err != nil {
		return
	}
	props := &corePropertiesXML{}
	if xml.Unmarshal(data, props) == nil {
		r.coreProps = props
	}
}

func (r *Reader) processParagraph(p paragraphXML) Paragraph {
	out := Paragraph{Alignment: p.Properties.Justification.Val}
	out.IndentTwips, _ = strconv.Atoi(p.Properties.Indent.Left)

	var text strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			text.WriteString(t.Value)
		}
		for _, d := range run.Drawing {
			if d.Inline == nil {
				continue
			}
			out.Pictures = append(out.Pictures, r.pictureInfo(d.Inline))
		}
	}
	out.Text = text.String()
	return out
}

func (r *Reader) pictureInfo(in *inlineXML) PictureInfo {
	info := PictureInfo{AltText: in.DocPr.Descr}
	info.WidthEMU, _ = strconv.ParseInt(in.Extent.CX, 10, 64)
	info.HeightEMU, _ = strconv.ParseInt(in.Extent.CY, 10, 64)
	if in.Blip != nil {
		info.Target = r.resolveTarget(in.Blip.Embed)
	}
	return info
}

// resolveTarget maps a relationship ID to a package part name.
func (r *Reader) resolveTarget(id string) string {
	if r.rels == nil {
		return ""
	}
	for _, rel := range r.rels.Relationships {
		if rel.ID == id {
			if strings.HasPrefix(rel.Target, "/") {
				return strings.TrimPrefix(rel.Target, "/")
			}
			return path.Join("word", rel.Target)
		}
	}
	return ""
}
