package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Poppler renders pages of a PDF file with poppler's pdftoppm.
type Poppler struct {
	// Path is the document to render
	Path string

	// Binary is the pdftoppm executable (default: "pdftoppm" from PATH)
	Binary string
}

// NewPoppler creates a renderer for the PDF at path.
func NewPoppler(path string) *Poppler {
	return &Poppler{Path: path, Binary: "pdftoppm"}
}

// Available reports whether the pdftoppm binary can be found.
func (p *Poppler) Available() bool {
	_, err := exec.LookPath(p.binary())
	return err == nil
}

func (p *Poppler) binary() string {
	if p.Binary == "" {
		return "pdftoppm"
	}
	return p.Binary
}

// RenderPage renders one page to PNG in a scratch directory and decodes it.
// pdftoppm renders the MediaBox, which is the page space used by the
// classifier.
func (p *Poppler) RenderPage(ctx context.Context, pageIndex int, dpi int) (image.Image, error) {
	workDir, err := os.MkdirTemp("", "redline-render-")
	if err != nil {
		return nil, fmt.Errorf("creating render directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	page := strconv.Itoa(pageIndex + 1)
	prefix := filepath.Join(workDir, "page")
	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", page,
		"-l", page,
		"-singlefile",
		p.Path,
		prefix,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary(), args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("pdftoppm failed on page %s: %w: %s", page, err, msg)
		}
		return nil, fmt.Errorf("pdftoppm failed on page %s: %w", page, err)
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("reading rendered page %s: %w", page, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding rendered page %s: %w", page, err)
	}
	return img, nil
}
