//go:build ocr

package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"
)

// Describer recognises the text of region images.
type Describer struct {
	client *gosseract.Client
	config Config
}

// New creates a Describer.
// The Describer should be closed when no longer needed to release resources.
func New(config Config) (*Describer, error) {
	if config.Scale < 1 {
		config.Scale = DefaultScale
	}
	client := gosseract.NewClient()
	if config.Language != "" {
		if err := client.SetLanguage(config.Language); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting OCR language: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	return &Describer{client: client, config: config}, nil
}

// Close releases OCR resources.
func (d *Describer) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// AltText recognises the text of encoded image data (PNG or JPEG).
// Whitespace runs are collapsed to single spaces.
func (d *Describer) AltText(data []byte) (string, error) {
	prepared, err := d.prepare(data)
	if err != nil {
		return "", err
	}
	if err := d.client.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := d.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return truncate(strings.Join(strings.Fields(text), " "), d.config.MaxLength), nil
}

func (d *Describer) prepare(data []byte) ([]byte, error) {
	if d.config.Scale == 1 {
		return data, nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*d.config.Scale, b.Dy()*d.config.Scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
