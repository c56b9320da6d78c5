// Package ocr produces alt text for captured region images by running them
// through the Tesseract OCR engine via gosseract.
//
// OCR support is opt-in. Build with the "ocr" tag to enable it:
//
//	go build -tags ocr ./...
//
// This requires Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// Without the tag every constructor returns [ErrOCRNotEnabled].
package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// DefaultScale is the upscaling factor applied before recognition. Region
// captures of small marked text recognise better when enlarged.
const DefaultScale = 2

// Config holds Describer settings.
type Config struct {
	// Language is a Tesseract language list such as "eng" or "eng+fra"
	Language string

	// Scale enlarges images before recognition (default: DefaultScale)
	Scale int

	// MaxLength truncates the alt text, 0 means no limit
	MaxLength int
}

// DefaultConfig returns the configuration for English text.
func DefaultConfig() Config {
	return Config{
		Language: "eng",
		Scale:    DefaultScale,
	}
}

// truncate shortens s to at most n runes, n <= 0 meaning no limit.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
