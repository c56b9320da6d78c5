//go:build !ocr

package ocr

// Describer is a stub that cannot be constructed.
type Describer struct{}

// New returns an error indicating OCR support is not enabled.
// To enable OCR, rebuild with: go build -tags ocr
func New(config Config) (*Describer, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op for the stub.
// It is safe to call on a nil Describer.
func (d *Describer) Close() error {
	return nil
}

// AltText returns an error indicating OCR support is not enabled.
func (d *Describer) AltText(data []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
