// Package redline extracts the marked (red) content of fixed-layout PDF
// documents and rebuilds it as a flowing DOCX or HTML document.
//
// Basic usage:
//
//	out, warnings, err := redline.Open("chapter.pdf").DOCX()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", redline.FormatWarnings(warnings))
//	}
//
// With options:
//
//	out, _, err := redline.Open("chapter.pdf").
//	    Pages(3, 4).
//	    DPI(300).
//	    Logger(log).
//	    HTML()
//
// Each page is classified block by block against a [classify.Template];
// the chosen regions are rasterised from the rendered page, ordered top to
// bottom and laid out one picture per paragraph. The lower-level packages
// (reader, classify, compose, flow) are usable on their own.
package redline

import "context"

// Open returns an Extractor for the PDF file at path.
//
// Example:
//
//	out, warnings, err := redline.Open("document.pdf").DOCX()
func Open(path string) *Extractor {
	return &Extractor{
		name:    path,
		path:    path,
		options: defaultOptions(),
	}
}

// FromBytes returns an Extractor for an in-memory PDF. name is used for
// log fields and the document title.
func FromBytes(name string, data []byte) *Extractor {
	return &Extractor{
		name:    name,
		data:    data,
		inMem:   true,
		options: defaultOptions(),
	}
}

// Convert turns one PDF byte stream into DOCX bytes.
func Convert(ctx context.Context, name string, data []byte, opts ...Option) ([]byte, error) {
	out, _, err := FromBytes(name, data).Context(ctx).With(opts...).DOCX()
	return out, err
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustResult is like Must for terminal operations. It discards warnings.
//
// Example:
//
//	out := redline.MustResult(redline.Open("document.pdf").DOCX())
func MustResult[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
