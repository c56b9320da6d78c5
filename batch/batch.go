// Package batch converts several PDF documents one after another.
//
// Documents run strictly in submission order. A document that fails is
// recorded with its error and the batch moves on; once the context is
// cancelled every remaining document is reported with the context's error.
package batch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline"
	"github.com/tsawler/redline/format"
	"github.com/tsawler/redline/internal/logging"
)

// Input is one document to convert. When Path is set the file is opened
// only when its turn comes and Data is ignored.
type Input struct {
	Name string
	Path string
	Data []byte
}

// Result is the outcome of one document.
type Result struct {
	Name string

	// DisplayName is the output file name derived from Name
	DisplayName string

	Output   []byte
	Warnings []redline.Warning
	Err      error
}

// Config holds configuration for a Runner.
type Config struct {
	// Format is the output format, DOCX or HTML (default: DOCX)
	Format format.Format

	// Options are applied to every document
	Options []redline.Option

	// Observer is called before each document with its 1-based index
	Observer func(index int, name string)

	// Completed is called after each document with its 1-based index
	Completed func(index int, result Result)

	// DropOutput clears Output from the returned results once Completed has
	// seen it, so a long batch holds one converted document at a time
	DropOutput bool

	// Logger receives one entry per document (default: discard)
	Logger logrus.FieldLogger
}

// Runner converts batches of documents.
type Runner struct {
	config Config
	log    logrus.FieldLogger
}

// NewRunner creates a batch runner.
func NewRunner(config Config) *Runner {
	if config.Format != format.HTML {
		config.Format = format.DOCX
	}
	return &Runner{config: config, log: logging.OrDiscard(config.Logger)}
}

// Run converts inputs in order and returns one result per input.
func (r *Runner) Run(ctx context.Context, inputs []Input) []Result {
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		res := Result{Name: in.Name, DisplayName: format.DisplayName(in.Name, r.config.Format)}

		if err := ctx.Err(); err != nil {
			res.Err = err
			results[i] = res
			r.complete(i+1, res)
			continue
		}

		if r.config.Observer != nil {
			r.config.Observer(i+1, in.Name)
		}
		res.Output, res.Warnings, res.Err = r.convert(ctx, in)

		entry := r.log.WithFields(logrus.Fields{
			"document": in.Name,
			"index":    i + 1,
			"total":    len(inputs),
		})
		if res.Err != nil {
			entry.WithError(res.Err).Error("document failed")
		} else {
			entry.Info("document done")
		}

		r.complete(i+1, res)
		if r.config.DropOutput {
			res.Output = nil
		}
		results[i] = res
	}
	return results
}

func (r *Runner) complete(index int, res Result) {
	if r.config.Completed != nil {
		r.config.Completed(index, res)
	}
}

func (r *Runner) convert(ctx context.Context, in Input) ([]byte, []redline.Warning, error) {
	opts := append([]redline.Option{redline.WithLogger(r.log)}, r.config.Options...)
	e := redline.FromBytes(in.Name, in.Data)
	if in.Path != "" {
		e = redline.Open(in.Path).Named(in.Name)
	}
	e = e.Context(ctx).With(opts...)
	if r.config.Format == format.HTML {
		return e.HTML()
	}
	return e.DOCX()
}
