// Command redline extracts the marked (red) text of PDF documents into
// Word or HTML documents, or serves the same conversion over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsawler/redline"
	"github.com/tsawler/redline/batch"
	"github.com/tsawler/redline/config"
	"github.com/tsawler/redline/format"
	"github.com/tsawler/redline/jobs"
	"github.com/tsawler/redline/ocr"
	"github.com/tsawler/redline/server"
)

var (
	rootCmd = &cobra.Command{
		Use:           "redline",
		Short:         "Extract red text from PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	logLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redline:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	convertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "Output directory")
	convertCmd.Flags().IntVar(&convertDPI, "dpi", 380, "Capture resolution in dots per inch")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "docx", "Output format (docx or html)")
	convertCmd.Flags().BoolVar(&convertRegions, "regions", false, "List the captured regions instead of writing documents")
	convertCmd.Flags().StringVar(&convertPdftoppm, "pdftoppm", "pdftoppm", "pdftoppm binary")
	convertCmd.Flags().BoolVar(&convertOCR, "ocr", false, "Add OCR alt text to pictures (needs a build with -tags ocr)")

	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "config.yaml", "Path to the YAML settings file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides the settings file)")

	colorsCmd.Flags().IntSliceVarP(&colorsPages, "pages", "p", nil, "Pages to inspect (default: the first ten)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(colorsCmd)
}

func newLogger() (*logrus.Logger, error) {
	cfg := config.Default()
	cfg.Log.Level = logLevel
	return cfg.NewLogger(os.Stderr)
}

var (
	convertOut      string
	convertDPI      int
	convertFormat   string
	convertRegions  bool
	convertPdftoppm string
	convertOCR      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE...",
	Short: "Convert PDF files to documents holding their red text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}

		var out format.Format
		switch convertFormat {
		case "docx":
			out = format.DOCX
		case "html":
			out = format.HTML
		default:
			return fmt.Errorf("unknown format %q", convertFormat)
		}

		opts := []redline.Option{redline.WithDPI(convertDPI), redline.WithPdftoppm(convertPdftoppm)}
		if convertOCR {
			d, err := ocr.New(ocr.DefaultConfig())
			if err != nil {
				return err
			}
			defer d.Close()
			opts = append(opts, redline.WithAltTexter(d))
		}

		if convertRegions {
			return listRegions(cmd, args, append(opts, redline.WithLogger(log)))
		}

		inputs := make([]batch.Input, 0, len(args))
		for _, path := range args {
			inputs = append(inputs, batch.Input{Name: filepath.Base(path), Path: path})
		}

		failed := 0
		var writeErr error
		runner := batch.NewRunner(batch.Config{
			Format:     out,
			Options:    opts,
			Logger:     log,
			DropOutput: true,
			Completed: func(_ int, res batch.Result) {
				if res.Err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %v\n", res.Name, res.Err)
					return
				}
				dest := filepath.Join(convertOut, res.DisplayName)
				if err := os.WriteFile(dest, res.Output, 0o644); err != nil {
					if writeErr == nil {
						writeErr = err
					}
					return
				}
				line := fmt.Sprintf("%s -> %s", res.Name, dest)
				if len(res.Warnings) > 0 {
					line += " (" + redline.FormatWarnings(res.Warnings) + ")"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			},
		})
		runner.Run(cmd.Context(), inputs)
		if writeErr != nil {
			return writeErr
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(inputs))
		}
		return nil
	},
}

func listRegions(cmd *cobra.Command, paths []string, opts []redline.Option) error {
	for _, path := range paths {
		regions, warnings, err := redline.Open(path).Context(cmd.Context()).With(opts...).Regions()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d regions\n", path, len(regions))
		for _, r := range regions {
			fmt.Fprintf(cmd.OutOrStdout(), "  page %d  %s  (%.1f, %.1f)-(%.1f, %.1f)\n",
				r.Page+1, r.Kind, r.BBox.X0, r.BBox.Y0, r.BBox.X1, r.BBox.Y1)
		}
		if len(warnings) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", redline.FormatWarnings(warnings))
		}
	}
	return nil
}

var (
	serveConfig string
	serveAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion web service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveConfig)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		log, err := cfg.NewLogger(os.Stderr)
		if err != nil {
			return err
		}

		for _, dir := range []string{cfg.Folders.Upload, cfg.Folders.Output} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		store, err := jobs.Open(cfg.Store.Kind, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		handler, err := server.New(server.FromConfig(cfg, store, log))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 30 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.Server.Addr).Info("listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var colorsPages []int

var colorsCmd = &cobra.Command{
	Use:   "colors FILE",
	Short: "Report the text colours used in a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		counts, warnings, err := redline.Open(args[0]).Logger(log).Pages(colorsPages...).ColorReport()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, c := range counts {
			mark := ""
			if c.PotentiallyRed {
				mark = "  <- potentially red"
			}
			fmt.Fprintf(w, "%-16s %6d  %q%s\n", c.Color, c.Count, c.Sample, mark)
		}
		if len(warnings) > 0 {
			fmt.Fprintln(w, redline.FormatWarnings(warnings))
		}
		return nil
	},
}
