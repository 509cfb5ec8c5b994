// Package textextract pulls plain text out of uploaded contract documents.
// PDFs go through the poppler pdftotext binary; .txt files pass through
// unchanged. The pipeline downstream of this package only ever sees text.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/contractintel/contract-intel/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	MaxBytes  int    // reject documents bigger than this; 0 = no limit
}

type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "plain-text"
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the filename extension.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(filename))
	e.logger.Debug("textextract.start", "filename", filename, "ext", ext, "bytes", len(data))

	if e.cfg.MaxBytes > 0 && len(data) > e.cfg.MaxBytes {
		return Result{}, fmt.Errorf("document too large: %d bytes (limit %d)", len(data), e.cfg.MaxBytes)
	}

	switch ext {
	case "pdf":
		res, err := e.extractPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case "txt":
		text := string(data)
		if !utf8.ValidString(text) {
			return Result{}, fmt.Errorf("text file is not valid UTF-8")
		}
		return Result{
			Text:     text,
			Pages:    1,
			Method:   "plain-text",
			Duration: time.Since(start),
		}, nil
	default:
		e.logger.Error("textextract.unsupported_extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "ci-doc-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if rerr := os.Remove(tmp.Name()); rerr != nil {
			e.logger.Warn("textextract.temp_cleanup_failed", "path", tmp.Name(), "error", rerr)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp file: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("pdftotext: %w", err)
	}

	text := string(out)
	// A form-feed \f is used as page separator by default.
	pages := 1 + strings.Count(text, "\f")
	return Result{Text: text, Pages: pages, Method: "pdf-text"}, nil
}
