// parsectl runs the extraction pipeline against a single document without a
// server, store, or AI backend: text extraction, chunking, the deterministic
// fallback extractor, merge, and scoring. Output is the scored record as JSON
// on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/contractintel/contract-intel/internal/chunker"
	"github.com/contractintel/contract-intel/internal/classifier"
	"github.com/contractintel/contract-intel/internal/entity"
	"github.com/contractintel/contract-intel/internal/fallback"
	"github.com/contractintel/contract-intel/internal/merge"
	"github.com/contractintel/contract-intel/internal/scoring"
	"github.com/contractintel/contract-intel/internal/textextract"
)

type output struct {
	Filename string               `json:"filename"`
	Pages    int                  `json:"pages"`
	Chunks   int                  `json:"chunks"`
	Record   *entity.ContractData `json:"record"`
	Score    int                  `json:"score"`
	Gaps     []string             `json:"gaps"`
}

func main() {
	var (
		chunkSize = flag.Int("chunk-size", 8000, "chunk window size in characters")
		overlap   = flag.Int("overlap", 1000, "chunk overlap in characters")
		pdftotext = flag.String("pdftotext", "pdftotext", "pdftotext binary")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall timeout")
		verbose   = flag.Bool("v", false, "debug logging to stderr")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <contract.pdf|contract.txt>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(path)
	if err != nil {
		fatal(logger, "read document", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := textextract.NewExtractor(textextract.Config{Pdftotext: *pdftotext}, logger).
		Extract(ctx, filepath.Base(path), data)
	if err != nil {
		fatal(logger, "extract text", err)
	}

	ch, err := chunker.New(*chunkSize, *overlap)
	if err != nil {
		fatal(logger, "configure chunker", err)
	}
	chunks := ch.Split(res.Text)
	cl := classifier.New()
	for i := range chunks {
		chunks[i] = cl.Classify(chunks[i])
	}

	fb := fallback.New(logger)
	frags := make([]entity.Fragment, 0, len(chunks)+1)
	for _, c := range chunks {
		frags = append(frags, fb.Extract(c.Text, c.Index))
	}
	frags = append(frags, fb.Extract(res.Text, fallback.WholeDocument))

	record := merge.New(logger).Merge(frags)
	scored := scoring.New(logger).Score(record)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		Filename: filepath.Base(path),
		Pages:    res.Pages,
		Chunks:   len(chunks),
		Record:   record,
		Score:    scored.OverallScore,
		Gaps:     scored.Gaps,
	}); err != nil {
		fatal(logger, "encode output", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error("parsectl.fatal", "stage", msg, "error", err)
	fmt.Fprintf(os.Stderr, "parsectl: %s: %v\n", msg, err)
	os.Exit(1)
}
