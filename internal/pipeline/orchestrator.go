// Package pipeline drives a contract through the processing state machine:
// PENDING → EXTRACTING_TEXT → CHUNKING → EXTRACTING_DATA → MERGING → SCORING
// → COMPLETED, with FAILED reachable from any non-terminal state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/chunker"
	"github.com/contractintel/contract-intel/internal/classifier"
	"github.com/contractintel/contract-intel/internal/entity"
	"github.com/contractintel/contract-intel/internal/fallback"
	"github.com/contractintel/contract-intel/internal/llm"
	"github.com/contractintel/contract-intel/internal/merge"
	"github.com/contractintel/contract-intel/internal/scoring"
	"github.com/contractintel/contract-intel/internal/store"
	"github.com/contractintel/contract-intel/internal/textextract"
)

type Config struct {
	// Workers bounds concurrent per-chunk extraction. Default 4.
	Workers int
	// CallTimeout bounds one AI extraction call. Default 60s.
	CallTimeout time.Duration
}

// Orchestrator owns the run for one contract at a time per ID. The AI
// extractor is optional; without one every chunk goes through the fallback.
type Orchestrator struct {
	store      store.ContractStore
	text       *textextract.Extractor
	ai         llm.ChunkExtractor
	fb         *fallback.Extractor
	chunker    *chunker.Chunker
	classifier *classifier.Classifier
	merger     *merge.Engine
	scorer     *scoring.Engine
	cfg        Config
	logger     *slog.Logger
}

func NewOrchestrator(
	st store.ContractStore,
	text *textextract.Extractor,
	ai llm.ChunkExtractor,
	fb *fallback.Extractor,
	ch *chunker.Chunker,
	cl *classifier.Classifier,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	return &Orchestrator{
		store:      st,
		text:       text,
		ai:         ai,
		fb:         fb,
		chunker:    ch,
		classifier: cl,
		merger:     merge.New(logger),
		scorer:     scoring.New(logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// Process runs the pipeline for an uploaded document. Invoking it on a
// contract already in a terminal state is a no-op.
func (o *Orchestrator) Process(ctx context.Context, contractID uuid.UUID, filename string, data []byte) error {
	return o.run(ctx, contractID, filename, data, false)
}

// Reprocess reruns a contract regardless of its current state.
func (o *Orchestrator) Reprocess(ctx context.Context, contractID uuid.UUID, filename string, data []byte) error {
	return o.run(ctx, contractID, filename, data, true)
}

func (o *Orchestrator) run(ctx context.Context, contractID uuid.UUID, filename string, data []byte, force bool) error {
	start := time.Now()
	log := o.logger.With("contract_id", contractID)

	c, err := o.store.Get(ctx, contractID)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}
	if c.Status.IsTerminal() && !force {
		log.Info("pipeline.skip_terminal", "status", c.Status)
		return nil
	}
	if force {
		c.Status = constants.StatusPending
		c.Progress = constants.StageProgress[constants.StatusPending]
		c.ParsedData = nil
		c.Score = nil
		c.Gaps = nil
		c.Error = nil
	}

	// EXTRACTING_TEXT
	if err := o.advance(ctx, c, constants.StatusExtractingText); err != nil {
		return ignoreDeleted(err)
	}
	res, err := o.text.Extract(ctx, filename, data)
	if err != nil {
		return o.fail(ctx, c, fmt.Sprintf("text extraction failed: %v", err))
	}
	if strings.TrimSpace(res.Text) == "" {
		return o.fail(ctx, c, "no extractable text in document")
	}
	log.Info("pipeline.textextract.done", "method", res.Method, "pages", res.Pages, "chars", len(res.Text))

	// CHUNKING
	if err := o.advance(ctx, c, constants.StatusChunking); err != nil {
		return ignoreDeleted(err)
	}
	chunks := o.chunker.Split(res.Text)
	for i := range chunks {
		chunks[i] = o.classifier.Classify(chunks[i])
	}
	log.Info("pipeline.chunking.done", "chunks", len(chunks))

	// EXTRACTING_DATA
	if err := o.advance(ctx, c, constants.StatusExtractingData); err != nil {
		return ignoreDeleted(err)
	}
	frags := o.extractAll(ctx, log, chunks, res.Text)

	// MERGING
	if err := o.advance(ctx, c, constants.StatusMerging); err != nil {
		return ignoreDeleted(err)
	}
	record := o.merger.Merge(frags)

	// SCORING
	if err := o.advance(ctx, c, constants.StatusScoring); err != nil {
		return ignoreDeleted(err)
	}
	scored := o.scorer.Score(record)

	// The contract may have been deleted while we worked; a result for a
	// deleted contract is discarded, never resurrected.
	if _, err := o.store.Get(ctx, contractID); errors.Is(err, store.ErrNotFound) {
		log.Warn("pipeline.discard_deleted")
		return nil
	} else if err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}

	c.Status = constants.StatusCompleted
	c.Progress = constants.StageProgress[constants.StatusCompleted]
	c.ParsedData = record
	c.Score = &scored.OverallScore
	c.Gaps = scored.Gaps
	c.Error = nil
	c.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, c); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	log.Info("pipeline.completed",
		"score", scored.OverallScore,
		"gaps", len(scored.Gaps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// extractAll fans chunks out to a bounded worker pool. Each chunk tries the
// AI path first and falls back to the deterministic extractor on any typed
// failure; a whole-document fallback pass always runs as well, because some
// fields (contract-wide totals, dates) extract more reliably from the full
// text than from any single window.
func (o *Orchestrator) extractAll(ctx context.Context, log *slog.Logger, chunks []chunker.Chunk, fullText string) []entity.Fragment {
	frags := make([]entity.Fragment, len(chunks)+1)

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.cfg.Workers)
	for i := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			frags[i] = o.extractChunk(ctx, log, chunks[i])
		}(i)
	}
	wg.Wait()

	frags[len(chunks)] = o.fb.Extract(fullText, fallback.WholeDocument)
	return frags
}

func (o *Orchestrator) extractChunk(ctx context.Context, log *slog.Logger, ch chunker.Chunk) entity.Fragment {
	if o.ai != nil {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
		frag, _, err := o.ai.ExtractChunk(callCtx, llm.ExtractRequest{
			ChunkText:    ch.Text,
			ChunkIndex:   ch.Index,
			SectionHints: ch.SectionHints,
		})
		cancel()
		if err == nil {
			return frag
		}
		// A single chunk's AI failure is recovered via fallback, not fatal.
		log.Warn("pipeline.extract.ai_failed", "chunk_index", ch.Index, "error", err)
	}
	return o.fb.Extract(ch.Text, ch.Index)
}

// errDeleted signals the contract vanished mid-run; the run stops and its
// result is discarded.
var errDeleted = errors.New("contract deleted mid-run")

// ignoreDeleted converts the mid-run deletion signal into a clean stop.
func ignoreDeleted(err error) error {
	if errors.Is(err, errDeleted) {
		return nil
	}
	return err
}

// advance moves the contract into the next state and persists the
// transition. Progress never moves backward. Save is an upsert in every
// backend, so a transition persisted after a DELETE would resurrect the
// record; existence is re-checked before each write.
func (o *Orchestrator) advance(ctx context.Context, c *entity.Contract, status constants.ContractStatus) error {
	if _, err := o.store.Get(ctx, c.ID); errors.Is(err, store.ErrNotFound) {
		o.logger.Warn("pipeline.discard_deleted", "contract_id", c.ID, "status", status)
		return errDeleted
	} else if err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}
	c.Status = status
	if p := constants.StageProgress[status]; p > c.Progress {
		c.Progress = p
	}
	c.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, c); err != nil {
		return fmt.Errorf("persist %s transition: %w", status, err)
	}
	o.logger.Info("pipeline.stage", "contract_id", c.ID, "status", status, "progress", c.Progress)
	return nil
}

// fail marks the contract FAILED with a reason. The returned error carries
// the same reason so callers can log it. A contract deleted mid-run is not
// resurrected as FAILED.
func (o *Orchestrator) fail(ctx context.Context, c *entity.Contract, reason string) error {
	if _, gerr := o.store.Get(ctx, c.ID); errors.Is(gerr, store.ErrNotFound) {
		o.logger.Warn("pipeline.discard_deleted", "contract_id", c.ID)
		return errors.New(reason)
	}
	c.Status = constants.StatusFailed
	c.Error = &reason
	c.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, c); err != nil {
		o.logger.Error("pipeline.fail_persist_error", "contract_id", c.ID, "error", err)
	}
	o.logger.Error("pipeline.failed", "contract_id", c.ID, "reason", reason)
	return errors.New(reason)
}
