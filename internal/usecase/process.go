package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"arxivmonitor/internal/ports"
)

// Processor scores a bounded batch of collected papers with an LLM.
type Processor struct {
	store      ports.PaperStore
	summarizer ports.Summarizer
	batchSize  int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewProcessor wires the store and summarizer; delay is the pause enforced
// between consecutive LLM calls.
func NewProcessor(store ports.PaperStore, summarizer ports.Summarizer, batchSize int, delay time.Duration, logger *slog.Logger) *Processor {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Processor{
		store:      store,
		summarizer: summarizer,
		batchSize:  batchSize,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Run processes up to batchSize unprocessed papers, strictly sequentially.
// A failed LLM call is isolated to its paper: the error is recorded, the
// paper stays collected, and the batch continues.
func (p *Processor) Run(ctx context.Context) error {
	papers, err := p.store.ListUnprocessed(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list unprocessed: %w", err)
	}
	if len(papers) == 0 {
		p.logger.Info("no papers to process")
		return nil
	}

	p.logger.Info("processing batch", "size", len(papers))

	var scored, failed int
	for _, paper := range papers {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limit: %w", err)
		}

		review, err := p.summarizer.Review(ctx, paper)
		if err != nil {
			failed++
			p.logger.Warn("paper review failed", "paper", paper.ID, "error", err)
			if recErr := p.store.RecordProcessingError(ctx, paper.ID, err.Error()); recErr != nil {
				return fmt.Errorf("record processing error %s: %w", paper.ID, recErr)
			}
			continue
		}

		if err := p.store.UpdateScored(ctx, paper.ID, review); err != nil {
			return fmt.Errorf("persist review %s: %w", paper.ID, err)
		}
		scored++
		p.logger.Debug("paper scored", "paper", paper.ID, "relevance", review.Relevance)
	}

	p.logger.Info("processing complete", "scored", scored, "failed", failed)
	return nil
}
