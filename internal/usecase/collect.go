package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"arxivmonitor/internal/infrastructure/storage"
	"arxivmonitor/internal/ports"
)

// Collector fetches new candidate papers and records them as collected.
type Collector struct {
	source   ports.PaperSource
	store    ports.PaperStore
	lookback time.Duration
	logger   *slog.Logger
}

// NewCollector wires the source and the store.
func NewCollector(source ports.PaperSource, store ports.PaperStore, lookbackDays int, logger *slog.Logger) *Collector {
	return &Collector{
		source:   source,
		store:    store,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		logger:   logger,
	}
}

// Run performs one collection pass. Already-known identifiers are skipped,
// so re-running against an unchanged source inserts nothing. A source
// error aborts the run; the next scheduled fire retries.
func (c *Collector) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-c.lookback)

	papers, err := c.source.FetchRecent(ctx, since)
	if err != nil {
		return fmt.Errorf("fetch recent papers: %w", err)
	}

	var inserted, skipped int
	for _, paper := range papers {
		err := c.store.Insert(ctx, paper)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrDuplicate):
			skipped++
		default:
			return fmt.Errorf("store paper %s: %w", paper.ID, err)
		}
	}

	c.logger.Info("collection complete",
		"fetched", len(papers), "inserted", inserted, "duplicates", skipped)
	return nil
}
