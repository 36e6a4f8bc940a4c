package usecase

import (
	"context"
	"testing"

	"arxivmonitor/internal/infrastructure/storage"
)

func seedCollected(t *testing.T, store *storage.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := store.Insert(context.Background(), testPaper(id)); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func TestProcessorScoresBatch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedCollected(t, store, "p1", "p2")

	summarizer := &fakeSummarizer{scores: map[string]int{"p1": 7, "p2": 9}}
	processor := NewProcessor(store, summarizer, 5, 0, discardLogger())

	if err := processor.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	remaining, err := store.ListUnprocessed(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all papers scored, %d remain", len(remaining))
	}

	candidates, err := store.ListDigestCandidates(context.Background(), 5)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 scored papers, got %d", len(candidates))
	}
	if candidates[0].Review == nil || candidates[0].Review.Relevance != 9 {
		t.Errorf("highest relevance should come first, got %+v", candidates[0].Review)
	}
}

func TestProcessorHonorsBatchSize(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedCollected(t, store, "p1", "p2", "p3")

	summarizer := &fakeSummarizer{scores: map[string]int{"p1": 5, "p2": 5, "p3": 5}}
	processor := NewProcessor(store, summarizer, 1, 0, discardLogger())

	if err := processor.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(summarizer.calls) != 1 {
		t.Fatalf("expected a single review call, got %v", summarizer.calls)
	}

	remaining, err := store.ListUnprocessed(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 papers left for the next run, got %d", len(remaining))
	}
}

func TestProcessorIsolatesFailures(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedCollected(t, store, "p1", "p2", "p3")

	summarizer := &fakeSummarizer{
		scores: map[string]int{"p1": 6, "p3": 8},
		fail:   map[string]bool{"p2": true},
	}
	processor := NewProcessor(store, summarizer, 5, 0, discardLogger())

	if err := processor.Run(context.Background()); err != nil {
		t.Fatalf("one bad paper must not fail the batch: %v", err)
	}

	// The failed paper stays collected and is retried next run.
	remaining, err := store.ListUnprocessed(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "p2" {
		t.Fatalf("expected only p2 to remain, got %+v", remaining)
	}

	candidates, err := store.ListDigestCandidates(context.Background(), 0)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 scored papers, got %d", len(candidates))
	}
}

func TestProcessorEmptyQueue(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	summarizer := &fakeSummarizer{}
	processor := NewProcessor(store, summarizer, 5, 0, discardLogger())

	if err := processor.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(summarizer.calls) != 0 {
		t.Fatalf("no reviews expected, got %v", summarizer.calls)
	}
}
