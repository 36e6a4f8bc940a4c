package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/infrastructure/storage"
	"arxivmonitor/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return storage.New(db)
}

func testPaper(id string) domain.Paper {
	return domain.Paper{
		ID:          id,
		Title:       "Paper " + id,
		Authors:     []string{"Alice Smith"},
		Abstract:    "Abstract for " + id,
		Published:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Updated:     time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		Categories:  []string{"cs.CR"},
		PDFURL:      "https://arxiv.org/pdf/" + id,
		AbstractURL: "https://arxiv.org/abs/" + id,
		Status:      domain.StatusCollected,
	}
}

type fakeSource struct {
	papers []domain.Paper
	err    error
	calls  int
}

func (f *fakeSource) FetchRecent(_ context.Context, _ time.Time) ([]domain.Paper, error) {
	f.calls++
	return f.papers, f.err
}

// fakeSummarizer scores papers from a fixed table; ids listed in fail
// return an error instead.
type fakeSummarizer struct {
	scores map[string]int
	fail   map[string]bool
	calls  []string
}

func (f *fakeSummarizer) Review(_ context.Context, paper domain.Paper) (domain.Review, error) {
	f.calls = append(f.calls, paper.ID)
	if f.fail[paper.ID] {
		return domain.Review{}, fmt.Errorf("model unavailable")
	}
	return domain.Review{
		Overview:   "Overview of " + paper.ID,
		Commentary: "Commentary of " + paper.ID,
		Topics:     []string{"jailbreaking"},
		Relevance:  f.scores[paper.ID],
	}, nil
}

type fakeMailer struct {
	sent []ports.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg ports.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
