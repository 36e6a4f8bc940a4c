package ports

import (
	"context"
	"time"

	"arxivmonitor/internal/domain"
)

// PaperSource pulls fresh papers from upstream providers.
type PaperSource interface {
	FetchRecent(ctx context.Context, since time.Time) ([]domain.Paper, error)
}

// PaperStore owns all persisted paper state. Implementations must keep
// status transitions forward-only.
type PaperStore interface {
	// Insert stores a new collected paper; storage.ErrDuplicate when the
	// identifier already exists.
	Insert(ctx context.Context, paper domain.Paper) error
	// ListUnprocessed returns up to limit collected papers, oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]domain.Paper, error)
	// UpdateScored attaches a review and advances the paper to scored;
	// storage.ErrNotFound when the identifier is absent.
	UpdateScored(ctx context.Context, id string, review domain.Review) error
	// RecordProcessingError notes a per-item failure without changing status.
	RecordProcessingError(ctx context.Context, id, message string) error
	// ListDigestCandidates returns scored papers at or above minScore that
	// have never been part of a sent digest.
	ListDigestCandidates(ctx context.Context, minScore int) ([]domain.Paper, error)
	// MarkSent records a digest and flips the listed papers to sent, all in
	// one transaction.
	MarkSent(ctx context.Context, ids []string, recipients []string) (domain.DigestRecord, error)
}

// Summarizer scores and summarizes one paper via an LLM.
type Summarizer interface {
	Review(ctx context.Context, paper domain.Paper) (domain.Review, error)
}

// Message is a rendered digest ready for delivery.
type Message struct {
	Subject string
	HTML    string
}

// Mailer delivers a digest to the configured recipients.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
