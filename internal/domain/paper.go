package domain

import "time"

// Status tracks a paper through the pipeline. Transitions only move
// forward: collected -> scored -> sent.
type Status string

const (
	StatusCollected Status = "collected"
	StatusScored    Status = "scored"
	StatusSent      Status = "sent"
)

// Paper is the core entity: arXiv metadata plus processing state.
type Paper struct {
	ID          string
	Title       string
	Authors     []string
	Abstract    string
	Published   time.Time
	Updated     time.Time
	Categories  []string
	PDFURL      string
	AbstractURL string

	Status Status
	// Review is nil until the paper reaches StatusScored.
	Review *Review

	CollectedAt time.Time
	ScoredAt    *time.Time
	SentAt      *time.Time

	// ProcessingError keeps the last per-item LLM failure so a later run
	// can retry the paper without losing the diagnostic.
	ProcessingError string
}

// Review is the structured LLM assessment of a single paper.
type Review struct {
	Overview   string
	Commentary string
	Topics     []string
	Relevance  int
}

// DigestRecord is one successfully sent digest email.
type DigestRecord struct {
	ID         int64
	SentAt     time.Time
	PaperCount int
	Recipients []string
}
