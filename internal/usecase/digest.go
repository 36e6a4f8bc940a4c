package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/ports"
)

// Digest selects relevant scored papers, renders the email, and records
// which papers went out.
type Digest struct {
	store         ports.PaperStore
	mailer        ports.Mailer
	minScore      int
	subjectPrefix string
	recipients    []string
	logger        *slog.Logger
}

// NewDigest wires the store and mailer.
func NewDigest(store ports.PaperStore, mailer ports.Mailer, minScore int, subjectPrefix string, recipients []string, logger *slog.Logger) *Digest {
	return &Digest{
		store:         store,
		mailer:        mailer,
		minScore:      minScore,
		subjectPrefix: subjectPrefix,
		recipients:    recipients,
		logger:        logger,
	}
}

// Run sends one digest covering every eligible paper. Papers are marked
// sent only after the mail transport accepts the message, so a failed send
// leaves the whole set eligible for the next run.
func (d *Digest) Run(ctx context.Context) error {
	papers, err := d.store.ListDigestCandidates(ctx, d.minScore)
	if err != nil {
		return fmt.Errorf("list digest candidates: %w", err)
	}
	if len(papers) == 0 {
		d.logger.Info("no papers eligible for digest", "min_relevance", d.minScore)
		return nil
	}

	html, err := renderDigestHTML(papers)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	msg := ports.Message{
		Subject: fmt.Sprintf("%s %s", d.subjectPrefix, time.Now().Format("2006-01-02")),
		HTML:    html,
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	record, err := d.store.MarkSent(ctx, paperIDs(papers), d.recipients)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}

	d.logger.Info("digest sent",
		"digest", record.ID, "papers", record.PaperCount, "recipients", len(d.recipients))
	return nil
}

func paperIDs(papers []domain.Paper) []string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	return ids
}
