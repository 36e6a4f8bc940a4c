package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/ports"
)

// Sentinel errors surfaced to the pipeline stages.
var (
	ErrDuplicate = errors.New("paper already exists")
	ErrNotFound  = errors.New("paper not found")
)

// Store persists papers and digest records in SQLite.
type Store struct {
	db *sql.DB
}

var _ ports.PaperStore = (*Store)(nil)

// New wires a sql.DB opened via Open.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var paperColumns = []string{
	"id", "title", "authors", "abstract", "published", "updated",
	"categories", "pdf_url", "abstract_url", "status",
	"relevance_score", "overview", "commentary", "topics",
	"processing_error", "collected_at", "scored_at", "sent_at",
}

// Insert stores a freshly collected paper. ErrDuplicate when the
// identifier is already present.
func (s *Store) Insert(ctx context.Context, paper domain.Paper) error {
	var exists string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM papers WHERE id = ?`, paper.ID).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("insert %s: %w", paper.ID, ErrDuplicate)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check duplicate %s: %w", paper.ID, err)
	}

	collectedAt := paper.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("papers").
		Columns("id", "title", "authors", "abstract", "published", "updated",
			"categories", "pdf_url", "abstract_url", "status", "collected_at").
		Values(paper.ID, paper.Title, marshalList(paper.Authors), paper.Abstract,
			formatTime(paper.Published), formatTime(paper.Updated),
			marshalList(paper.Categories), paper.PDFURL, paper.AbstractURL,
			string(domain.StatusCollected), formatTime(collectedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", paper.ID, err)
	}
	return nil
}

// ListUnprocessed returns up to limit collected papers, oldest published
// first so a backlog drains in order.
func (s *Store) ListUnprocessed(ctx context.Context, limit int) ([]domain.Paper, error) {
	builder := sq.Select(paperColumns...).
		From("papers").
		Where(sq.Eq{"status": string(domain.StatusCollected)}).
		OrderBy("published ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return s.queryPapers(ctx, builder)
}

// UpdateScored attaches the review and advances the paper to scored.
// Papers that already moved past collected are left untouched; forward
// transitions only.
func (s *Store) UpdateScored(ctx context.Context, id string, review domain.Review) error {
	query, args, err := sq.Update("papers").
		Set("status", string(domain.StatusScored)).
		Set("relevance_score", review.Relevance).
		Set("overview", review.Overview).
		Set("commentary", review.Commentary).
		Set("topics", marshalList(review.Topics)).
		Set("processing_error", "").
		Set("scored_at", formatTime(time.Now().UTC())).
		Where(sq.Eq{"id": id, "status": string(domain.StatusCollected)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update scored %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM papers WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update scored %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update scored %s: %w", id, err)
		}
		// Already scored or sent; nothing to do.
	}
	return nil
}

// RecordProcessingError stores the failure message on a still-collected
// paper so the next processing run can retry it.
func (s *Store) RecordProcessingError(ctx context.Context, id, message string) error {
	query, args, err := sq.Update("papers").
		Set("processing_error", message).
		Where(sq.Eq{"id": id, "status": string(domain.StatusCollected)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record processing error %s: %w", id, err)
	}
	return nil
}

// ListDigestCandidates returns scored papers at or above minScore that are
// not part of any sent digest, most relevant first.
func (s *Store) ListDigestCandidates(ctx context.Context, minScore int) ([]domain.Paper, error) {
	builder := sq.Select(paperColumns...).
		From("papers").
		Where(sq.Eq{"status": string(domain.StatusScored)}).
		Where(sq.GtOrEq{"relevance_score": minScore}).
		Where("digest_id IS NULL").
		OrderBy("relevance_score DESC", "published DESC")

	return s.queryPapers(ctx, builder)
}

// MarkSent records the digest and flips the listed papers to sent in one
// transaction; a crash mid-way leaves nothing half-marked.
func (s *Store) MarkSent(ctx context.Context, ids []string, recipients []string) (domain.DigestRecord, error) {
	if len(ids) == 0 {
		return domain.DigestRecord{}, fmt.Errorf("mark sent: empty id set")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sentAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO digests (sent_at, paper_count, recipients) VALUES (?, ?, ?)`,
		formatTime(sentAt), len(ids), strings.Join(recipients, ","))
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("insert digest: %w", err)
	}
	digestID, err := res.LastInsertId()
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("digest id: %w", err)
	}

	query, args, err := sq.Update("papers").
		Set("status", string(domain.StatusSent)).
		Set("digest_id", digestID).
		Set("sent_at", formatTime(sentAt)).
		Where(sq.Eq{"id": ids, "status": string(domain.StatusScored)}).
		ToSql()
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.DigestRecord{}, fmt.Errorf("mark sent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.DigestRecord{}, fmt.Errorf("commit: %w", err)
	}

	return domain.DigestRecord{
		ID:         digestID,
		SentAt:     sentAt,
		PaperCount: len(ids),
		Recipients: recipients,
	}, nil
}

// Stats summarizes store contents for logging and the CLI.
type Stats struct {
	Total   int
	Scored  int
	Sent    int
	Digests int
}

// Stats counts papers per lifecycle stage.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN status IN ('scored', 'sent') THEN 1 ELSE 0 END),
		       SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END)
		FROM papers`)
	var scored, sent sql.NullInt64
	if err := row.Scan(&st.Total, &scored, &sent); err != nil {
		return Stats{}, fmt.Errorf("paper stats: %w", err)
	}
	st.Scored = int(scored.Int64)
	st.Sent = int(sent.Int64)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM digests`).Scan(&st.Digests); err != nil {
		return Stats{}, fmt.Errorf("digest stats: %w", err)
	}
	return st, nil
}

func (s *Store) queryPapers(ctx context.Context, builder sq.SelectBuilder) ([]domain.Paper, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}

func scanPaper(rows *sql.Rows) (domain.Paper, error) {
	var (
		p                               domain.Paper
		authors, categories             string
		published, updated, collectedAt string
		status                          string
		relevance                       sql.NullInt64
		overview, commentary, topics    sql.NullString
		scoredAt, sentAt                sql.NullString
	)

	err := rows.Scan(&p.ID, &p.Title, &authors, &p.Abstract, &published, &updated,
		&categories, &p.PDFURL, &p.AbstractURL, &status,
		&relevance, &overview, &commentary, &topics,
		&p.ProcessingError, &collectedAt, &scoredAt, &sentAt)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("scan paper: %w", err)
	}

	p.Authors = unmarshalList(authors)
	p.Categories = unmarshalList(categories)
	p.Published = parseTime(published)
	p.Updated = parseTime(updated)
	p.CollectedAt = parseTime(collectedAt)
	p.Status = domain.Status(status)

	if relevance.Valid {
		p.Review = &domain.Review{
			Overview:   overview.String,
			Commentary: commentary.String,
			Topics:     unmarshalList(topics.String),
			Relevance:  int(relevance.Int64),
		}
	}
	if scoredAt.Valid {
		t := parseTime(scoredAt.String)
		p.ScoredAt = &t
	}
	if sentAt.Valid {
		t := parseTime(sentAt.String)
		p.SentAt = &t
	}

	return p, nil
}

func marshalList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
