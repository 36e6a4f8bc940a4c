package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arxivmonitor/internal/config"
	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/ports"
	"arxivmonitor/internal/scanner"
)

// StrategySource implements PaperSource via a registered scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	strategy string
	arxiv    config.ArxivSettings
	logger   *slog.Logger
}

var _ ports.PaperSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured query.
func NewStrategySource(reg *scanner.Registry, strategy string, arxiv config.ArxivSettings, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		strategy: strategy,
		arxiv:    arxiv,
		logger:   log,
	}
}

// FetchRecent resolves the configured strategy and executes one scan.
func (s *StrategySource) FetchRecent(ctx context.Context, since time.Time) ([]domain.Paper, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return nil, err
	}

	s.debug("fetch recent", "strategy", s.strategy, "since", since.Format("2006-01-02"))

	req := scanner.Request{
		Since:      since,
		Keywords:   s.arxiv.Keywords,
		Categories: s.arxiv.Categories,
		MaxResults: s.arxiv.MaxResults,
	}

	papers, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.strategy, err)
	}

	s.debug("scan produced papers", "strategy", s.strategy, "count", len(papers))
	return papers, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
