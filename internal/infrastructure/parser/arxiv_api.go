package parser

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/scanner"
)

// ArxivAPIScanner queries the arXiv Atom API for papers matching the
// configured keywords within a submission-date window.
type ArxivAPIScanner struct {
	endpoint string
	parser   *gofeed.Parser
}

var _ scanner.Scanner = (*ArxivAPIScanner)(nil)

// NewArxivAPIScanner targets the given query endpoint, typically
// https://export.arxiv.org/api/query.
func NewArxivAPIScanner(endpoint string) *ArxivAPIScanner {
	p := gofeed.NewParser()
	p.UserAgent = "arxivmonitor/1.0"
	return &ArxivAPIScanner{endpoint: endpoint, parser: p}
}

// Name identifies the strategy inside the registry.
func (a *ArxivAPIScanner) Name() string {
	return "arxiv-api"
}

// Scan fetches one result page of at most req.MaxResults entries, newest
// submissions first.
func (a *ArxivAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if len(req.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords provided")
	}

	queryURL, err := a.buildQueryURL(req)
	if err != nil {
		return nil, err
	}

	feed, err := a.parser.ParseURLWithContext(queryURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("query arxiv api: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper, ok := paperFromEntry(item)
		if !ok {
			continue
		}
		papers = append(papers, paper)
	}

	return papers, nil
}

func (a *ArxivAPIScanner) buildQueryURL(req scanner.Request) (string, error) {
	parsed, err := url.Parse(a.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid api endpoint %s: %w", a.endpoint, err)
	}

	values := parsed.Query()
	values.Set("search_query", buildSearchQuery(req))
	values.Set("start", "0")
	values.Set("max_results", strconv.Itoa(req.MaxResults))
	values.Set("sortBy", "submittedDate")
	values.Set("sortOrder", "descending")
	parsed.RawQuery = values.Encode()

	return parsed.String(), nil
}

// buildSearchQuery assembles the arXiv query expression: quoted keywords
// joined by OR, a submittedDate window, and an optional category filter.
func buildSearchQuery(req scanner.Request) string {
	quoted := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		quoted = append(quoted, fmt.Sprintf("%q", kw))
	}
	query := "(" + strings.Join(quoted, " OR ") + ")"

	start := req.Since.UTC().Format("20060102") + "000000"
	end := time.Now().UTC().Format("20060102") + "235959"
	query += fmt.Sprintf(" AND (submittedDate:[%s TO %s])", start, end)

	if len(req.Categories) > 0 {
		cats := make([]string, 0, len(req.Categories))
		for _, cat := range req.Categories {
			cats = append(cats, "cat:"+cat)
		}
		query += " AND (" + strings.Join(cats, " OR ") + ")"
	}

	return query
}

func paperFromEntry(item *gofeed.Item) (domain.Paper, bool) {
	id := arxivID(item.GUID)
	if id == "" {
		id = arxivID(item.Link)
	}
	if id == "" {
		return domain.Paper{}, false
	}

	authors := make([]string, 0, len(item.Authors))
	for _, person := range item.Authors {
		if person != nil && person.Name != "" {
			authors = append(authors, person.Name)
		}
	}

	var published, updated time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		updated = item.UpdatedParsed.UTC()
	}

	pdfURL := ""
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			pdfURL = link
			break
		}
	}
	if pdfURL == "" {
		pdfURL = "https://arxiv.org/pdf/" + id
	}

	return domain.Paper{
		ID:          id,
		Title:       strings.Join(strings.Fields(item.Title), " "),
		Authors:     authors,
		Abstract:    strings.TrimSpace(item.Description),
		Published:   published,
		Updated:     updated,
		Categories:  item.Categories,
		PDFURL:      pdfURL,
		AbstractURL: "https://arxiv.org/abs/" + id,
		Status:      domain.StatusCollected,
	}, true
}

// arxivID extracts "2501.00001v1" from an entry id or abs link.
func arxivID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		raw = raw[idx+1:]
	}
	return raw
}
