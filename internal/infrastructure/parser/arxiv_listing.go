package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"arxivmonitor/internal/domain"
	"arxivmonitor/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivListingScanner crawls category listing pages instead of the API.
// Useful as a fallback when the API is rate limited; it yields the same
// identifiers so the store dedup makes the two strategies interchangeable.
type ArxivListingScanner struct {
	client   *http.Client
	baseURL  string
	pageSize int
}

var _ scanner.Scanner = (*ArxivListingScanner)(nil)

// NewArxivListingScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivListingScanner(client *http.Client) *ArxivListingScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivListingScanner{client: client, baseURL: arxivBaseURL, pageSize: 200}
}

// Name identifies the strategy inside the registry.
func (a *ArxivListingScanner) Name() string {
	return "arxiv-listing"
}

// Scan walks each category's recent listing and returns papers submitted at
// or after req.Since.
func (a *ArxivListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Paper, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided")
	}

	since := req.Since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.Paper, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		skip := 0
		for {
			pageURL, err := a.buildPageURL(cat, skip)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			pagePapers, shouldContinue := a.extractPapers(doc, since, cat)
			for _, paper := range pagePapers {
				if _, ok := seen[paper.ID]; ok {
					continue
				}
				seen[paper.ID] = struct{}{}
				results = append(results, paper)
			}

			if !shouldContinue {
				break
			}
			skip += a.pageSize
		}
	}

	return results, nil
}

func (a *ArxivListingScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "arxivmonitor/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (a *ArxivListingScanner) extractPapers(doc *goquery.Document, since time.Time, category string) ([]domain.Paper, bool) {
	var (
		collected    []domain.Paper
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		paper, submittedAt, err := a.parseEntry(dt, dd, category)
		if err != nil {
			return true
		}

		day := submittedAt.UTC().Truncate(24 * time.Hour)
		if !day.Before(since) {
			collected = append(collected, paper)
			return true
		}

		// Listings run newest-first, so the first older entry ends the walk.
		continueScan = false
		return false
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func (a *ArxivListingScanner) parseEntry(dt, dd *goquery.Selection, category string) (domain.Paper, time.Time, error) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := link.Attr("href")
	id := strings.TrimSpace(link.Text())
	id = strings.TrimPrefix(id, "arXiv:")
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if id == "" {
		return domain.Paper{}, time.Time{}, fmt.Errorf("entry without identifier")
	}
	if !strings.HasPrefix(href, "http") {
		href = a.baseURL + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := dd.Find(".mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	submittedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			submittedAt = parsed
		}
	}

	paper := domain.Paper{
		ID:          id,
		Title:       title,
		Authors:     authors,
		Abstract:    abstract,
		Published:   submittedAt,
		Updated:     submittedAt,
		Categories:  []string{category},
		PDFURL:      a.baseURL + "/pdf/" + id,
		AbstractURL: href,
		Status:      domain.StatusCollected,
	}

	return paper, submittedAt, nil
}

func (a *ArxivListingScanner) buildPageURL(category string, skip int) (string, error) {
	parsed, err := url.Parse(a.baseURL + "/list/" + category + "/recent")
	if err != nil {
		return "", fmt.Errorf("invalid category %s: %w", category, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(a.pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
