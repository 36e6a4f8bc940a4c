package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arxivmonitor/internal/scanner"
)

func listingPage(entries ...string) string {
	page := "<html><body><dl>"
	for _, e := range entries {
		page += e
	}
	return page + "</dl></body></html>"
}

func listingEntry(id, title, author, date string) string {
	return fmt.Sprintf(`
<dt><a href="/abs/%s" title="Abstract">arXiv:%s</a></dt>
<dd>
  <div class="list-title">Title: %s</div>
  <div class="list-authors"><a href="#">%s</a></div>
  <p class="mathjax">Abstract: An abstract for %s.</p>
  <div class="list-date">Submitted %s</div>
</dd>`, id, id, title, author, id, date)
}

func TestArxivListingScannerScan(t *testing.T) {
	t.Parallel()

	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path+"?"+r.URL.RawQuery)
		page := listingPage(
			listingEntry("2508.11111", "Adversarial Prompts", "Alice Smith", "28 Aug 2026"),
			listingEntry("2508.22222", "Model Extraction", "Bob Jones", "26 Aug 2026"),
			listingEntry("2508.33333", "Old Survey", "Carol White", "1 Aug 2026"),
		)
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewArxivListingScanner(server.Client())
	sc.baseURL = server.URL
	sc.pageSize = 10

	req := scanner.Request{
		Since:      time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Categories: []string{"cs.CR"},
	}

	papers, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	// The third entry predates the window and ends the walk.
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}

	first := papers[0]
	if first.ID != "2508.11111" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.Title != "Adversarial Prompts" {
		t.Errorf("Title = %q", first.Title)
	}
	if len(first.Authors) != 1 || first.Authors[0] != "Alice Smith" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Abstract != "An abstract for 2508.11111." {
		t.Errorf("Abstract = %q", first.Abstract)
	}
	if first.Published.Format("2006-01-02") != "2026-08-28" {
		t.Errorf("Published = %v", first.Published)
	}
	if first.AbstractURL != server.URL+"/abs/2508.11111" {
		t.Errorf("AbstractURL = %q", first.AbstractURL)
	}
	if first.PDFURL != server.URL+"/pdf/2508.11111" {
		t.Errorf("PDFURL = %q", first.PDFURL)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "cs.CR" {
		t.Errorf("Categories = %v", first.Categories)
	}

	// Pagination stops after the first page once an older entry appears.
	if len(requested) != 1 {
		t.Errorf("expected a single page fetch, got %v", requested)
	}
}

func TestArxivListingScannerDeduplicatesAcrossCategories(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := listingPage(
			listingEntry("2508.11111", "Cross Listed", "Alice Smith", "28 Aug 2026"),
		)
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewArxivListingScanner(server.Client())
	sc.baseURL = server.URL
	sc.pageSize = 10

	papers, err := sc.Scan(context.Background(), scanner.Request{
		Since:      time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Categories: []string{"cs.AI", "cs.CR"},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(papers) != 1 {
		t.Fatalf("expected cross listing collapsed to 1 paper, got %d", len(papers))
	}
}

func TestArxivListingScannerNoCategories(t *testing.T) {
	t.Parallel()

	sc := NewArxivListingScanner(nil)
	if _, err := sc.Scan(context.Background(), scanner.Request{}); err == nil {
		t.Fatal("expected error for empty category list")
	}
}
