package usecase

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"arxivmonitor/internal/domain"
)

// The digest groups papers under every topic the review assigned, largest
// group first, mirroring how readers skim by attack type.

type digestGroup struct {
	Topic  string
	Papers []digestPaper
}

type digestPaper struct {
	Title          string
	Authors        string
	Published      string
	Relevance      int
	RelevanceClass string
	Overview       string
	AbstractURL    string
	PDFURL         string
}

type digestData struct {
	Total      int
	TopicCount int
	Groups     []digestGroup
	Generated  string
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Research Digest</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2980b9; margin-top: 30px; }
.paper { margin-bottom: 25px; border-left: 4px solid #3498db; padding-left: 15px; }
.paper-title { font-weight: bold; font-size: 18px; margin-bottom: 5px; }
.paper-meta { font-size: 14px; color: #7f8c8d; margin-bottom: 8px; }
.relevance { display: inline-block; padding: 3px 6px; border-radius: 3px; font-size: 12px; font-weight: bold; color: white; }
.relevance-high { background-color: #e74c3c; }
.relevance-medium { background-color: #f39c12; }
.relevance-low { background-color: #3498db; }
.links a { color: #2980b9; text-decoration: none; margin-right: 15px; font-size: 14px; }
.footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #eee; font-size: 14px; color: #7f8c8d; }
</style>
</head>
<body>
<h1>AI Red Teaming Research Digest</h1>
<p><strong>Summary:</strong></p>
<ul>
<li>Total papers: {{.Total}}</li>
<li>Categories covered: {{.TopicCount}}</li>
</ul>
{{range .Groups}}<h2>{{.Topic}} ({{len .Papers}} papers)</h2>
{{range .Papers}}<div class="paper">
<div class="paper-title">{{.Title}}</div>
<div class="paper-meta">
<span>Authors: {{.Authors}}</span>
<span> &bull; </span>
<span>Published: {{.Published}}</span>
<span> &bull; </span>
<span class="relevance {{.RelevanceClass}}">Relevance: {{.Relevance}}/10</span>
</div>
<div class="paper-overview">{{.Overview}}</div>
<div class="links">
<a href="{{.AbstractURL}}">Abstract</a>
<a href="{{.PDFURL}}">PDF</a>
</div>
</div>
{{end}}{{end}}<div class="footer">
<p>This digest was generated on {{.Generated}}.</p>
</div>
</body>
</html>
`))

func renderDigestHTML(papers []domain.Paper) (string, error) {
	byTopic := map[string][]digestPaper{}
	for _, paper := range papers {
		item := toDigestPaper(paper)
		topics := []string{"Uncategorized"}
		if paper.Review != nil && len(paper.Review.Topics) > 0 {
			topics = paper.Review.Topics
		}
		for _, topic := range topics {
			byTopic[topic] = append(byTopic[topic], item)
		}
	}

	groups := make([]digestGroup, 0, len(byTopic))
	for topic, items := range byTopic {
		groups = append(groups, digestGroup{Topic: topic, Papers: items})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Papers) != len(groups[j].Papers) {
			return len(groups[i].Papers) > len(groups[j].Papers)
		}
		return groups[i].Topic < groups[j].Topic
	})

	data := digestData{
		Total:      len(papers),
		TopicCount: len(groups),
		Groups:     groups,
		Generated:  time.Now().Format("2006-01-02"),
	}

	var out strings.Builder
	if err := digestTemplate.Execute(&out, data); err != nil {
		return "", fmt.Errorf("execute digest template: %w", err)
	}
	return out.String(), nil
}

func toDigestPaper(paper domain.Paper) digestPaper {
	item := digestPaper{
		Title:          paper.Title,
		Authors:        formatAuthors(paper.Authors),
		Published:      paper.Published.Format("2006-01-02"),
		Overview:       "No overview available",
		RelevanceClass: "relevance-low",
		AbstractURL:    paper.AbstractURL,
		PDFURL:         paper.PDFURL,
	}
	if paper.Review != nil {
		item.Relevance = paper.Review.Relevance
		if paper.Review.Overview != "" {
			item.Overview = paper.Review.Overview
		}
		switch {
		case paper.Review.Relevance >= 8:
			item.RelevanceClass = "relevance-high"
		case paper.Review.Relevance >= 5:
			item.RelevanceClass = "relevance-medium"
		}
	}
	return item
}

func formatAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	if len(authors) > 3 {
		return strings.Join(authors[:3], ", ") + " et al."
	}
	return strings.Join(authors, ", ")
}
