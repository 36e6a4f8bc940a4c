package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"arxivmonitor/internal/domain"
)

const systemPrompt = "You are a helpful AI research assistant skilled at analyzing academic papers."

// buildPrompt asks for a structured JSON assessment of one paper.
func buildPrompt(paper domain.Paper) string {
	var b strings.Builder
	b.WriteString("You are an expert in AI security and AI red teaming research. Analyze this research paper and provide:\n\n")
	b.WriteString("1. A brief overview (2-3 sentences summarizing the paper's main contribution)\n")
	b.WriteString("2. A technical explanation (5-7 sentences explaining the key technical details)\n")
	b.WriteString("3. Categorization by attack type (choose the most relevant categories from: prompt injection, jailbreaking, adversarial examples, model extraction, data poisoning, model backdoor attacks, privacy attacks, model stealing, reward hacking, social engineering, or any other relevant category). They must be related to AI red teaming research specifically.\n")
	b.WriteString("4. Relevance score for AI red teaming (1-10, with 10 being most relevant)\n\n")
	fmt.Fprintf(&b, "Paper Title: %s\n", paper.Title)
	fmt.Fprintf(&b, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	fmt.Fprintf(&b, "Abstract: %s\n\n", paper.Abstract)
	b.WriteString("Return ONLY a JSON object with these keys:\n")
	b.WriteString(`{"brief_overview": "...", "technical_explanation": "...", "categories": ["category1", "category2"], "relevance_score": number}`)
	return b.String()
}

type reviewPayload struct {
	BriefOverview        string   `json:"brief_overview"`
	TechnicalExplanation string   `json:"technical_explanation"`
	Categories           []string `json:"categories"`
	RelevanceScore       int      `json:"relevance_score"`
}

// parseReview extracts the outermost JSON object from a model response.
// Models occasionally wrap the object in prose or code fences, so the
// parse is anchored on the first '{' and last '}'.
func parseReview(response string) (domain.Review, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return domain.Review{}, fmt.Errorf("no JSON object in response")
	}

	var payload reviewPayload
	if err := json.Unmarshal([]byte(response[start:end+1]), &payload); err != nil {
		return domain.Review{}, fmt.Errorf("decode review: %w", err)
	}

	if payload.BriefOverview == "" {
		payload.BriefOverview = "Not provided"
	}
	if payload.TechnicalExplanation == "" {
		payload.TechnicalExplanation = "Not provided"
	}
	if len(payload.Categories) == 0 {
		payload.Categories = []string{"unclassified"}
	}
	if payload.RelevanceScore < 0 {
		payload.RelevanceScore = 0
	}
	if payload.RelevanceScore > 10 {
		payload.RelevanceScore = 10
	}

	return domain.Review{
		Overview:   payload.BriefOverview,
		Commentary: payload.TechnicalExplanation,
		Topics:     payload.Categories,
		Relevance:  payload.RelevanceScore,
	}, nil
}
